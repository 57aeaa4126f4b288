package byke

import (
	"fmt"
	"iter"
	"log/slog"
	"reflect"

	"github.com/oliverbestmann/bykeblend/spoke"
)

type resourceValue struct {
	// Value is of kind Pointer and points to the value of the resource.
	Value reflect.Value
}

type AnyPtr = any

// EntityRef gives read access to the components of a single entity.
// It is only valid until the world is modified.
type EntityRef = spoke.EntityRef

// World holds all entities and resources, schedules, systems, etc.
// While an empty World can be created using NewWorld, it is normally created and configured
// by using the App api.
//
// A World is not safe for concurrent use.
type World struct {
	storage     *spoke.Storage
	entityIdSeq EntityId
	resources   map[reflect.Type]resourceValue
	schedules   map[ScheduleId]*Schedule
	systems     map[SystemId]*preparedSystem
}

// NewWorld creates a new empty world.
// You probably want to use the App api instead.
func NewWorld() *World {
	return &World{
		storage:   spoke.NewStorage(),
		resources: map[reflect.Type]resourceValue{},
		schedules: map[ScheduleId]*Schedule{},
		systems:   map[SystemId]*preparedSystem{},
	}
}

// AddSystems adds systems to a schedule within the world.
//
// Systems are identified by their function. Adding two closures created
// from the same function literal to the same schedule panics.
func (w *World) AddSystems(scheduleId ScheduleId, firstSystem AnySystem, systems ...AnySystem) {
	schedule := w.scheduleOf(scheduleId)

	systems = append([]AnySystem{firstSystem}, systems...)

	for _, system := range asSystemConfigs(systems...) {
		preparedSystem := w.prepareSystem(system)
		if err := schedule.addSystem(preparedSystem); err != nil {
			panic(fmt.Sprintf("add system to schedule %s: %s", scheduleId, err))
		}
	}
}

// RunSystem prepares and runs a system once within the world.
// Pending commands of the system are applied before RunSystem returns.
//
// The system is prepared fresh on every call, Local values are not kept
// between two calls.
func (w *World) RunSystem(system AnySystem) {
	w.runSystem(prepareSystem(w, asSystemConfig(system)))
}

func (w *World) scheduleOf(scheduleId ScheduleId) *Schedule {
	schedule, ok := w.schedules[scheduleId]
	if !ok {
		schedule = NewSchedule()
		w.schedules[scheduleId] = schedule
	}

	return schedule
}

func (w *World) runSystem(system *preparedSystem) any {
	for _, predicate := range system.Predicates {
		result := w.runSystem(predicate)
		if result == nil || !result.(bool) {
			// predicate evaluated to "do not run", stop execution here
			return nil
		}
	}

	return system.RawSystem()
}

func (w *World) prepareSystem(systemConfig SystemConfig) *preparedSystem {
	// check cache first
	prepared, ok := w.systems[systemConfig.Id]
	if ok {
		return prepared
	}

	// need to prepare the system
	prepared = prepareSystem(w, systemConfig)
	w.systems[systemConfig.Id] = prepared

	return prepared
}

// RunSchedule runs the schedule identified by the given ScheduleId.
// If no schedule with this id exists, no action is performed.
func (w *World) RunSchedule(scheduleId ScheduleId) {
	schedule, ok := w.schedules[scheduleId]
	if !ok {
		return
	}

	// remove the schedule while it is executed
	delete(w.schedules, scheduleId)

	// add the schedule back once it has finished executing
	defer func() {
		if _, exists := w.schedules[scheduleId]; exists {
			panic(fmt.Sprintf("The schedule %q was modified while it is being executed", scheduleId))
		}

		w.schedules[scheduleId] = schedule
	}()

	for _, system := range schedule.systems {
		w.runSystem(system)
	}
}

// Spawn spawns a new entity with the given components.
func (w *World) Spawn(components []ErasedComponent) EntityId {
	return w.spawnWithEntityId(w.reserveEntityId(), components)
}

func (w *World) reserveEntityId() EntityId {
	w.entityIdSeq += 1
	return w.entityIdSeq
}

func (w *World) spawnWithEntityId(entityId EntityId, components []ErasedComponent) EntityId {
	if entityId == NoEntityId {
		entityId = w.reserveEntityId()
	}

	w.storage.Spawn(entityId, heapComponents(components))

	return entityId
}

// InsertComponents inserts the given components into an existing entity.
// A component replaces any previous value of the same type.
func (w *World) InsertComponents(entityId EntityId, components []ErasedComponent) {
	w.storage.InsertComponents(entityId, heapComponents(components))
}

// RemoveComponent removes the component of the given type. It returns false
// if the entity did not have such a component.
func (w *World) RemoveComponent(entityId EntityId, componentType *ComponentType) bool {
	_, ok := w.storage.RemoveComponent(entityId, componentType)
	return ok
}

// Despawn removes the entity and all of its components.
func (w *World) Despawn(entityId EntityId) {
	if !w.storage.Despawn(entityId) {
		slog.Warn("Cannot despawn entity, it does not exist", slog.Any("entity", entityId))
	}
}

// Entity returns a view of the entity with the given id.
func (w *World) Entity(entityId EntityId) (EntityRef, bool) {
	return w.storage.Get(entityId)
}

// Entities iterates over all entities in the world. The world must not
// be modified during iteration.
func (w *World) Entities() iter.Seq[EntityRef] {
	return w.storage.IterQuery(&spoke.Query{})
}

// EntityCount returns the number of entities currently alive.
func (w *World) EntityCount() int {
	return w.storage.Len()
}

// InsertResource inserts a new resource into the world.
//
// If the resource does not yet exist, a new value of the resources type will
// be allocated on the heap and the value provided will be copied into that memory location.
// A resource that is itself a pointer, e.g. a *Server, is stored as is and can be
// requested by a system using that same pointer type.
//
// If the world already contains a resource of the same type, this value will
// just be updated with the newly provided one.
func (w *World) InsertResource(resource any) {
	resType := reflect.PointerTo(reflect.TypeOf(resource))

	if existing, ok := w.resources[resType]; ok {
		// update existing value in place
		existing.Value.Elem().Set(reflect.ValueOf(resource))
		return
	}

	// allocate the resource on the heap and copy the provided value to it
	ptr := reflect.New(resType.Elem())
	ptr.Elem().Set(reflect.ValueOf(resource))

	w.resources[ptr.Type()] = resourceValue{
		Value: ptr,
	}
}

// RemoveResource removes a resource previously added with InsertResource.
func (w *World) RemoveResource(resourceType reflect.Type) {
	delete(w.resources, reflect.PointerTo(resourceType))
}

// Resource returns a pointer to the resource of the given reflect type.
// The type must be the type of the resource as it was passed to InsertResource.
func (w *World) Resource(ty reflect.Type) (AnyPtr, bool) {
	resValue, ok := w.resources[reflect.PointerTo(ty)]
	if !ok {
		return nil, false
	}

	return resValue.Value.Interface(), true
}

// ResourceOf is a typed version of World.Resource.
func ResourceOf[T any](w *World) (*T, bool) {
	value, ok := w.Resource(reflect.TypeFor[T]())
	if !ok {
		return nil, false
	}

	return value.(*T), true
}

// heapComponents ensures that each component is stored as a pointer
// to a value not shared with the caller.
func heapComponents(components []ErasedComponent) []ErasedComponent {
	result := make([]ErasedComponent, 0, len(components))

	for _, component := range components {
		result = append(result, copyComponent(component))
	}

	return result
}

func copyComponent(value ErasedComponent) ErasedComponent {
	return value.ComponentType().CopyOf(value)
}
