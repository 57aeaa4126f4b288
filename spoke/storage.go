package spoke

import (
	"fmt"
	"iter"
	"slices"
)

type location struct {
	archetype *Archetype
	row       int
}

// Storage keeps all entities and their components, grouped into archetypes.
// Adding a component of a type the entity does not yet have moves the entity
// into a different archetype.
//
// Storage is not safe for concurrent use, except for concurrent reads while
// no writer is active.
type Storage struct {
	entities   map[EntityId]location
	archetypes []*Archetype
	byKey      map[string]*Archetype
}

func NewStorage() *Storage {
	return &Storage{
		entities: map[EntityId]location{},
		byKey:    map[string]*Archetype{},
	}
}

// Len returns the number of entities in the storage.
func (s *Storage) Len() int {
	return len(s.entities)
}

func (s *Storage) Spawn(entityId EntityId, components []ErasedComponent) {
	if entityId == NoEntityId {
		panic("can not spawn entity without id")
	}

	if _, exists := s.entities[entityId]; exists {
		panic(fmt.Sprintf("entity %s already exists", entityId))
	}

	components = dedupComponents(components)

	archetype := s.archetypeOf(typesOf(components))
	row := archetype.push(entityId, components)

	s.entities[entityId] = location{archetype: archetype, row: row}
}

func (s *Storage) Despawn(entityId EntityId) bool {
	loc, ok := s.entities[entityId]
	if !ok {
		return false
	}

	s.removeRow(loc)
	delete(s.entities, entityId)

	return true
}

// InsertComponent inserts the component into the entity, replacing a previous
// value of the same type. The value stored is returned.
func (s *Storage) InsertComponent(entityId EntityId, component ErasedComponent) ErasedComponent {
	s.InsertComponents(entityId, []ErasedComponent{component})

	value, _ := s.entities[entityId].archetype.get(s.entities[entityId].row, component.ComponentType())
	return value
}

// InsertComponents inserts all components into the entity. If multiple components
// of the same type are provided, the last one wins.
func (s *Storage) InsertComponents(entityId EntityId, components []ErasedComponent) {
	loc, ok := s.entities[entityId]
	if !ok {
		panic(fmt.Sprintf("entity %s does not exist", entityId))
	}

	components = dedupComponents(components)

	var missing []*ComponentType
	for _, component := range components {
		if !loc.archetype.ContainsType(component.ComponentType()) {
			missing = append(missing, component.ComponentType())
		}
	}

	if len(missing) == 0 {
		// no change in archetypes, replace values in place
		for _, component := range components {
			column := loc.archetype.columnOf[component.ComponentType()]
			loc.archetype.columns[column][loc.row] = component
		}

		return
	}

	// collect the current values and overwrite them with the new ones
	values := loc.archetype.rowValues(loc.row)
	for _, component := range components {
		if column, ok := loc.archetype.columnOf[component.ComponentType()]; ok {
			values[column] = component
		} else {
			values = append(values, component)
		}
	}

	target := s.archetypeOf(append(slices.Clone(loc.archetype.Types), missing...))
	s.move(entityId, loc, target, values)
}

// RemoveComponent removes the component of the given type from the entity
// and returns the value that was removed.
func (s *Storage) RemoveComponent(entityId EntityId, componentType *ComponentType) (ErasedComponent, bool) {
	loc, ok := s.entities[entityId]
	if !ok {
		panic(fmt.Sprintf("entity %s does not exist", entityId))
	}

	removed, ok := loc.archetype.get(loc.row, componentType)
	if !ok {
		return nil, false
	}

	values := slices.DeleteFunc(loc.archetype.rowValues(loc.row), func(value ErasedComponent) bool {
		return value.ComponentType() == componentType
	})

	target := s.archetypeOf(typesOf(values))
	s.move(entityId, loc, target, values)

	return removed, true
}

func (s *Storage) HasComponent(entityId EntityId, componentType *ComponentType) bool {
	loc, ok := s.entities[entityId]
	return ok && loc.archetype.ContainsType(componentType)
}

func (s *Storage) Get(entityId EntityId) (EntityRef, bool) {
	loc, ok := s.entities[entityId]
	if !ok {
		return EntityRef{}, false
	}

	return EntityRef{EntityId: entityId, archetype: loc.archetype, row: loc.row}, true
}

// IterQuery iterates all entities matching the given query. The storage must
// not be modified while iterating.
func (s *Storage) IterQuery(q *Query) iter.Seq[EntityRef] {
	return func(yield func(EntityRef) bool) {
		for _, archetype := range s.archetypes {
			if archetype.Len() == 0 || !q.MatchesArchetype(archetype) {
				continue
			}

			for row, entityId := range archetype.entities {
				ref := EntityRef{EntityId: entityId, archetype: archetype, row: row}
				if !yield(ref) {
					return
				}
			}
		}
	}
}

func (s *Storage) move(entityId EntityId, from location, to *Archetype, values []ErasedComponent) {
	s.removeRow(from)

	row := to.push(entityId, values)
	s.entities[entityId] = location{archetype: to, row: row}
}

func (s *Storage) removeRow(loc location) {
	moved := loc.archetype.swapRemove(loc.row)
	if moved != NoEntityId {
		// the last row was moved into the free slot
		s.entities[moved] = location{archetype: loc.archetype, row: loc.row}
	}
}

func (s *Storage) archetypeOf(types []*ComponentType) *Archetype {
	types = sortedTypes(types)
	key := archetypeKey(types)

	if archetype, ok := s.byKey[key]; ok {
		return archetype
	}

	archetype := newArchetype(ArchetypeId(len(s.archetypes)+1), types)
	s.archetypes = append(s.archetypes, archetype)
	s.byKey[key] = archetype

	return archetype
}

func (a *Archetype) get(row int, componentType *ComponentType) (ErasedComponent, bool) {
	column, ok := a.columnOf[componentType]
	if !ok {
		return nil, false
	}

	return a.columns[column][row], true
}

func typesOf(components []ErasedComponent) []*ComponentType {
	types := make([]*ComponentType, 0, len(components))
	for _, component := range components {
		types = append(types, component.ComponentType())
	}

	return types
}

// dedupComponents removes all but the last component of each type,
// keeping the order of the remaining values.
func dedupComponents(components []ErasedComponent) []ErasedComponent {
	lastIndex := make(map[*ComponentType]int, len(components))
	for idx, component := range components {
		lastIndex[component.ComponentType()] = idx
	}

	if len(lastIndex) == len(components) {
		return components
	}

	result := make([]ErasedComponent, 0, len(lastIndex))
	for idx, component := range components {
		if lastIndex[component.ComponentType()] == idx {
			result = append(result, component)
		}
	}

	return result
}

// EntityRef is a view onto a single entity. It is only valid until
// the storage is modified.
type EntityRef struct {
	EntityId  EntityId
	archetype *Archetype
	row       int
}

func (e EntityRef) Get(componentType *ComponentType) (ErasedComponent, bool) {
	return e.archetype.get(e.row, componentType)
}

func (e EntityRef) Has(componentType *ComponentType) bool {
	return e.archetype.ContainsType(componentType)
}

// Components returns pointers to all component values of the entity.
func (e EntityRef) Components() []ErasedComponent {
	return e.archetype.rowValues(e.row)
}

func (e EntityRef) Archetype() *Archetype {
	return e.archetype
}
