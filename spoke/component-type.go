package spoke

import (
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"sync/atomic"
)

type ComponentTypeId uint16

type ComponentType struct {
	Name string
	Type reflect.Type

	// The Id of the type, unique within the process.
	Id ComponentTypeId
}

// ComponentTypeOf returns the ComponentType for the component type C.
// The type is registered on first use.
func ComponentTypeOf[C IsComponent[C]]() *ComponentType {
	return componentTypeOf(reflect.TypeFor[C]())
}

// ComponentTypeOfReflect returns the ComponentType for the given reflect type.
// It panics if values of the type do not implement ErasedComponent.
func ComponentTypeOfReflect(ty reflect.Type) *ComponentType {
	if ty.Kind() != reflect.Struct || !reflect.PointerTo(ty).Implements(reflect.TypeFor[ErasedComponent]()) {
		panic(fmt.Sprintf("type %s is not a component", ty))
	}

	return componentTypeOf(ty)
}

// New allocates a new zero value of the component type and
// returns a pointer to it.
func (c *ComponentType) New() ErasedComponent {
	return reflect.New(c.Type).Interface().(ErasedComponent)
}

// CopyOf returns a pointer to a shallow copy of the given component value.
// The value may either be a component or a pointer to a component.
func (c *ComponentType) CopyOf(value ErasedComponent) ErasedComponent {
	source := reflect.ValueOf(value)
	if source.Kind() == reflect.Pointer {
		source = source.Elem()
	}

	target := reflect.New(c.Type)
	target.Elem().Set(source)
	return target.Interface().(ErasedComponent)
}

func (c *ComponentType) String() string {
	return c.Name
}

var componentTypes atomic.Pointer[map[reflect.Type]*ComponentType]

func init() {
	// initialize the lookup table
	componentTypes.Store(&map[reflect.Type]*ComponentType{})
}

func componentTypeOf(reflectType reflect.Type) *ComponentType {
	for {
		previousTypes := componentTypes.Load()
		if cached, ok := (*previousTypes)[reflectType]; ok {
			return cached
		}

		newType := &ComponentType{
			Id:   ComponentTypeId(len(*previousTypes) + 1),
			Type: reflectType,
			Name: reflectType.String(),
		}

		newTypes := maps.Clone(*previousTypes)
		newTypes[reflectType] = newType

		if componentTypes.CompareAndSwap(previousTypes, &newTypes) {
			slog.Debug(
				"New component type registered",
				slog.String("name", newType.Name),
				slog.Int("id", int(newType.Id)),
			)

			return newType
		}
	}
}
