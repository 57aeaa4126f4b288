package byke

import (
	"github.com/oliverbestmann/bykeblend/spoke"
)

// EntityId uniquely identifies an entity in a World.
type EntityId = spoke.EntityId

// NoEntityId never identifies an entity.
const NoEntityId = spoke.NoEntityId

// IsComponent can be used in a type parameter to ensure that type T is a Component type.
//
// To implement the IsComponent interface for a type, you must embed the Component type.
type IsComponent[T any] = spoke.IsComponent[T]

// Component is a zero sized type that may be embedded into a struct to turn that
// struct into a component (see IsComponent).
type Component[T IsComponent[T]] = spoke.Component[T]

// ErasedComponent indicates a type erased Component value.
//
// Values handed out by the World are always pointers to the component value,
// even though the interface is implemented on the component type itself.
type ErasedComponent = spoke.ErasedComponent

// ComponentType describes a component type known to the process.
type ComponentType = spoke.ComponentType

// ComponentTypeOf returns the ComponentType of C.
func ComponentTypeOf[C IsComponent[C]]() *ComponentType {
	return spoke.ComponentTypeOf[C]()
}
