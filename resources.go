package byke

import (
	"fmt"
	"reflect"
)

// resourceSystemParamState injects a resource that is requested directly by its
// type. The lookup happens each time the system runs, so the resource does not
// need to exist while the system is added.
type resourceSystemParamState struct {
	typ   reflect.Type
	world *World
}

func makeResourceSystemParamState(world *World, typ reflect.Type) SystemParamState {
	return resourceSystemParamState{world: world, typ: typ}
}

func (r resourceSystemParamState) getValue() reflect.Value {
	// a copy of the resource, or the resource itself if it was inserted as a pointer
	if ptrToValue, ok := r.world.Resource(r.typ); ok {
		return reflect.ValueOf(ptrToValue).Elem()
	}

	// a pointer to the resource value
	if r.typ.Kind() == reflect.Pointer {
		if ptrToValue, ok := r.world.Resource(r.typ.Elem()); ok {
			return reflect.ValueOf(ptrToValue)
		}
	}

	panic(fmt.Sprintf("Resource of type %s does not exist in world", r.typ))
}

func (r resourceSystemParamState) cleanupValue() {
}

func (r resourceSystemParamState) valueType() reflect.Type {
	return r.typ
}

// Res provides a SystemParam to inject a resource at runtime.
//
// This is currently the same as just declaring the resource type directly as a parameter.
type Res[T any] struct {
	Value T
	world *World
}

func (r *Res[T]) init(world *World) SystemParamState {
	r.world = world
	return r
}

func (r *Res[T]) getValue() reflect.Value {
	value := resourceSystemParamState{world: r.world, typ: reflect.TypeFor[T]()}.getValue()
	r.Value = value.Interface().(T)

	return reflect.ValueOf(r).Elem()
}

func (r *Res[T]) cleanupValue() {
}

func (r *Res[T]) valueType() reflect.Type {
	return reflect.TypeFor[Res[T]]()
}

// ResOption allows to inject a resource as a system param if it exists in the world.
// If the resource does not exist, the system will still run but a zero ResOption is injected.
type ResOption[T any] struct {
	Value *T
	world *World
}

func (r *ResOption[T]) init(world *World) SystemParamState {
	r.world = world
	return r
}

func (r *ResOption[T]) getValue() reflect.Value {
	r.Value, _ = ResourceOf[T](r.world)
	return reflect.ValueOf(r).Elem()
}

func (r *ResOption[T]) cleanupValue() {
}

func (r *ResOption[T]) valueType() reflect.Type {
	return reflect.TypeFor[ResOption[T]]()
}
