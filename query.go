package byke

import (
	"fmt"
	"iter"
	"reflect"

	"github.com/oliverbestmann/bykeblend/spoke"
)

// Query is a SystemParam that iterates all entities matching T.
//
// T may be an EntityId, a component C, a pointer *C, an Option, a With or
// Without filter, or a struct combining any of these in its exported fields.
// Blank fields may be used for filters.
type Query[T any] struct {
	world *World
	plan  *queryPlan
}

// NewQuery creates a query that is not bound to a system.
func NewQuery[T any](world *World) Query[T] {
	plan, err := parseQuery(reflect.TypeFor[T]())
	if err != nil {
		panic(fmt.Sprintf("failed to parse query of type %s: %s", reflect.TypeFor[T](), err))
	}

	return Query[T]{world: world, plan: plan}
}

func (*Query[T]) init(world *World) SystemParamState {
	q := NewQuery[T](world)
	return valueSystemParamState(reflect.ValueOf(q))
}

// Items iterates all matching entities. The world must not be modified
// during iteration, use Commands instead.
func (q Query[T]) Items() iter.Seq[T] {
	return func(yield func(T) bool) {
		for ref := range q.world.storage.IterQuery(&q.plan.query) {
			var target T
			q.plan.fill(reflect.ValueOf(&target).Elem(), ref)

			if !yield(target) {
				return
			}
		}
	}
}

// Get fetches the entity with the given id, if it matches the query.
func (q Query[T]) Get(entityId EntityId) (T, bool) {
	var target T

	ref, ok := q.world.storage.Get(entityId)
	if !ok || !q.plan.query.MatchesArchetype(ref.Archetype()) {
		return target, false
	}

	q.plan.fill(reflect.ValueOf(&target).Elem(), ref)

	return target, true
}

func (q Query[T]) Count() int {
	var count int
	for range q.world.storage.IterQuery(&q.plan.query) {
		count += 1
	}

	return count
}

func (q Query[T]) MustGet() T {
	for value := range q.Items() {
		return value
	}

	panic(fmt.Sprintf("no values in query for type %s", reflect.TypeFor[T]()))
}

// queryTerm is implemented by the special query types Option, With and Without.
type queryTerm interface {
	applyTo(query *spoke.Query)
	fetch(ref spoke.EntityRef)
}

// Option is a query parameter that fetches a given Component of type C
// if it exists on an entity.
type Option[C IsComponent[C]] struct {
	value *C
}

func (o Option[C]) Get() (C, bool) {
	if o.value == nil {
		var zero C
		return zero, false
	}

	return *o.value, true
}

func (o Option[C]) OrZero() C {
	value, _ := o.Get()
	return value
}

func (Option[C]) applyTo(*spoke.Query) {}

func (o *Option[C]) fetch(ref spoke.EntityRef) {
	o.value = nil

	if value, ok := ref.Get(ComponentTypeOf[C]()); ok {
		o.value = value.(*C)
	}
}

// With is a query filter that constraints the entities queried to include only
// entities that have a Component of type C.
type With[C IsComponent[C]] struct{}

func (With[C]) applyTo(query *spoke.Query) {
	query.AddWith(ComponentTypeOf[C]())
}

func (*With[C]) fetch(spoke.EntityRef) {}

// Without is a query filter that constraints the entities queried to include only
// entities that do not have a Component of type C.
type Without[C IsComponent[C]] struct{}

func (Without[C]) applyTo(query *spoke.Query) {
	query.AddWithout(ComponentTypeOf[C]())
}

func (*Without[C]) fetch(spoke.EntityRef) {}

type setter func(target reflect.Value, ref spoke.EntityRef)

type queryPlan struct {
	query spoke.Query
	fill  setter
}

var (
	queryTermType       = reflect.TypeFor[queryTerm]()
	erasedComponentType = reflect.TypeFor[ErasedComponent]()
	entityIdType        = reflect.TypeFor[EntityId]()
)

func parseQuery(ty reflect.Type) (*queryPlan, error) {
	plan := &queryPlan{}

	fill, err := buildSetter(&plan.query, ty)
	if err != nil {
		return nil, err
	}

	plan.fill = fill
	return plan, nil
}

func isComponentType(ty reflect.Type) bool {
	return ty.Kind() == reflect.Struct && ty.Implements(erasedComponentType)
}

func buildSetter(query *spoke.Query, ty reflect.Type) (setter, error) {
	switch {
	case ty == entityIdType:
		return func(target reflect.Value, ref spoke.EntityRef) {
			target.Set(reflect.ValueOf(ref.EntityId))
		}, nil

	case reflect.PointerTo(ty).Implements(queryTermType):
		reflect.New(ty).Interface().(queryTerm).applyTo(query)

		return func(target reflect.Value, ref spoke.EntityRef) {
			target.Addr().Interface().(queryTerm).fetch(ref)
		}, nil

	case isComponentType(ty):
		componentType := spoke.ComponentTypeOfReflect(ty)
		query.AddWith(componentType)

		return func(target reflect.Value, ref spoke.EntityRef) {
			value, _ := ref.Get(componentType)
			target.Set(reflect.ValueOf(value).Elem())
		}, nil

	case ty.Kind() == reflect.Pointer && isComponentType(ty.Elem()):
		componentType := spoke.ComponentTypeOfReflect(ty.Elem())
		query.AddWith(componentType)

		return func(target reflect.Value, ref spoke.EntityRef) {
			value, _ := ref.Get(componentType)
			target.Set(reflect.ValueOf(value))
		}, nil

	case ty.Kind() == reflect.Struct:
		return buildStructSetter(query, ty)

	default:
		return nil, fmt.Errorf("unsupported query type %s", ty)
	}
}

func buildStructSetter(query *spoke.Query, ty reflect.Type) (setter, error) {
	type fieldSetter struct {
		index int
		set   setter
	}

	var setters []fieldSetter

	for idx := range ty.NumField() {
		field := ty.Field(idx)

		if field.Name == "_" {
			// blank fields can only hold filters, they are never fetched
			if !reflect.PointerTo(field.Type).Implements(queryTermType) {
				return nil, fmt.Errorf("blank field of type %s in %s must be a filter", field.Type, ty)
			}

			reflect.New(field.Type).Interface().(queryTerm).applyTo(query)
			continue
		}

		if !field.IsExported() {
			return nil, fmt.Errorf("field %s of %s is not exported", field.Name, ty)
		}

		set, err := buildSetter(query, field.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}

		setters = append(setters, fieldSetter{index: idx, set: set})
	}

	return func(target reflect.Value, ref spoke.EntityRef) {
		for _, field := range setters {
			field.set(target.Field(field.index), ref)
		}
	}, nil
}
