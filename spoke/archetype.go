package spoke

import (
	"slices"
	"strconv"
	"strings"
)

type ArchetypeId uint32

// Archetype stores all entities that share the exact same set of component types.
// Component values are stored as pointers in one column per type.
type Archetype struct {
	Id    ArchetypeId
	Types []*ComponentType

	columnOf map[*ComponentType]int
	columns  [][]ErasedComponent

	entities []EntityId
}

func newArchetype(id ArchetypeId, types []*ComponentType) *Archetype {
	archetype := &Archetype{
		Id:       id,
		Types:    types,
		columnOf: make(map[*ComponentType]int, len(types)),
		columns:  make([][]ErasedComponent, len(types)),
	}

	for idx, ty := range types {
		archetype.columnOf[ty] = idx
	}

	return archetype
}

func (a *Archetype) ContainsType(componentType *ComponentType) bool {
	_, ok := a.columnOf[componentType]
	return ok
}

func (a *Archetype) Len() int {
	return len(a.entities)
}

// push appends a new row. The components must match the archetypes types
// exactly, but may be given in any order.
func (a *Archetype) push(entityId EntityId, components []ErasedComponent) int {
	if len(components) != len(a.columns) {
		panic("number of components does not match archetype")
	}

	for _, component := range components {
		column, ok := a.columnOf[component.ComponentType()]
		if !ok {
			panic("component " + component.ComponentType().Name + " not in archetype")
		}

		a.columns[column] = append(a.columns[column], component)
	}

	a.entities = append(a.entities, entityId)
	return len(a.entities) - 1
}

// swapRemove removes the given row by moving the last row into its place.
// It returns the entity that now lives at row, or NoEntityId if
// the removed row was the last one.
func (a *Archetype) swapRemove(row int) EntityId {
	last := len(a.entities) - 1

	for idx := range a.columns {
		column := a.columns[idx]
		column[row] = column[last]
		column[last] = nil
		a.columns[idx] = column[:last]
	}

	a.entities[row] = a.entities[last]
	a.entities = a.entities[:last]

	if row == last {
		return NoEntityId
	}

	return a.entities[row]
}

func (a *Archetype) rowValues(row int) []ErasedComponent {
	values := make([]ErasedComponent, len(a.columns))
	for idx := range a.columns {
		values[idx] = a.columns[idx][row]
	}

	return values
}

func archetypeKey(types []*ComponentType) string {
	var key strings.Builder
	for _, ty := range types {
		key.WriteString(strconv.Itoa(int(ty.Id)))
		key.WriteByte(',')
	}

	return key.String()
}

func sortedTypes(types []*ComponentType) []*ComponentType {
	types = slices.Clone(types)

	slices.SortFunc(types, func(a, b *ComponentType) int {
		return int(a.Id) - int(b.Id)
	})

	return slices.CompactFunc(types, func(a, b *ComponentType) bool { return a == b })
}
