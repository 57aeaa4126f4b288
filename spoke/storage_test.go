package spoke

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

type Position struct {
	Component[Position]
	X int
}

type Velocity struct {
	Component[Velocity]
	X int
}

func idsOf(refs []EntityRef) []EntityId {
	var ids []EntityId
	for _, ref := range refs {
		ids = append(ids, ref.EntityId)
	}

	slices.Sort(ids)
	return ids
}

func TestStorage_Query(t *testing.T) {
	s := NewStorage()

	s.Spawn(1, []ErasedComponent{&Position{X: 10}, &Velocity{X: 0}})
	s.Spawn(2, []ErasedComponent{&Velocity{X: 1}})
	s.Spawn(3, nil)

	query := Query{
		With:    []*ComponentType{ComponentTypeOf[Velocity]()},
		Without: []*ComponentType{ComponentTypeOf[Position]()},
	}

	refs := slices.Collect(s.IterQuery(&query))
	require.Equal(t, []EntityId{2}, idsOf(refs))

	value, ok := refs[0].Get(ComponentTypeOf[Velocity]())
	require.True(t, ok)
	require.Equal(t, 1, value.(*Velocity).X)

	all := slices.Collect(s.IterQuery(&Query{}))
	require.Equal(t, []EntityId{1, 2, 3}, idsOf(all))
}

func TestStorage_InsertMovesArchetype(t *testing.T) {
	s := NewStorage()

	s.Spawn(1, []ErasedComponent{&Position{X: 1}})
	s.Spawn(2, []ErasedComponent{&Position{X: 2}})

	before, _ := s.Get(1)
	previous := before.Archetype()

	stored := s.InsertComponent(1, &Velocity{X: 5})
	require.Equal(t, 5, stored.(*Velocity).X)

	after, _ := s.Get(1)
	require.NotSame(t, previous, after.Archetype())

	// the position value survives the move
	position, ok := after.Get(ComponentTypeOf[Position]())
	require.True(t, ok)
	require.Equal(t, 1, position.(*Position).X)

	// the entity that was swapped into the free row is still reachable
	other, ok := s.Get(2)
	require.True(t, ok)
	position, _ = other.Get(ComponentTypeOf[Position]())
	require.Equal(t, 2, position.(*Position).X)
}

func TestStorage_InsertOverwrites(t *testing.T) {
	s := NewStorage()

	s.Spawn(1, []ErasedComponent{&Position{X: 1}})
	s.InsertComponent(1, &Position{X: 7})

	ref, _ := s.Get(1)
	position, _ := ref.Get(ComponentTypeOf[Position]())
	require.Equal(t, 7, position.(*Position).X)
	require.Len(t, ref.Components(), 1)

	// last value wins within a single insert
	s.InsertComponents(1, []ErasedComponent{&Velocity{X: 1}, &Velocity{X: 2}})
	ref, _ = s.Get(1)
	velocity, _ := ref.Get(ComponentTypeOf[Velocity]())
	require.Equal(t, 2, velocity.(*Velocity).X)
}

func TestStorage_RemoveAndDespawn(t *testing.T) {
	s := NewStorage()

	s.Spawn(1, []ErasedComponent{&Position{X: 1}, &Velocity{X: 2}})

	removed, ok := s.RemoveComponent(1, ComponentTypeOf[Velocity]())
	require.True(t, ok)
	require.Equal(t, 2, removed.(*Velocity).X)
	require.False(t, s.HasComponent(1, ComponentTypeOf[Velocity]()))
	require.True(t, s.HasComponent(1, ComponentTypeOf[Position]()))

	_, ok = s.RemoveComponent(1, ComponentTypeOf[Velocity]())
	require.False(t, ok)

	require.True(t, s.Despawn(1))
	require.False(t, s.Despawn(1))
	require.Equal(t, 0, s.Len())
}

func TestComponentType_CopyOf(t *testing.T) {
	ty := ComponentTypeOf[Position]()
	require.Same(t, ty, ComponentTypeOfReflect(ty.Type))

	original := &Position{X: 3}
	copied := ty.CopyOf(original).(*Position)
	copied.X = 4

	require.Equal(t, 3, original.X)
	require.Equal(t, 3, ty.CopyOf(Position{X: 3}).(*Position).X)
	require.IsType(t, &Position{}, ty.New())
}
