package byke

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func systemIdsOf(systems ...AnySystem) []SystemId {
	var ids []SystemId

	for _, system := range systems {
		ids = append(ids, asSystemConfig(system).Id)
	}

	return ids
}

func TestSystemOrder(t *testing.T) {
	runTest := func(t *testing.T, systems []SystemConfig, expected []SystemId) {
		order, err := topologicalSystemOrder(systems)
		require.NoError(t, err)
		require.Equal(t, expected, order)
	}

	t.Run("c, a, b", func(t *testing.T) {
		runTest(t,
			asSystemConfigs(
				System(a).Before(b),
				System(c).Before(a),
			),

			systemIdsOf(c, a, b),
		)
	})

	t.Run("a, b, c", func(t *testing.T) {
		runTest(t,
			asSystemConfigs(
				System(a).Before(c),
				System(b).After(a),
				System(b).Before(c),
			),
			systemIdsOf(a, b, c),
		)
	})

	t.Run("chain", func(t *testing.T) {
		runTest(t,
			asSystemConfigs(System(a, b, c).Chain()),
			systemIdsOf(a, b, c))
	})

	t.Run("a, b, x, c", func(t *testing.T) {
		runTest(t,
			asSystemConfigs(System(a, b, c).Chain(), System(x).Before(c).After(b).After(a)),
			systemIdsOf(a, b, x, c))
	})

	t.Run("unconstrained keeps insertion order", func(t *testing.T) {
		runTest(t,
			asSystemConfigs(x, c, a, b),
			systemIdsOf(x, c, a, b))
	})
}

func TestSystemOrderCycle(t *testing.T) {
	_, err := topologicalSystemOrder(asSystemConfigs(
		System(a).Before(b),
		System(b).Before(a),
	))

	require.Error(t, err)
}

func TestScheduleRunsInOrder(t *testing.T) {
	w := NewWorld()

	schedule := MakeScheduleId("test")

	w.InsertResource(trace{})
	w.AddSystems(schedule, System(traceB).After(traceA), traceA)

	w.RunSchedule(schedule)

	tr, _ := ResourceOf[trace](w)
	require.Equal(t, []string{"a", "b"}, tr.Calls)
}

func TestAddSameSystemTwice(t *testing.T) {
	w := NewWorld()

	schedule := MakeScheduleId("test")
	w.AddSystems(schedule, a)

	require.Panics(t, func() {
		w.AddSystems(schedule, a)
	})
}

type trace struct {
	Calls []string
}

func traceA(tr *trace) {
	tr.Calls = append(tr.Calls, "a")
}

func traceB(tr *trace) {
	tr.Calls = append(tr.Calls, "b")
}

func a() int {
	return 1
}

func b() int {
	return 2
}

func c() int {
	return 3
}

func x() int {
	return 4
}

func gen[X any]() {
	ty := reflect.TypeFor[X]()
	_ = fmt.Sprintln(ty)
}
