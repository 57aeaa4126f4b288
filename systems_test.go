package byke

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSystemId(t *testing.T) {
	t.Run("different systems", func(t *testing.T) {
		a := asSystemConfig(a).Id
		b := asSystemConfig(b).Id
		c := asSystemConfig(c).Id

		require.NotEqual(t, a, b)
		require.NotEqual(t, a, c)
		require.NotEqual(t, b, c)
	})

	t.Run("same system", func(t *testing.T) {
		a0 := asSystemConfig(a).Id
		a1 := asSystemConfig(a).Id
		a2 := asSystemConfig(a).Id

		require.Equal(t, a0, a1)
		require.Equal(t, a0, a2)
	})
}

func TestSystemIdWithGeneric(t *testing.T) {
	a0 := asSystemConfig(gen[int]).Id
	a1 := asSystemConfig(gen[int]).Id
	require.Equal(t, a0, a1)

	b := asSystemConfig(gen[float32]).Id
	require.NotEqual(t, a0, b)
}

func TestRunIf(t *testing.T) {
	w := NewWorld()

	var runs int
	count := func() { runs++ }

	schedule := MakeScheduleId("test")
	w.AddSystems(schedule, System(count).RunIf(ResourceExists[trace]))

	w.RunSchedule(schedule)
	require.Equal(t, 0, runs)

	w.InsertResource(trace{})
	w.RunSchedule(schedule)
	require.Equal(t, 1, runs)
}

func TestSystemReturnValue(t *testing.T) {
	w := NewWorld()

	prepared := prepareSystem(w, asSystemConfig(c))
	require.Equal(t, 3, prepared.RawSystem())

	prepared = prepareSystem(w, asSystemConfig(gen[int]))
	require.Nil(t, prepared.RawSystem())
}
