package registry

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/oliverbestmann/bykeblend"
	"github.com/oliverbestmann/bykeblend/ron"
	"github.com/stretchr/testify/require"
)

type Barbette struct {
	byke.Component[Barbette]
}

type ShadowsEnabled struct {
	byke.Component[ShadowsEnabled]
	Enabled bool
}

type Vec3 struct {
	X, Y, Z float32
}

type Collider struct {
	byke.Component[Collider]
	Cuboid *Vec3     `ron:",variant"`
	Sphere *float32  `ron:",variant"`
	Empty  *struct{} `ron:",variant"`
}

type Turret struct {
	byke.Component[Turret]
	Label    string
	HalfSize float64
	Ammo     uint8
	Target   *Vec3
	Tags     []string
	Offsets  [2]int
	Lookup   map[string]int
	Mode     mode
	Glyph    rune
	Extra    any
	Internal string `ron:"-"`
}

type Name struct {
	byke.Component[Name]
	Value string
}

type mode int

func (m *mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Fast":
		*m = 1
	case "Slow":
		*m = 2
	default:
		return fmt.Errorf("unknown mode %q", text)
	}

	return nil
}

func newTestRegistry() *TypeRegistry {
	r := New()
	Register[Barbette](r)
	Register[ShadowsEnabled](r)
	Register[Collider](r)
	Register[Turret](r)
	return r
}

func tagged[T any](payload string) string {
	return fmt.Sprintf("{%q: %s}", typePathOf(reflect.TypeFor[T]()), payload)
}

func TestRegister(t *testing.T) {
	r := newTestRegistry()

	reg, err := r.Lookup("Barbette")
	require.NoError(t, err)
	require.Equal(t, "Barbette", reg.ShortName)
	require.Equal(t, "github.com/oliverbestmann/bykeblend/registry.Barbette", reg.TypePath)
	require.Equal(t, reflect.TypeFor[Barbette](), reg.Type)
	require.Equal(t, byke.ComponentTypeOf[Barbette](), reg.ComponentType)

	byPath, ok := r.GetWithTypePath(reg.TypePath)
	require.True(t, ok)
	require.Same(t, reg, byPath)

	_, err = r.Lookup("Unknown")
	require.ErrorIs(t, err, ErrNotFound)

	require.Len(t, r.Registrations(), 4)
}

func TestRegisterTwicePanics(t *testing.T) {
	r := New()
	Register[Barbette](r)

	require.Panics(t, func() {
		Register[Barbette](r)
	})
}

func TestRegisterNonComponentPanics(t *testing.T) {
	require.Panics(t, func() {
		New().RegisterType(reflect.TypeFor[Vec3]())
	})
}

func TestAmbiguousShortName(t *testing.T) {
	r := New()
	Register[byke.Name](r)
	Register[Name](r)

	_, err := r.Lookup("Name")
	require.ErrorIs(t, err, ErrAmbiguous)

	reg, ok := r.GetWithTypePath("github.com/oliverbestmann/bykeblend/registry.Name")
	require.True(t, ok)
	require.Equal(t, reflect.TypeFor[Name](), reg.Type)
}

func TestDeserialize(t *testing.T) {
	r := newTestRegistry()

	t.Run("unit struct", func(t *testing.T) {
		for _, payload := range []string{"()", "Barbette"} {
			value, err := Deserialize(tagged[Barbette](payload), r)
			require.NoError(t, err)
			require.IsType(t, &Barbette{}, value.Interface())
		}
	})

	t.Run("newtype", func(t *testing.T) {
		for _, payload := range []string{"(true)", "true", "ShadowsEnabled(true)", "(enabled: true)"} {
			value, err := Deserialize(tagged[ShadowsEnabled](payload), r)
			require.NoError(t, err, payload)
			require.True(t, value.Interface().(*ShadowsEnabled).Enabled, payload)
		}
	})

	t.Run("variants", func(t *testing.T) {
		value, err := Deserialize(tagged[Collider]("Cuboid((x: 1.0, y: 2.0, z: 0.5))"), r)
		require.NoError(t, err)

		collider := value.Interface().(*Collider)
		require.Equal(t, &Vec3{X: 1, Y: 2, Z: 0.5}, collider.Cuboid)
		require.Nil(t, collider.Sphere)

		value, err = Deserialize(tagged[Collider]("Sphere(0.25)"), r)
		require.NoError(t, err)

		collider = value.Interface().(*Collider)
		require.Nil(t, collider.Cuboid)
		require.InDelta(t, 0.25, *collider.Sphere, 1e-6)

		value, err = Deserialize(tagged[Collider]("Empty"), r)
		require.NoError(t, err)
		require.NotNil(t, value.Interface().(*Collider).Empty)

		_, err = Deserialize(tagged[Collider]("Capsule(1.0)"), r)
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
	})

	t.Run("all field kinds", func(t *testing.T) {
		payload := `(
			label: "north",
			half_size: 1.5,
			ammo: 12,
			target: Some((x: 1, y: 2, z: 3)),
			tags: ["a", "b"],
			offsets: (1, -1),
			lookup: {"x": 1},
			mode: Fast,
			glyph: 'g',
			extra: [1, "two", (three: true)],
		)`

		value, err := Deserialize(tagged[Turret](payload), r)
		require.NoError(t, err)

		turret := value.Interface().(*Turret)
		require.Equal(t, "north", turret.Label)
		require.Equal(t, 1.5, turret.HalfSize)
		require.Equal(t, uint8(12), turret.Ammo)
		require.Equal(t, &Vec3{X: 1, Y: 2, Z: 3}, turret.Target)
		require.Equal(t, []string{"a", "b"}, turret.Tags)
		require.Equal(t, [2]int{1, -1}, turret.Offsets)
		require.Equal(t, map[string]int{"x": 1}, turret.Lookup)
		require.Equal(t, mode(1), turret.Mode)
		require.Equal(t, 'g', turret.Glyph)
		require.Equal(t, []any{1.0, "two", map[string]any{"three": true}}, turret.Extra)
	})

	t.Run("none", func(t *testing.T) {
		value, err := Deserialize(tagged[Turret]("(target: None)"), r)
		require.NoError(t, err)
		require.Nil(t, value.Interface().(*Turret).Target)
	})
}

func TestDeserializeErrors(t *testing.T) {
	r := newTestRegistry()

	cases := map[string]string{
		"wrong type":         tagged[ShadowsEnabled](`("yes")`),
		"unknown field":      tagged[Turret](`(speed: 1)`),
		"overflow":           tagged[Turret](`(ammo: 300)`),
		"fraction into int":  tagged[Turret](`(ammo: 1.5)`),
		"bad text":           tagged[Turret](`(mode: Medium)`),
		"wrong tuple length": tagged[Turret](`(offsets: (1, 2, 3))`),
		"ignored field":      tagged[Turret](`(internal: "x")`),
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Deserialize(doc, r)

			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			require.NotEmpty(t, decodeErr.Path)
		})
	}

	t.Run("syntax error", func(t *testing.T) {
		_, err := Deserialize(tagged[Turret]("(label: "), r)

		var syntaxErr *ron.SyntaxError
		require.ErrorAs(t, err, &syntaxErr)
	})

	t.Run("not a tagged document", func(t *testing.T) {
		_, err := Deserialize("(true)", r)
		require.ErrorIs(t, err, ErrInvalidDocument)

		_, err = Deserialize(`{"a": 1, "b": 2}`, r)
		require.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("unknown type path", func(t *testing.T) {
		_, err := Deserialize(`{"example.Unknown": ()}`, r)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDecodeErrorPath(t *testing.T) {
	r := newTestRegistry()

	_, err := Deserialize(tagged[Turret](`(target: Some((x: "far")))`), r)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	require.Equal(t, "Turret.Target.X", decodeErr.Path)
}

func TestDecode(t *testing.T) {
	value, err := ron.Parse("(x: 1.0, y: -2, z: 0.5)")
	require.NoError(t, err)

	var vec Vec3
	require.NoError(t, Decode(value, &vec))
	require.Equal(t, Vec3{X: 1, Y: -2, Z: 0.5}, vec)

	require.Error(t, Decode(value, vec))
	require.Error(t, Decode(value, (*Vec3)(nil)))

	value, err = ron.Parse(`(x: "far")`)
	require.NoError(t, err)

	var decodeErr *DecodeError
	require.ErrorAs(t, Decode(value, &vec), &decodeErr)
	require.Equal(t, "Vec3.X", decodeErr.Path)
}

func TestInsert(t *testing.T) {
	r := newTestRegistry()
	w := byke.NewWorld()

	entityId := w.Spawn([]byke.ErasedComponent{ShadowsEnabled{Enabled: false}})

	reg, err := r.Lookup("ShadowsEnabled")
	require.NoError(t, err)

	value, err := Deserialize(tagged[ShadowsEnabled]("(true)"), r)
	require.NoError(t, err)

	require.NoError(t, reg.Insert(w, entityId, value))

	component := byke.NewQuery[ShadowsEnabled](w).MustGet()
	require.True(t, component.Enabled)

	err = reg.Insert(w, byke.EntityId(999), value)
	require.True(t, errors.Is(err, ErrNoEntity))

	barbette, _ := r.Lookup("Barbette")
	require.Error(t, barbette.Insert(w, entityId, value))
}
