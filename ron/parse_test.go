package ron

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireNumber(t *testing.T, expected float64, value Value) {
	t.Helper()

	require.Equal(t, KindNumber, value.Kind)
	actual, _ := value.Number.AsBigFloat().Float64()
	require.InDelta(t, expected, actual, 1e-9)
}

func TestParseScalars(t *testing.T) {
	t.Run("bool", func(t *testing.T) {
		value, err := Parse("true")
		require.NoError(t, err)
		require.Equal(t, KindBool, value.Kind)
		require.True(t, value.Bool)
	})

	t.Run("numbers", func(t *testing.T) {
		cases := map[string]float64{
			"1":         1,
			"-12":       -12,
			"+3":        3,
			"1.5":       1.5,
			"-0.25":     -0.25,
			"1e3":       1000,
			"2.5E-1":    0.25,
			"1_000_000": 1_000_000,
			"0x1F":      31,
			"-0x10":     -16,
			"0b101":     5,
			"0o17":      15,
			".5":        0.5,
		}

		for src, expected := range cases {
			value, err := Parse(src)
			require.NoError(t, err, src)
			requireNumber(t, expected, value)
		}
	})

	t.Run("infinity", func(t *testing.T) {
		value, err := Parse("-inf")
		require.NoError(t, err)
		require.Equal(t, KindNumber, value.Kind)
		require.True(t, value.Number.AsBigFloat().IsInf())
		require.Equal(t, -1, value.Number.AsBigFloat().Sign())
	})

	t.Run("large integer keeps precision", func(t *testing.T) {
		value, err := Parse("18446744073709551615")
		require.NoError(t, err)

		expected, _ := new(big.Int).SetString("18446744073709551615", 10)
		actual, _ := value.Number.AsBigFloat().Int(nil)
		require.Equal(t, 0, expected.Cmp(actual))
	})

	t.Run("strings", func(t *testing.T) {
		value, err := Parse(`"a\n\"b\" \u{1F600} \x41"`)
		require.NoError(t, err)
		require.Equal(t, KindString, value.Kind)
		require.Equal(t, "a\n\"b\" \U0001F600 A", value.Text)
	})

	t.Run("raw strings", func(t *testing.T) {
		value, err := Parse(`r#"a "quoted" \n"#`)
		require.NoError(t, err)
		require.Equal(t, `a "quoted" \n`, value.Text)
	})

	t.Run("char", func(t *testing.T) {
		value, err := Parse(`'x'`)
		require.NoError(t, err)
		require.Equal(t, KindChar, value.Kind)
		require.Equal(t, "x", value.Text)
	})

	t.Run("byte", func(t *testing.T) {
		value, err := Parse(`b'A'`)
		require.NoError(t, err)
		requireNumber(t, 65, value)
	})
}

func TestParseCompound(t *testing.T) {
	t.Run("unit", func(t *testing.T) {
		value, err := Parse("()")
		require.NoError(t, err)
		require.Equal(t, KindUnit, value.Kind)
		require.Empty(t, value.Name)
	})

	t.Run("named unit", func(t *testing.T) {
		value, err := Parse("Barbette")
		require.NoError(t, err)
		require.Equal(t, KindUnit, value.Kind)
		require.Equal(t, "Barbette", value.Name)
	})

	t.Run("tuple", func(t *testing.T) {
		value, err := Parse("(true, 1, )")
		require.NoError(t, err)
		require.Equal(t, KindTuple, value.Kind)
		require.Len(t, value.Elems, 2)
	})

	t.Run("named tuple", func(t *testing.T) {
		value, err := Parse("Cuboid((x: 1.0, y: 2.0, z: 3.0))")
		require.NoError(t, err)
		require.Equal(t, KindTuple, value.Kind)
		require.Equal(t, "Cuboid", value.Name)
		require.Len(t, value.Elems, 1)

		inner := value.Elems[0]
		require.Equal(t, KindStruct, inner.Kind)

		y, ok := inner.Field("y")
		require.True(t, ok)
		requireNumber(t, 2, y)
	})

	t.Run("struct", func(t *testing.T) {
		value, err := Parse(`Point(x: 1, y: -2)`)
		require.NoError(t, err)
		require.Equal(t, KindStruct, value.Kind)
		require.Equal(t, "Point", value.Name)
		require.Equal(t, []string{"x", "y"}, []string{value.Fields[0].Name, value.Fields[1].Name})
	})

	t.Run("list", func(t *testing.T) {
		value, err := Parse("[1, 2, 3]")
		require.NoError(t, err)
		require.Equal(t, KindList, value.Kind)
		require.Len(t, value.Elems, 3)
	})

	t.Run("map keeps order", func(t *testing.T) {
		value, err := Parse(`{"b": 1, "a": 2}`)
		require.NoError(t, err)
		require.Equal(t, KindMap, value.Kind)
		require.Equal(t, "b", value.Entries[0].Key.Text)
		require.Equal(t, "a", value.Entries[1].Key.Text)
	})

	t.Run("options", func(t *testing.T) {
		value, err := Parse("[Some(1), None]")
		require.NoError(t, err)
		require.True(t, value.Elems[0].IsSome())
		require.True(t, value.Elems[1].IsNone())
	})

	t.Run("comments and attributes", func(t *testing.T) {
		src := `
			#![enable(implicit_some)]
			// a line comment
			( /* a /* nested */ block comment */ a: 1 )
		`

		value, err := Parse(src)
		require.NoError(t, err)
		require.Equal(t, KindStruct, value.Kind)
	})
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"",
		"(",
		"[1 2]",
		`"unterminated`,
		"'ab'",
		"(a: 1, a: 2)",
		"1 2",
		"NaN",
		"/* open",
		"0xZZ",
		"{1 2}",
	}

	for _, src := range cases {
		_, err := Parse(src)
		require.Error(t, err, "source: %q", src)

		var syntaxErr *SyntaxError
		require.ErrorAs(t, err, &syntaxErr)
	}
}

func TestParseNestingDepth(t *testing.T) {
	nested := func(depth int) string {
		return strings.Repeat("[", depth) + "1" + strings.Repeat("]", depth)
	}

	value, err := Parse(nested(MaxDepth - 1))
	require.NoError(t, err)
	require.Equal(t, KindList, value.Kind)

	for _, src := range []string{nested(MaxDepth), strings.Repeat("[", 1_000_000), strings.Repeat("(a: ", 10_000)} {
		_, err := Parse(src)

		var syntaxErr *SyntaxError
		require.ErrorAs(t, err, &syntaxErr)
		require.Contains(t, syntaxErr.Msg, "maximum nesting depth")
	}
}

func TestErrorPosition(t *testing.T) {
	_, err := Parse("(\n  a: ?\n)")

	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	require.Equal(t, Pos{Line: 2, Column: 6}, syntaxErr.Pos)
}

func TestString(t *testing.T) {
	value, err := Parse(`Foo(a: [1, 2], b: Some("x"), c: None, d: {'k': ()})`)
	require.NoError(t, err)
	require.Equal(t, `Foo(a: [1, 2], b: Some("x"), c: None, d: {'k': ()})`, value.String())
}
