// Package ron parses RON ("Rusty Object Notation") documents into a dynamic
// value tree. The tree keeps names of structs and enum variants, so it can be
// decoded into typed values later on.
package ron

import (
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

type Kind uint8

const (
	KindBool Kind = iota + 1
	KindNumber
	KindString
	KindChar
	KindUnit
	KindTuple
	KindStruct
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindChar:
		return "char"
	case KindUnit:
		return "unit"
	case KindTuple:
		return "tuple"
	case KindStruct:
		return "struct"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Pos is a position within the source document.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Value is a single node of a parsed document.
//
// Units, tuples and structs may carry a Name, e.g. `Some(1)` is a tuple named
// "Some" and `None` is a unit named "None".
type Value struct {
	Kind Kind
	Name string
	Pos  Pos

	Bool bool

	// Number holds a value of type cty.Number for KindNumber
	Number cty.Value

	// Text holds the content of a string or the single rune of a char
	Text string

	// Elems holds the values of a tuple or list
	Elems []Value

	Fields  []Field
	Entries []Entry
}

type Field struct {
	Name  string
	Value Value
}

type Entry struct {
	Key   Value
	Value Value
}

// IsNone reports whether the value is the option value None.
func (v Value) IsNone() bool {
	return v.Kind == KindUnit && v.Name == "None"
}

// IsSome reports whether the value is an option value Some(x).
func (v Value) IsSome() bool {
	return v.Kind == KindTuple && v.Name == "Some" && len(v.Elems) == 1
}

// Field returns the value of the struct field with the given name.
func (v Value) Field(name string) (Value, bool) {
	for _, field := range v.Fields {
		if field.Name == name {
			return field.Value, true
		}
	}

	return Value{}, false
}

// Describe returns a short description of the value for error messages.
func (v Value) Describe() string {
	if v.Name != "" {
		return v.Kind.String() + " " + v.Name
	}

	return v.Kind.String()
}

// String formats the value back into RON notation.
func (v Value) String() string {
	var b strings.Builder
	v.format(&b)
	return b.String()
}

func (v Value) format(b *strings.Builder) {
	switch v.Kind {
	case KindBool:
		b.WriteString(strconv.FormatBool(v.Bool))

	case KindNumber:
		if v.Number.IsKnown() && !v.Number.IsNull() {
			b.WriteString(v.Number.AsBigFloat().Text('g', -1))
		}

	case KindString:
		b.WriteString(strconv.Quote(v.Text))

	case KindChar:
		b.WriteString(strconv.QuoteRune([]rune(v.Text)[0]))

	case KindUnit:
		if v.Name != "" {
			b.WriteString(v.Name)
		} else {
			b.WriteString("()")
		}

	case KindTuple:
		b.WriteString(v.Name)
		b.WriteByte('(')
		formatList(b, v.Elems)
		b.WriteByte(')')

	case KindList:
		b.WriteByte('[')
		formatList(b, v.Elems)
		b.WriteByte(']')

	case KindStruct:
		b.WriteString(v.Name)
		b.WriteByte('(')
		for idx, field := range v.Fields {
			if idx > 0 {
				b.WriteString(", ")
			}

			b.WriteString(field.Name)
			b.WriteString(": ")
			field.Value.format(b)
		}
		b.WriteByte(')')

	case KindMap:
		b.WriteByte('{')
		for idx, entry := range v.Entries {
			if idx > 0 {
				b.WriteString(", ")
			}

			entry.Key.format(b)
			b.WriteString(": ")
			entry.Value.format(b)
		}
		b.WriteByte('}')
	}
}

func formatList(b *strings.Builder, values []Value) {
	for idx, value := range values {
		if idx > 0 {
			b.WriteString(", ")
		}

		value.format(b)
	}
}
