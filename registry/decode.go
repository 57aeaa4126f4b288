package registry

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/oliverbestmann/bykeblend/ron"
	"github.com/oliverbestmann/bykeblend/spoke"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

var ErrInvalidDocument = errors.New("document must be a map with a single type path key")

// DecodeError describes a value that does not fit the type it is decoded into.
type DecodeError struct {
	// Path to the value within the document, e.g. "Collider.Cuboid.x"
	Path string
	Pos  ron.Pos
	Msg  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s at %s: %s", e.Path, e.Pos, e.Msg)
}

// Deserialize decodes a tagged document of the form `{"<type path>": <value>}` into a new
// value of the registered type named by the key.
func Deserialize(doc string, r *TypeRegistry) (DynamicValue, error) {
	root, err := ron.Parse(doc)
	if err != nil {
		return DynamicValue{}, err
	}

	if root.Kind != ron.KindMap || len(root.Entries) != 1 || root.Entries[0].Key.Kind != ron.KindString {
		return DynamicValue{}, fmt.Errorf("got %s: %w", root.Describe(), ErrInvalidDocument)
	}

	typePath := root.Entries[0].Key.Text

	reg, ok := r.GetWithTypePath(typePath)
	if !ok {
		return DynamicValue{}, fmt.Errorf("%q: %w", typePath, ErrNotFound)
	}

	value := reg.New()

	if err := Decode(root.Entries[0].Value, value.Interface()); err != nil {
		return DynamicValue{}, err
	}

	return value, nil
}

// Decode decodes a parsed value into target, which must be a non nil pointer.
func Decode(value ron.Value, target any) error {
	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return fmt.Errorf("decode target must be a non nil pointer, got %T", target)
	}

	dec := decoder{path: []string{shortNameOf(ptr.Type().Elem())}}
	return dec.decode(value, ptr.Elem())
}

type decoder struct {
	path []string
}

func (d *decoder) errorf(value ron.Value, format string, args ...any) error {
	return &DecodeError{
		Path: strings.Join(d.path, "."),
		Pos:  value.Pos,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func (d *decoder) push(name string) {
	d.path = append(d.path, name)
}

func (d *decoder) pop() {
	d.path = d.path[:len(d.path)-1]
}

var (
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	erasedComponentType = reflect.TypeFor[spoke.ErasedComponent]()
)

func (d *decoder) decode(value ron.Value, target reflect.Value) error {
	ty := target.Type()

	if reflect.PointerTo(ty).Implements(textUnmarshalerType) && ty.Kind() != reflect.Pointer {
		return d.decodeText(value, target)
	}

	switch ty.Kind() {
	case reflect.Interface:
		if ty.NumMethod() != 0 {
			return d.errorf(value, "can not decode into interface %s", ty)
		}

		native, err := d.decodeAny(value)
		if err != nil {
			return err
		}

		if native != nil {
			target.Set(reflect.ValueOf(native))
		}

		return nil

	case reflect.Bool:
		if value.Kind != ron.KindBool {
			return d.errorf(value, "expected bool, got %s", value.Describe())
		}

		return d.fromCty(value, cty.BoolVal(value.Bool), target)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:

		if value.Kind == ron.KindChar && ty.Kind() == reflect.Int32 {
			target.SetInt(int64([]rune(value.Text)[0]))
			return nil
		}

		if value.Kind != ron.KindNumber {
			return d.errorf(value, "expected number, got %s", value.Describe())
		}

		return d.fromCty(value, value.Number, target)

	case reflect.String:
		if value.Kind != ron.KindString && value.Kind != ron.KindChar {
			return d.errorf(value, "expected string, got %s", value.Describe())
		}

		target.SetString(value.Text)
		return nil

	case reflect.Pointer:
		return d.decodePointer(value, target)

	case reflect.Slice:
		return d.decodeSlice(value, target)

	case reflect.Array:
		return d.decodeArray(value, target)

	case reflect.Map:
		return d.decodeMap(value, target)

	case reflect.Struct:
		if variants := variantFieldsOf(ty); len(variants) > 0 {
			return d.decodeVariant(value, target, variants)
		}

		return d.decodeStruct(value, target)

	default:
		return d.errorf(value, "unsupported target type %s", ty)
	}
}

func (d *decoder) fromCty(value ron.Value, ctyValue cty.Value, target reflect.Value) error {
	if err := gocty.FromCtyValue(ctyValue, target.Addr().Interface()); err != nil {
		return d.errorf(value, "%s", err)
	}

	return nil
}

// decodeText decodes unit variants like `Loading` or strings through encoding.TextUnmarshaler.
func (d *decoder) decodeText(value ron.Value, target reflect.Value) error {
	var text string

	switch {
	case value.Kind == ron.KindUnit && value.Name != "":
		text = value.Name

	case value.Kind == ron.KindString:
		text = value.Text

	default:
		return d.errorf(value, "expected identifier or string, got %s", value.Describe())
	}

	if err := target.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
		return d.errorf(value, "%s", err)
	}

	return nil
}

func (d *decoder) decodePointer(value ron.Value, target reflect.Value) error {
	if value.IsNone() {
		target.SetZero()
		return nil
	}

	// values are implicitly wrapped in Some
	if value.IsSome() {
		value = value.Elems[0]
	}

	ptr := reflect.New(target.Type().Elem())
	if err := d.decode(value, ptr.Elem()); err != nil {
		return err
	}

	target.Set(ptr)
	return nil
}

func sequenceOf(value ron.Value) ([]ron.Value, bool) {
	switch {
	case value.Kind == ron.KindList:
		return value.Elems, true

	case value.Kind == ron.KindTuple && value.Name == "":
		return value.Elems, true

	case value.Kind == ron.KindUnit && value.Name == "":
		// the empty tuple
		return nil, true

	default:
		return nil, false
	}
}

func (d *decoder) decodeSlice(value ron.Value, target reflect.Value) error {
	elems, ok := sequenceOf(value)
	if !ok {
		return d.errorf(value, "expected list, got %s", value.Describe())
	}

	slice := reflect.MakeSlice(target.Type(), len(elems), len(elems))

	for idx, elem := range elems {
		d.push(fmt.Sprintf("[%d]", idx))
		err := d.decode(elem, slice.Index(idx))
		d.pop()

		if err != nil {
			return err
		}
	}

	target.Set(slice)
	return nil
}

func (d *decoder) decodeArray(value ron.Value, target reflect.Value) error {
	elems, ok := sequenceOf(value)
	if !ok {
		return d.errorf(value, "expected list, got %s", value.Describe())
	}

	if len(elems) != target.Len() {
		return d.errorf(value, "expected %d elements, got %d", target.Len(), len(elems))
	}

	for idx, elem := range elems {
		d.push(fmt.Sprintf("[%d]", idx))
		err := d.decode(elem, target.Index(idx))
		d.pop()

		if err != nil {
			return err
		}
	}

	return nil
}

func (d *decoder) decodeMap(value ron.Value, target reflect.Value) error {
	ty := target.Type()
	result := reflect.MakeMap(ty)

	switch value.Kind {
	case ron.KindMap:
		for _, entry := range value.Entries {
			key := reflect.New(ty.Key()).Elem()
			if err := d.decode(entry.Key, key); err != nil {
				return err
			}

			d.push(entry.Key.String())
			elem := reflect.New(ty.Elem()).Elem()
			err := d.decode(entry.Value, elem)
			d.pop()

			if err != nil {
				return err
			}

			result.SetMapIndex(key, elem)
		}

	case ron.KindStruct:
		if ty.Key().Kind() != reflect.String {
			return d.errorf(value, "struct can only be decoded into a map with string keys")
		}

		for _, field := range value.Fields {
			d.push(field.Name)
			elem := reflect.New(ty.Elem()).Elem()
			err := d.decode(field.Value, elem)
			d.pop()

			if err != nil {
				return err
			}

			result.SetMapIndex(reflect.ValueOf(field.Name).Convert(ty.Key()), elem)
		}

	default:
		return d.errorf(value, "expected map, got %s", value.Describe())
	}

	target.Set(result)
	return nil
}

func (d *decoder) decodeStruct(value ron.Value, target reflect.Value) error {
	ty := target.Type()
	fields := dataFieldsOf(ty)

	compound := value.Kind == ron.KindUnit || value.Kind == ron.KindTuple || value.Kind == ron.KindStruct

	if compound && value.Name != "" && value.Name != ty.Name() {
		// a newtype wrapping a named value, e.g. a unit variant
		if len(fields) == 1 {
			return d.decodeField(value, target, fields[0])
		}

		return d.errorf(value, "expected %s, got %s", ty.Name(), value.Name)
	}

	switch value.Kind {
	case ron.KindUnit:
		if len(fields) > 0 {
			return d.errorf(value, "expected %d fields for %s, got unit", len(fields), ty.Name())
		}

		target.SetZero()
		return nil

	case ron.KindTuple:
		if len(value.Elems) != len(fields) {
			return d.errorf(value, "expected %d values for %s, got %d", len(fields), ty.Name(), len(value.Elems))
		}

		for idx, elem := range value.Elems {
			if err := d.decodeField(elem, target, fields[idx]); err != nil {
				return err
			}
		}

		return nil

	case ron.KindStruct:
		for _, field := range value.Fields {
			structField, ok := fieldByName(fields, field.Name)
			if !ok {
				return d.errorf(field.Value, "unknown field %q in %s", field.Name, ty.Name())
			}

			if err := d.decodeField(field.Value, target, structField); err != nil {
				return err
			}
		}

		return nil

	default:
		// a newtype may be given without its parentheses
		if len(fields) == 1 {
			return d.decodeField(value, target, fields[0])
		}

		return d.errorf(value, "expected %s, got %s", ty.Name(), value.Describe())
	}
}

func (d *decoder) decodeField(value ron.Value, target reflect.Value, field structField) error {
	d.push(field.name)
	defer d.pop()

	return d.decode(value, target.FieldByIndex(field.index))
}

// decodeVariant decodes an enum like value. The target struct holds one pointer field per
// variant and exactly one of them is set after decoding.
func (d *decoder) decodeVariant(value ron.Value, target reflect.Value, variants []structField) error {
	ty := target.Type()

	if value.Name == "" {
		return d.errorf(value, "expected a variant of %s, got %s", ty.Name(), value.Describe())
	}

	variant, ok := fieldByExactName(variants, value.Name)
	if !ok {
		return d.errorf(value, "unknown variant %q of %s", value.Name, ty.Name())
	}

	// the payload of the variant, without its name
	payload := value
	payload.Name = ""

	switch {
	case value.Kind == ron.KindUnit:
		// a unit variant

	case value.Kind == ron.KindTuple && len(value.Elems) == 1:
		// a newtype variant
		payload = value.Elems[0]

	case value.Kind == ron.KindTuple || value.Kind == ron.KindStruct:
		// the payload is decoded into the struct the variant field points to

	default:
		return d.errorf(value, "unexpected %s for variant %s", value.Describe(), value.Name)
	}

	target.SetZero()

	d.push(variant.name)
	defer d.pop()

	fieldValue := target.FieldByIndex(variant.index)
	ptr := reflect.New(fieldValue.Type().Elem())

	if value.Kind != ron.KindUnit {
		if err := d.decode(payload, ptr.Elem()); err != nil {
			return err
		}
	}

	fieldValue.Set(ptr)
	return nil
}

func (d *decoder) decodeAny(value ron.Value) (any, error) {
	switch value.Kind {
	case ron.KindBool:
		return value.Bool, nil

	case ron.KindNumber:
		var f float64
		if err := gocty.FromCtyValue(value.Number, &f); err != nil {
			return nil, d.errorf(value, "%s", err)
		}

		return f, nil

	case ron.KindString, ron.KindChar:
		return value.Text, nil

	case ron.KindUnit:
		if value.Name != "" {
			return value.Name, nil
		}

		return nil, nil

	case ron.KindTuple, ron.KindList:
		if value.IsSome() {
			return d.decodeAny(value.Elems[0])
		}

		slice := make([]any, 0, len(value.Elems))
		for _, elem := range value.Elems {
			native, err := d.decodeAny(elem)
			if err != nil {
				return nil, err
			}

			slice = append(slice, native)
		}

		return slice, nil

	case ron.KindStruct:
		fields := make(map[string]any, len(value.Fields))
		for _, field := range value.Fields {
			native, err := d.decodeAny(field.Value)
			if err != nil {
				return nil, err
			}

			fields[field.Name] = native
		}

		return fields, nil

	case ron.KindMap:
		entries := make(map[string]any, len(value.Entries))
		for _, entry := range value.Entries {
			key := entry.Key.Text
			if entry.Key.Kind != ron.KindString {
				key = entry.Key.String()
			}

			native, err := d.decodeAny(entry.Value)
			if err != nil {
				return nil, err
			}

			entries[key] = native
		}

		return entries, nil

	default:
		return nil, d.errorf(value, "unsupported value %s", value.Describe())
	}
}
