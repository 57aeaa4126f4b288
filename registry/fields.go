package registry

import (
	"reflect"
	"strings"
	"sync"
)

type structField struct {
	// name as used in documents
	name  string
	index []int

	variant bool
}

type structInfo struct {
	fields   []structField
	variants []structField
}

var structInfos sync.Map

func structInfoOf(ty reflect.Type) *structInfo {
	if cached, ok := structInfos.Load(ty); ok {
		return cached.(*structInfo)
	}

	info := &structInfo{}

	for idx := range ty.NumField() {
		field := ty.Field(idx)

		// the zero sized component marker is not part of the data
		if field.Anonymous && field.Type.Size() == 0 && field.Type.Implements(erasedComponentType) {
			continue
		}

		if !field.IsExported() {
			continue
		}

		name, options, _ := strings.Cut(field.Tag.Get("ron"), ",")
		if name == "-" {
			continue
		}

		if name == "" {
			name = field.Name
		}

		sf := structField{
			name:    name,
			index:   field.Index,
			variant: options == "variant" && field.Type.Kind() == reflect.Pointer,
		}

		if sf.variant {
			info.variants = append(info.variants, sf)
		} else {
			info.fields = append(info.fields, sf)
		}
	}

	actual, _ := structInfos.LoadOrStore(ty, info)
	return actual.(*structInfo)
}

func dataFieldsOf(ty reflect.Type) []structField {
	return structInfoOf(ty).fields
}

func variantFieldsOf(ty reflect.Type) []structField {
	return structInfoOf(ty).variants
}

// fieldByName matches the document name against the field name. Case and
// underscores are ignored, so `half_size` matches a field named HalfSize.
func fieldByName(fields []structField, name string) (structField, bool) {
	if field, ok := fieldByExactName(fields, name); ok {
		return field, true
	}

	normalized := normalizeName(name)

	for _, field := range fields {
		if normalizeName(field.name) == normalized {
			return field, true
		}
	}

	return structField{}, false
}

func fieldByExactName(fields []structField, name string) (structField, bool) {
	for _, field := range fields {
		if field.name == name {
			return field, true
		}
	}

	return structField{}, false
}

func normalizeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}
