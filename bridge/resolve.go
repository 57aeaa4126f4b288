package bridge

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/oliverbestmann/bykeblend"
	"github.com/oliverbestmann/bykeblend/registry"
	"github.com/tidwall/gjson"
)

var (
	ErrMalformedBlob    = errors.New("metadata is not a json object")
	ErrUnknownType      = errors.New("type is not registered")
	ErrAmbiguousType    = errors.New("type name is ambiguous")
	ErrNonStringPayload = errors.New("payload must be a string")
	ErrMalformedValue   = errors.New("payload does not match type")
)

// Resolved is a component value created from one key of a blob.
type Resolved struct {
	Value        registry.DynamicValue
	Registration *registry.TypeRegistration
	Slot         Slot
	Key          string
}

// Issue describes a piece of metadata that was skipped.
type Issue struct {
	Entity byke.EntityId
	Slot   Slot

	// Key is empty if the blob as a whole was skipped.
	Key string
	Err error
}

func (i Issue) Error() string {
	if i.Key == "" {
		return fmt.Sprintf("entity %s, %s extras: %s", i.Entity, i.Slot, i.Err)
	}

	return fmt.Sprintf("entity %s, %s extras, key %q: %s", i.Entity, i.Slot, i.Key, i.Err)
}

func (i Issue) Unwrap() error {
	return i.Err
}

type entityResult struct {
	Entity   byke.EntityId
	Blobs    int
	Resolved []Resolved
	Issues   []Issue
}

func resolveEntity(reg *registry.TypeRegistry, ref byke.EntityRef) entityResult {
	result := entityResult{Entity: ref.EntityId}

	for _, blob := range Scan(ref) {
		result.Blobs++
		resolveBlob(reg, blob, &result)
	}

	return result
}

func resolveBlob(reg *registry.TypeRegistry, blob Blob, result *entityResult) {
	issue := func(key string, err error) {
		result.Issues = append(result.Issues, Issue{
			Entity: result.Entity,
			Slot:   blob.Slot,
			Key:    key,
			Err:    err,
		})
	}

	if !gjson.Valid(blob.Text) {
		issue("", fmt.Errorf("%w: invalid json", ErrMalformedBlob))
		return
	}

	parsed := gjson.Parse(blob.Text)
	if !parsed.IsObject() {
		issue("", fmt.Errorf("%w: got %s", ErrMalformedBlob, parsed.Type))
		return
	}

	// ForEach visits the keys in document order
	parsed.ForEach(func(key, payload gjson.Result) bool {
		value, registration, err := resolveKey(reg, key.String(), payload)
		if err != nil {
			issue(key.String(), err)
			return true
		}

		result.Resolved = append(result.Resolved, Resolved{
			Value:        value,
			Registration: registration,
			Slot:         blob.Slot,
			Key:          key.String(),
		})

		return true
	})
}

func resolveKey(reg *registry.TypeRegistry, name string, payload gjson.Result) (registry.DynamicValue, *registry.TypeRegistration, error) {
	registration, err := reg.Lookup(name)
	switch {
	case errors.Is(err, registry.ErrAmbiguous):
		return registry.DynamicValue{}, nil, fmt.Errorf("%w: %w", ErrAmbiguousType, err)

	case err != nil:
		return registry.DynamicValue{}, nil, fmt.Errorf("%w: %w", ErrUnknownType, err)
	}

	if payload.Type != gjson.String {
		return registry.DynamicValue{}, nil, fmt.Errorf("%w: got %s", ErrNonStringPayload, payload.Type)
	}

	doc := taggedDocument(registration.TypePath, payload.Str)

	value, err := deserialize(doc, reg)
	if err != nil {
		return registry.DynamicValue{}, nil, fmt.Errorf("%w: %w", ErrMalformedValue, err)
	}

	return value, registration, nil
}

// taggedDocument wraps the payload into a map keyed by the full type path.
func taggedDocument(typePath string, payload string) string {
	return "{" + strconv.Quote(typePath) + ": " + payload + "}"
}

func deserialize(doc string, reg *registry.TypeRegistry) (value registry.DynamicValue, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while decoding: %v", r)
		}
	}()

	return registry.Deserialize(doc, reg)
}
