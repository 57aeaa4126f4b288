// Package registry keeps track of the component types that can be created
// from their textual representation at runtime.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/oliverbestmann/bykeblend"
	"github.com/oliverbestmann/bykeblend/spoke"
)

var (
	ErrNotFound  = errors.New("type is not registered")
	ErrAmbiguous = errors.New("short type name is ambiguous")
	ErrNoEntity  = errors.New("entity does not exist")
)

// TypeRegistration describes a registered component type and knows how to
// insert values of that type into an entity.
type TypeRegistration struct {
	// ShortName is the name of the type without its package, e.g. "Barbette".
	ShortName string

	// TypePath is the fully qualified name of the type, e.g. "example.com/game.Barbette".
	TypePath string

	Type          reflect.Type
	ComponentType *spoke.ComponentType
}

// New allocates a new zero value of the registered type.
func (r *TypeRegistration) New() DynamicValue {
	return DynamicValue{ptr: reflect.New(r.Type)}
}

// Insert inserts the value into the entity, replacing any existing component of the same type.
func (r *TypeRegistration) Insert(world *byke.World, entityId byke.EntityId, value DynamicValue) error {
	if !value.IsValid() || value.Type() != r.Type {
		return fmt.Errorf("insert %s: value has type %s", r.TypePath, value.Type())
	}

	if _, ok := world.Entity(entityId); !ok {
		return fmt.Errorf("insert %s into %s: %w", r.TypePath, entityId, ErrNoEntity)
	}

	component := value.ptr.Interface().(byke.ErasedComponent)
	world.InsertComponents(entityId, []byke.ErasedComponent{component})

	return nil
}

func (r *TypeRegistration) String() string {
	return r.TypePath
}

// DynamicValue holds a value of a registered type whose concrete type is only known at runtime.
type DynamicValue struct {
	// pointer to the actual value
	ptr reflect.Value
}

func (d DynamicValue) IsValid() bool {
	return d.ptr.IsValid()
}

// Type returns the type of the value, or nil for the zero DynamicValue.
func (d DynamicValue) Type() reflect.Type {
	if !d.ptr.IsValid() {
		return nil
	}

	return d.ptr.Type().Elem()
}

// Interface returns a pointer to the value.
func (d DynamicValue) Interface() any {
	return d.ptr.Interface()
}

// TypeRegistry maps type names to their registrations.
// It is safe for concurrent use.
type TypeRegistry struct {
	mu        sync.RWMutex
	byPath    map[string]*TypeRegistration
	byShort   map[string]*TypeRegistration
	ambiguous map[string][]string
}

func New() *TypeRegistry {
	return &TypeRegistry{
		byPath:    map[string]*TypeRegistration{},
		byShort:   map[string]*TypeRegistration{},
		ambiguous: map[string][]string{},
	}
}

// Register registers the component type C. It panics if the type was already registered.
func Register[C byke.IsComponent[C]](r *TypeRegistry) *TypeRegistration {
	return r.RegisterType(reflect.TypeFor[C]())
}

// RegisterType registers a component type given as a reflect.Type.
// It panics if the type is not a component or was already registered.
func (r *TypeRegistry) RegisterType(ty reflect.Type) *TypeRegistration {
	componentType := spoke.ComponentTypeOfReflect(ty)

	reg := &TypeRegistration{
		ShortName:     shortNameOf(ty),
		TypePath:      typePathOf(ty),
		Type:          ty,
		ComponentType: componentType,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byPath[reg.TypePath]; exists {
		panic(fmt.Sprintf("type %s is already registered", reg.TypePath))
	}

	r.byPath[reg.TypePath] = reg

	switch paths, ambiguous := r.ambiguous[reg.ShortName]; {
	case ambiguous:
		r.ambiguous[reg.ShortName] = append(paths, reg.TypePath)

	case r.byShort[reg.ShortName] != nil:
		// a second type with the same short name, it can only be resolved by its full path
		previous := r.byShort[reg.ShortName]
		delete(r.byShort, reg.ShortName)

		r.ambiguous[reg.ShortName] = []string{previous.TypePath, reg.TypePath}

		slog.Warn("Short type name is ambiguous",
			slog.String("name", reg.ShortName),
			slog.String("first", previous.TypePath),
			slog.String("second", reg.TypePath),
		)

	default:
		r.byShort[reg.ShortName] = reg
	}

	slog.Debug("Type registered",
		slog.String("name", reg.ShortName),
		slog.String("path", reg.TypePath),
	)

	return reg
}

// Lookup resolves a type by its short name.
func (r *TypeRegistry) Lookup(shortName string) (*TypeRegistration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if paths, ok := r.ambiguous[shortName]; ok {
		return nil, fmt.Errorf("%q could be any of %s: %w", shortName, strings.Join(paths, ", "), ErrAmbiguous)
	}

	reg, ok := r.byShort[shortName]
	if !ok {
		return nil, fmt.Errorf("%q: %w", shortName, ErrNotFound)
	}

	return reg, nil
}

// GetWithTypePath resolves a type by its full path.
func (r *TypeRegistry) GetWithTypePath(typePath string) (*TypeRegistration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.byPath[typePath]
	return reg, ok
}

// Registrations returns all registrations ordered by their type path.
func (r *TypeRegistry) Registrations() []*TypeRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := slices.Sorted(maps.Keys(r.byPath))

	regs := make([]*TypeRegistration, 0, len(paths))
	for _, path := range paths {
		regs = append(regs, r.byPath[path])
	}

	return regs
}

func shortNameOf(ty reflect.Type) string {
	return ty.Name()
}

func typePathOf(ty reflect.Type) string {
	if ty.PkgPath() == "" {
		return ty.Name()
	}

	return ty.PkgPath() + "." + ty.Name()
}
