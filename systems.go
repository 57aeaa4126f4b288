package byke

import (
	"reflect"

	"github.com/oliverbestmann/bykeblend/internal/set"
)

type SystemId uint64

// AnySystem is a function whose parameters can be injected by the World,
// or a value produced by System or SystemChain.
type AnySystem any

type AsSystemConfigs interface {
	AsSystemConfigs() []SystemConfig
}

func asSystemConfig(value AnySystem) SystemConfig {
	switch value := value.(type) {
	case SystemConfig:
		return value

	default:
		return SystemConfig{
			Id: systemIdOf(value),
			fn: reflect.ValueOf(value),
		}
	}
}

func asSystemConfigs(values ...AnySystem) []SystemConfig {
	var configs []SystemConfig

	for _, value := range values {
		switch value := value.(type) {
		case []SystemConfig:
			configs = append(configs, value...)

		case AsSystemConfigs:
			configs = append(configs, value.AsSystemConfigs()...)

		default:
			configs = append(configs, asSystemConfig(value))
		}
	}

	return configs
}

func System(systems ...AnySystem) Systems {
	return Systems{
		systems: systems,
	}
}

// systemIdOf derives the id from the code pointer of the function.
// All closures created from the same function literal share one id.
func systemIdOf(system any) SystemId {
	fn := reflect.ValueOf(system)
	if fn.Kind() != reflect.Func {
		panic("system is not a function")
	}

	return SystemId(uintptr(fn.UnsafePointer()))
}

func SystemChain(systems ...AnySystem) AnySystem {
	allSystems := asSystemConfigs(systems...)

	for idx := 0; idx < len(allSystems)-1; idx++ {
		allSystems[idx].before.Insert(allSystems[idx+1].Id)
	}

	return allSystems
}

type SystemConfig struct {
	Id SystemId

	// the actual fn, must be a function
	fn         reflect.Value
	before     set.Set[SystemId]
	after      set.Set[SystemId]
	predicates []AnySystem
}

type Systems struct {
	systems []AnySystem

	after      set.Set[SystemId]
	before     set.Set[SystemId]
	predicates []AnySystem
	chain      bool
}

func (s Systems) AsSystemConfigs() []SystemConfig {
	var systems []SystemConfig
	if s.chain {
		systems = asSystemConfigs(SystemChain(s.systems...))
	} else {
		systems = asSystemConfigs(s.systems...)
	}

	for idx := range systems {
		system := &systems[idx]

		// copy the sets, they might be shared with the source config
		system.after = set.FromValues(system.after.Values())
		system.after.InsertAll(s.after.Values())

		system.before = set.FromValues(system.before.Values())
		system.before.InsertAll(s.before.Values())

		system.predicates = append(append([]AnySystem{}, system.predicates...), s.predicates...)
	}

	return systems
}

func (s Systems) After(other AnySystem) Systems {
	s.after = set.FromValues(s.after.Values())

	for _, system := range asSystemConfigs(other) {
		s.after.Insert(system.Id)
	}

	return s
}

func (s Systems) Before(other AnySystem) Systems {
	s.before = set.FromValues(s.before.Values())

	for _, system := range asSystemConfigs(other) {
		s.before.Insert(system.Id)
	}

	return s
}

// Chain runs the systems in the order they were given.
func (s Systems) Chain() Systems {
	s.chain = true
	return s
}

// RunIf adds a predicate to the systems. The predicate is a system itself
// and must return a bool. The systems only run if all predicates return true.
func (s Systems) RunIf(predicate AnySystem) Systems {
	s.predicates = append(append([]AnySystem{}, s.predicates...), predicate)
	return s
}
