package byke

import (
	"fmt"
	"reflect"
)

type preparedSystem struct {
	SystemConfig

	Predicates []*preparedSystem

	// RawSystem runs the system and returns its result, or nil if the
	// system does not return a value.
	RawSystem func() any
}

var systemParamType = reflect.TypeFor[SystemParam]()

func prepareSystem(w *World, config SystemConfig) *preparedSystem {
	rSystem := config.fn

	if rSystem.Kind() != reflect.Func {
		panic(fmt.Sprintf("not a function: %s", rSystem.Type()))
	}

	systemType := rSystem.Type()
	if systemType.NumOut() > 1 {
		panic(fmt.Sprintf("system must return at most one value: %s", systemType))
	}

	preparedSystem := &preparedSystem{SystemConfig: config}

	// predicates are prepared without the cache, they are usually closures
	for _, predicate := range config.predicates {
		preparedSystem.Predicates = append(preparedSystem.Predicates,
			prepareSystem(w, asSystemConfig(predicate)),
		)
	}

	// collect the state for each parameter of the system
	var params []SystemParamState

	for idx := range systemType.NumIn() {
		inType := systemType.In(idx)

		switch {
		case inType == reflect.TypeFor[*World]():
			params = append(params, valueSystemParamState(reflect.ValueOf(w)))

		case inType.Kind() == reflect.Pointer && inType.Implements(systemParamType):
			params = append(params, makeSystemParamState(w, inType))

		case reflect.PointerTo(inType).Implements(systemParamType):
			params = append(params, makeSystemParamState(w, inType))

		default:
			params = append(params, makeResourceSystemParamState(w, inType))
		}
	}

	// verify that all the param types match their actual types
	for idx, param := range params {
		inType := systemType.In(idx)
		if !param.valueType().AssignableTo(inType) {
			panic(fmt.Sprintf("Argument %d of %s is not assignable to param value of type %s", idx, systemType, inType))
		}
	}

	preparedSystem.RawSystem = func() any {
		paramValues := make([]reflect.Value, 0, len(params))

		for _, param := range params {
			paramValues = append(paramValues, param.getValue())
		}

		result := rSystem.Call(paramValues)

		for _, param := range params {
			param.cleanupValue()
		}

		if len(result) == 0 {
			return nil
		}

		return result[0].Interface()
	}

	return preparedSystem
}

func makeSystemParamState(world *World, ty reflect.Type) SystemParamState {
	for ty.Kind() == reflect.Pointer {
		ty = ty.Elem()
	}

	// allocate a new instance on the heap and get the value as an interface
	param := reflect.New(ty).Interface().(SystemParam)

	// initialize using the world
	return param.init(world)
}
