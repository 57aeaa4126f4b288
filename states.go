package byke

import (
	"log/slog"
	"reflect"
)

type StateType[S comparable] struct {
	InitialValue S
}

func (r StateType[S]) configureStateIn(app *App) {
	app.InsertResource(State[S]{current: r.InitialValue})
	app.InsertResource(NextState[S]{})

	app.AddSystems(StateTransition, performStateTransition[S])
}

type stateChangedScheduleId[S comparable] struct {
	stateType reflect.Type
	value     S

	enter  bool
	exit   bool
	change bool
}

func (stateChangedScheduleId[S]) isSchedule() {}

func (s stateChangedScheduleId[S]) String() string {
	switch {
	case s.enter:
		return "OnEnter(" + s.stateType.String() + ")"
	case s.exit:
		return "OnExit(" + s.stateType.String() + ")"
	default:
		return "OnChange(" + s.stateType.String() + ")"
	}
}

func OnEnter[S comparable](stateValue S) ScheduleId {
	return stateChangedScheduleId[S]{
		stateType: reflect.TypeFor[S](),
		value:     stateValue,
		enter:     true,
	}
}

func OnExit[S comparable](stateValue S) ScheduleId {
	return stateChangedScheduleId[S]{
		stateType: reflect.TypeFor[S](),
		value:     stateValue,
		exit:      true,
	}
}

func OnChange[S comparable]() ScheduleId {
	return stateChangedScheduleId[S]{
		stateType: reflect.TypeFor[S](),
		change:    true,
	}
}

type State[S comparable] struct {
	current     S
	initialized bool
}

func (s State[S]) Current() S {
	return s.current
}

// NextState holds a pending transition that is applied in
// the StateTransition schedule.
type NextState[S comparable] struct {
	isSet bool
	next  S
}

func (n *NextState[S]) Set(nextState S) {
	n.isSet = true
	n.next = nextState
}

func (n *NextState[S]) Clear() {
	var zeroState S

	n.isSet = false
	n.next = zeroState
}

// Pending returns the requested next state, if any.
func (n NextState[S]) Pending() (S, bool) {
	return n.next, n.isSet
}

func performStateTransition[S comparable](world *World, state *State[S], nextState *NextState[S]) {
	if !state.initialized {
		// we need to run the OnEnter schedule once
		state.initialized = true
		world.RunSchedule(OnEnter(state.current))
		return
	}

	if !nextState.isSet {
		return
	}

	if nextState.next == state.current {
		nextState.Clear()
		return
	}

	// keep the previous state value so we can trigger OnExit
	previousState := state.current

	// update the state resources
	state.current = nextState.next
	nextState.Clear()

	slog.Debug("State transition",
		slog.Any("from", previousState),
		slog.Any("to", state.current),
	)

	// run the OnExit / OnEnter schedules
	world.RunSchedule(OnChange[S]())
	world.RunSchedule(OnExit(previousState))
	world.RunSchedule(OnEnter(state.current))
}
