package byke

// InState returns a predicate that is true while the state S equals expectedState.
func InState[S comparable](expectedState S) AnySystem {
	return func(state State[S]) bool {
		return state.Current() == expectedState
	}
}

func ResourceExists[T any](res ResOption[T]) bool {
	return res.Value != nil
}
