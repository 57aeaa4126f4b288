package set

import (
	"iter"
	"slices"
)

// Set is a set of comparable values that remembers insertion order.
// The zero value is an empty set ready to use.
type Set[T comparable] struct {
	values map[T]struct{}
	order  []T
}

func FromValues[T comparable](values iter.Seq[T]) Set[T] {
	var s Set[T]
	s.InsertAll(values)
	return s
}

func (s *Set[T]) Insert(value T) bool {
	if s.values == nil {
		s.values = make(map[T]struct{})
	}

	if _, exists := s.values[value]; exists {
		return false
	}

	s.values[value] = struct{}{}
	s.order = append(s.order, value)
	return true
}

func (s *Set[T]) InsertAll(values iter.Seq[T]) {
	for value := range values {
		s.Insert(value)
	}
}

func (s *Set[T]) Remove(value T) {
	if _, exists := s.values[value]; !exists {
		return
	}

	delete(s.values, value)

	idx := slices.Index(s.order, value)
	s.order = slices.Delete(s.order, idx, idx+1)
}

func (s *Set[T]) Has(value T) bool {
	_, exists := s.values[value]
	return exists
}

// Values iterates the values in insertion order.
func (s *Set[T]) Values() iter.Seq[T] {
	return slices.Values(s.order)
}

func (s *Set[T]) Len() int {
	return len(s.values)
}
