package set

import (
	"slices"

	"golang.org/x/exp/constraints"
)

// Set is a thread-unsafe set that remembers insertion order, so that lockfile
// sources are reported in the order they were declared.
type Set[T comparable] struct {
	index map[T]int
	items *[]T
}

func New[T comparable](elems ...T) Set[T] {
	s := Set[T]{
		index: make(map[T]int),
		items: new([]T),
	}
	s.Append(elems...)
	return s
}

// Append inserts the elements that are not yet present and returns how many
// were added.
func (s Set[T]) Append(elems ...T) int {
	var added int
	for _, elem := range elems {
		if _, ok := s.index[elem]; ok {
			continue
		}
		s.index[elem] = len(*s.items)
		*s.items = append(*s.items, elem)
		added++
	}
	return added
}

func (s Set[T]) Remove(elem T) bool {
	i, ok := s.index[elem]
	if !ok {
		return false
	}
	delete(s.index, elem)
	*s.items = slices.Delete(*s.items, i, i+1)
	for j := i; j < len(*s.items); j++ {
		s.index[(*s.items)[j]] = j
	}
	return true
}

func (s Set[T]) Contains(elem T) bool {
	_, ok := s.index[elem]
	return ok
}

func (s Set[T]) Len() int {
	return len(s.index)
}

// Values returns a copy of the elements in insertion order.
func (s Set[T]) Values() []T {
	return slices.Clone(*s.items)
}

// Ordered is a set whose Values are sorted.
type Ordered[T constraints.Ordered] struct {
	Set[T]
}

func NewOrdered[T constraints.Ordered](elems ...T) Ordered[T] {
	return Ordered[T]{
		Set: New(elems...),
	}
}

func (s Ordered[T]) Values() []T {
	v := s.Set.Values()
	slices.Sort(v)
	return v
}
