package cpu

import (
	"iter"
)

const (
	STACK_LIMIT = 16 // Maximum stack depth
)

// Stack of return addresses.
type Stack struct {
	Data  [STACK_LIMIT]uint16
	Depth int
}

// Push a value. Returns false, leaving the stack unchanged, if it is full.
func (s *Stack) Push(value uint16) (ok bool) {
	if s.Full() {
		return
	}

	s.Data[s.Depth] = value
	s.Depth++

	return true
}

// Pop a value. Returns false if the stack is empty.
func (s *Stack) Pop() (value uint16, ok bool) {
	value, ok = s.Peek()
	if ok {
		s.Depth--
	}
	return
}

func (s *Stack) Empty() bool {
	return s.Depth == 0
}

func (s *Stack) Full() bool {
	return s.Depth == STACK_LIMIT
}

func (s *Stack) Peek() (value uint16, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[s.Depth-1], true
}

// All iterates from the bottom of the stack to the top.
func (s *Stack) All() iter.Seq[uint16] {
	return func(yield func(uint16) bool) {
		for _, value := range s.Data[:s.Depth] {
			if !yield(value) {
				return
			}
		}
	}
}

func (s *Stack) Reset() {
	s.Data = [STACK_LIMIT]uint16{}
	s.Depth = 0
}
