package cpu

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack_Push(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	assert.True(s.Empty())
	assert.False(s.Full())

	assert.True(s.Push(0x234))
	assert.False(s.Empty())
	assert.Equal(1, s.Depth)
	assert.Equal(uint16(0x234), s.Data[0])
}

func TestStack_Pop(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	s.Push(0x202)
	s.Push(0x40e)

	val, ok := s.Pop()
	assert.True(ok)
	assert.Equal(uint16(0x40e), val)
	assert.Equal(1, s.Depth)

	val, ok = s.Pop()
	assert.True(ok)
	assert.Equal(uint16(0x202), val)
	assert.Equal(0, s.Depth)
}

func TestStack_Pop_Empty(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	val, ok := s.Pop()
	assert.False(ok)
	assert.Equal(uint16(0), val)
	assert.Equal(0, s.Depth)
}

func TestStack_Peek(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	_, ok := s.Peek()
	assert.False(ok)

	s.Push(0x202)
	s.Push(0x40e)

	val, ok := s.Peek()
	assert.True(ok)
	assert.Equal(uint16(0x40e), val)
	assert.Equal(2, s.Depth)
}

func TestStack_Full(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}

	for i := range STACK_LIMIT {
		assert.False(s.Full())
		assert.True(s.Push(uint16(i)))
	}

	assert.True(s.Full())
	assert.False(s.Push(0xfff))
	assert.Equal(STACK_LIMIT, s.Depth)

	val, ok := s.Peek()
	assert.True(ok)
	assert.Equal(uint16(STACK_LIMIT-1), val)
}

func TestStack_All(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	assert.Empty(slices.Collect(s.All()))

	s.Push(1)
	s.Push(2)
	s.Push(3)
	assert.Equal([]uint16{1, 2, 3}, slices.Collect(s.All()))
}

func TestStack_Reset(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	s.Push(0x202)
	s.Push(0x40e)

	s.Reset()
	assert.True(s.Empty())
	assert.Equal(Stack{}, *s)
}
