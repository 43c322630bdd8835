package io

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys_Pressed(t *testing.T) {
	assert := assert.New(t)

	var prev, keys Keys

	_, ok := keys.Pressed(prev)
	assert.False(ok)

	keys[0xa] = true
	keys[0x3] = true
	key, ok := keys.Pressed(prev)
	assert.True(ok)
	assert.Equal(uint8(0x3), key)

	// Held keys are not new presses.
	prev = keys
	_, ok = keys.Pressed(prev)
	assert.False(ok)

	keys[0x3] = false
	keys[0xf] = true
	key, ok = keys.Pressed(prev)
	assert.True(ok)
	assert.Equal(uint8(0xf), key)
}

func TestKeys_String(t *testing.T) {
	assert := assert.New(t)

	var keys Keys
	assert.Equal("-", keys.String())

	keys[0] = true
	keys[0xb] = true
	assert.Equal("0 B", keys.String())
}

func TestKeyOf(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		r   rune
		key uint8
	}{
		{'1', 0x1}, {'2', 0x2}, {'3', 0x3}, {'4', 0xc},
		{'q', 0x4}, {'w', 0x5}, {'e', 0x6}, {'r', 0xd},
		{'a', 0x7}, {'s', 0x8}, {'d', 0x9}, {'f', 0xe},
		{'z', 0xa}, {'x', 0x0}, {'c', 0xb}, {'v', 0xf},
		{'Q', 0x4}, {'V', 0xf},
	}

	for _, entry := range table {
		key, ok := KeyOf(entry.r)
		assert.True(ok, "%c", entry.r)
		assert.Equal(entry.key, key, "%c", entry.r)
	}

	_, ok := KeyOf('p')
	assert.False(ok)

	seen := map[uint8]bool{}
	for _, key := range KeyMap {
		seen[key] = true
	}
	assert.Equal(KEY_COUNT, len(seen))
}
