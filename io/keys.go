package io

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	KEY_COUNT = 16 // Keys on the hexadecimal keypad.
)

// Keys is the key-down state of the keypad, indexed by key number.
type Keys [KEY_COUNT]bool

// Pressed returns the lowest numbered key that is down now, but was up in
// prev.
func (keys Keys) Pressed(prev Keys) (key uint8, ok bool) {
	for n, down := range keys {
		if down && !prev[n] {
			return uint8(n), true
		}
	}

	return
}

// String lists the keys that are down.
func (keys Keys) String() string {
	var down []string
	for n, is_down := range keys {
		if is_down {
			down = append(down, fmt.Sprintf("%X", n))
		}
	}

	if len(down) == 0 {
		return "-"
	}

	return strings.Join(down, " ")
}

// KeyMap maps the left hand block of a QWERTY keyboard to the keypad:
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
var KeyMap = map[rune]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xc,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xd,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xe,
	'z': 0xa, 'x': 0x0, 'c': 0xb, 'v': 0xf,
}

// KeyOf returns the keypad key for a keyboard character.
func KeyOf(r rune) (key uint8, ok bool) {
	key, ok = KeyMap[unicode.ToLower(r)]
	return
}
