package io

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	// Rom errors
	ErrRomTooLarge = errors.New(f("rom too large"))

	// Frontend errors
	ErrNotTerminal = errors.New(f("not a terminal"))
	ErrKeyInvalid  = errors.New(f("key invalid"))
)
