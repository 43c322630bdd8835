package io

import (
	"io"
	"io/fs"
	"log"

	"github.com/ezrec/chip8/cpu"
)

const (
	ROM_LIMIT = cpu.PROGRAM_LIMIT // Maximum ROM size, in bytes.
)

// Rom is a program image, loaded at cpu.PROGRAM_START.
type Rom struct {
	Verbose bool
	Data    []byte
}

// Load reads the ROM image from a reader.
// Images larger than ROM_LIMIT are rejected with ErrRomTooLarge.
func (rom *Rom) Load(input io.Reader) (err error) {
	data, err := io.ReadAll(io.LimitReader(input, ROM_LIMIT+1))
	if err != nil {
		return
	}

	if len(data) > ROM_LIMIT {
		err = ErrRomTooLarge
		return
	}

	if rom.Verbose {
		log.Printf("rom: loaded %d bytes", len(data))
	}

	rom.Data = data

	return
}

// LoadFile reads the ROM image from a file.
func (rom *Rom) LoadFile(fsys fs.FS, name string) (err error) {
	inf, err := fsys.Open(name)
	if err != nil {
		return
	}
	defer inf.Close()

	err = rom.Load(inf)

	return
}

// Save writes the ROM image.
func (rom *Rom) Save(output io.Writer) (err error) {
	_, err = output.Write(rom.Data)
	return
}

// SaveFile writes the ROM image to a file.
func (rom *Rom) SaveFile(cfs CreateFS, name string) (err error) {
	ouf, err := cfs.Create(name)
	if err != nil {
		return
	}

	err = rom.Save(ouf)
	if err != nil {
		ouf.Close()
		return
	}

	err = ouf.Close()

	return
}
