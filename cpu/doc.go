// Package cpu implements the CHIP-8 interpreter core and its assembler.
//
// The machine has 4096 bytes of memory, with the hexadecimal digit font at
// 0x000 and programs loaded at 0x200, sixteen 8-bit registers (v0-vf, with vf
// used as the carry, borrow and collision flag), a 16-bit index register, a
// sixteen entry call stack, delay and sound timers, a 16 key keypad and a
// 64x32 monochrome display.
//
// Instructions are 16-bit big-endian words. Decode maps every word to exactly
// one Op, with undefined words mapping to OP_INVALID. Cpu.Execute applies the
// state transition of a single word, and either completes or fails without
// modifying the machine.
//
// The assembler provides a small assembly language for the CHIP-8 instruction
// set, supporting labels, equates, macros, data directives and compile-time
// expression evaluation.
package cpu
