// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/internal"
)

const (
	MACRO_DEPTH_LIMIT = 16 // Maximum nesting of macro expansions.
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// sysEquate returns the predefined system equates.
func sysEquate() (equate map[string]string) {
	equate = maps.Collect(internal.MergeDefines(
		maps.All(_cpu_defines),
		display.NewDisplay().Defines(),
	))
	equate["LINENO"] = "0"
	return
}

// Assembler is a single pass macro assembler for CHIP-8 programs.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]uint16   // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	expansions int // Count of macro expansions, for local label mangling.
	depth      int // Current macro expansion depth.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// argKind is the kind of a single instruction operand.
type argKind int

const (
	argReg    argKind = iota // vX
	argValue                 // number or label
	argV0                    // v0, only
	argByte                  // -128 .. 255
	argNibble                // 0 .. 15
	argAddr                  // 0 .. 0xfff, or a label
	argI                     // i
	argDT                    // dt
	argST                    // st
	argK                     // k
	argF                     // f
	argB                     // b
	argMem                   // [i]
)

// keywordMap maps reserved operand names.
var keywordMap = map[string]argKind{
	"i":   argI,
	"dt":  argDT,
	"st":  argST,
	"k":   argK,
	"f":   argF,
	"b":   argB,
	"[i]": argMem,
}

// accepts returns true if the operand can fill this operand kind.
func (kind argKind) accepts(opnd operand) bool {
	switch kind {
	case argV0:
		return opnd.kind == argReg && opnd.value == 0
	case argByte, argNibble:
		return opnd.kind == argValue && len(opnd.label) == 0
	case argAddr:
		return opnd.kind == argValue
	default:
		return opnd.kind == kind
	}
}

// operand is a classified source word.
type operand struct {
	kind  argKind
	value int64
	label string
}

// opSyntax is one operand form of a mnemonic.
type opSyntax struct {
	op   Op
	args []argKind
}

var (
	argsNone      = []argKind{}
	argsReg       = []argKind{argReg}
	argsRegReg    = []argKind{argReg, argReg}
	argsRegByte   = []argKind{argReg, argByte}
	argsAddr      = []argKind{argAddr}
	argsRegRegNib = []argKind{argReg, argReg, argNibble}
)

// syntaxMap maps mnemonics to their operand forms.
var syntaxMap = map[string][]opSyntax{
	"cls":  {{OP_CLS, argsNone}},
	"ret":  {{OP_RET, argsNone}},
	"jp":   {{OP_JP, argsAddr}, {OP_JP_V0, []argKind{argV0, argAddr}}},
	"call": {{OP_CALL, argsAddr}},
	"se":   {{OP_SE_REG, argsRegReg}, {OP_SE_IMM, argsRegByte}},
	"sne":  {{OP_SNE_REG, argsRegReg}, {OP_SNE_IMM, argsRegByte}},
	"ld": {
		{OP_LD_REG, argsRegReg},
		{OP_LD_IMM, argsRegByte},
		{OP_LD_I, []argKind{argI, argAddr}},
		{OP_LD_VX_DT, []argKind{argReg, argDT}},
		{OP_LD_VX_K, []argKind{argReg, argK}},
		{OP_LD_DT_VX, []argKind{argDT, argReg}},
		{OP_LD_ST_VX, []argKind{argST, argReg}},
		{OP_LD_F, []argKind{argF, argReg}},
		{OP_LD_B, []argKind{argB, argReg}},
		{OP_LD_MEM_VX, []argKind{argMem, argReg}},
		{OP_LD_VX_MEM, []argKind{argReg, argMem}},
	},
	"add":  {{OP_ADD_REG, argsRegReg}, {OP_ADD_IMM, argsRegByte}, {OP_ADD_I, []argKind{argI, argReg}}},
	"or":   {{OP_OR, argsRegReg}},
	"and":  {{OP_AND, argsRegReg}},
	"xor":  {{OP_XOR, argsRegReg}},
	"sub":  {{OP_SUB, argsRegReg}},
	"shr":  {{OP_SHR, argsReg}, {OP_SHR, argsRegReg}},
	"subn": {{OP_SUBN, argsRegReg}},
	"shl":  {{OP_SHL, argsReg}, {OP_SHL, argsRegReg}},
	"rnd":  {{OP_RND, argsRegByte}},
	"drw":  {{OP_DRW, argsRegRegNib}},
	"skp":  {{OP_SKP, argsReg}},
	"sknp": {{OP_SKNP, argsReg}},
}

var (
	reCharacter  = regexp.MustCompile(`'\\?[^']'`)
	reExpression = regexp.MustCompile(`\$\([^\$]*\)`)
	reLabel      = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)
)

// splitWords splits a line on spaces, tabs and commas.
func splitWords(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
}

// registerOf returns the register index of a `vX` word.
func registerOf(word string) (reg uint8, ok bool) {
	if len(word) != 2 || (word[0] != 'v' && word[0] != 'V') {
		return
	}
	value, err := strconv.ParseUint(word[1:], 16, 4)
	if err != nil {
		return
	}

	return uint8(value), true
}

// isReserved returns true for register and keyword names.
func isReserved(word string) bool {
	lower := strings.ToLower(word)
	_, is_keyword := keywordMap[lower]
	_, is_reg := registerOf(lower)
	return is_keyword || is_reg
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	if word[0] == '\'' && len(word) > 2 {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(word[1 : len(word)-1])
		return
	}
	value, err = strconv.ParseInt(word, 0, 64)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	return
}

// operandOf classifies an operand word.
func (asm *Assembler) operandOf(word string) (opnd operand, err error) {
	lower := strings.ToLower(word)

	kind, ok := keywordMap[lower]
	if ok {
		opnd.kind = kind
		return
	}

	reg, ok := registerOf(lower)
	if ok {
		opnd.kind = argReg
		opnd.value = int64(reg)
		return
	}

	opnd.kind = argValue
	if reLabel.MatchString(word) {
		opnd.label = word
		return
	}

	opnd.value, err = asm.valueOf(word)

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for label, addr := range asm.Label {
		pred[label] = starlark.MakeInt(int(addr))
	}
	for key, str := range asm.Equate {
		var value64 int64
		value64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(value64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// parseLine parses a single line into words, handling equates, labels
// and macro expansion.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reExpression.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return strconv.FormatInt(value, 10)
	})
	if err != nil {
		return
	}

	words = splitWords(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		if !reLabel.MatchString(label) || isReserved(label) {
			err = ErrLabelInvalid
			return
		}
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]uint16, 16)
		}
		asm.Label[label] = asm.currentAddr()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		if asm.depth >= MACRO_DEPTH_LIMIT {
			err = ErrMacroNesting
			return
		}

		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		asm.depth++
		defer func() {
			asm.Equate = old_equate
			asm.depth--
		}()

		asm.expansions++
		local := fmt.Sprintf("%v_%v_", name, asm.expansions)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddr gets the current address
func (asm *Assembler) currentAddr() uint16 {
	if len(asm.Opcode) == 0 {
		return PROGRAM_START
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Addr + uint16(len(last.Bytes))
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = sysEquate()
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}
	asm.expansions = 0
	asm.depth = 0

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := splitWords(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		for _, link := range op.Links {
			addr, ok := asm.Label[link.Label]
			if !ok {
				lineno = op.LineNo
				line = strings.Join(op.Words, " ")
				err = ErrLabelMissing(link.Label)
				return
			}
			if addr > 0xfff {
				lineno = op.LineNo
				line = strings.Join(op.Words, " ")
				err = ErrValueRange
				return
			}
			op.Bytes[link.Offset] |= byte(addr>>8) & 0xf
			op.Bytes[link.Offset+1] |= byte(addr)
		}
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// dataBytes encodes the arguments of `db`.
func (asm *Assembler) dataBytes(words []string) (data []byte, err error) {
	if len(words) == 0 {
		err = ErrOpcodeValueMissing
		return
	}

	for _, word := range words {
		var value int64
		value, err = asm.valueOf(word)
		if err != nil {
			return
		}
		if value < -0x80 || value > 0xff {
			err = ErrValueRange
			return
		}
		data = append(data, byte(value))
	}

	return
}

// dataWords encodes the arguments of `dw`. Labels are linked later.
func (asm *Assembler) dataWords(words []string) (data []byte, links []Link, err error) {
	if len(words) == 0 {
		err = ErrOpcodeValueMissing
		return
	}

	for _, word := range words {
		var opnd operand
		opnd, err = asm.operandOf(word)
		if err != nil {
			return
		}
		if opnd.kind != argValue {
			err = ErrOperandInvalid
			return
		}
		if len(opnd.label) != 0 {
			links = append(links, Link{Offset: len(data), Label: opnd.label})
		} else if opnd.value < -0x8000 || opnd.value > 0xffff {
			err = ErrValueRange
			return
		}
		data = append(data, byte(opnd.value>>8), byte(opnd.value))
	}

	return
}

// alignBytes returns the padding needed by `.align [N]`.
func (asm *Assembler) alignBytes(addr uint16, words []string) (data []byte, err error) {
	if len(words) > 1 {
		err = ErrOpcodeExtraArgs
		return
	}

	align := int64(CODE_SIZE)
	if len(words) == 1 {
		align, err = asm.valueOf(words[0])
		if err != nil {
			return
		}
		if align < 1 || align > MEMORY_SIZE {
			err = ErrValueRange
			return
		}
	}

	pad := (align - int64(addr)%align) % align
	data = make([]byte, pad)

	return
}

// instruction encodes a single instruction. If an address operand is a
// label, it is returned for later linking.
func (asm *Assembler) instruction(mnemonic string, words []string) (code Code, label string, err error) {
	forms, ok := syntaxMap[mnemonic]
	if !ok {
		err = ErrInstructionInvalid
		return
	}

	operands := make([]operand, len(words))
	for n, word := range words {
		operands[n], err = asm.operandOf(word)
		if err != nil {
			return
		}
	}

	min_args := len(forms[0].args)
	max_args := min_args
	for _, form := range forms {
		min_args = min(min_args, len(form.args))
		max_args = max(max_args, len(form.args))

		if len(form.args) != len(operands) {
			continue
		}
		matched := true
		for n, kind := range form.args {
			if !kind.accepts(operands[n]) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}

		var args []uint16
		for n, kind := range form.args {
			opnd := operands[n]
			switch kind {
			case argReg:
				args = append(args, uint16(opnd.value))
			case argByte:
				if opnd.value < -0x80 || opnd.value > 0xff {
					err = ErrValueRange
					return
				}
				args = append(args, uint16(uint8(opnd.value)))
			case argNibble:
				if opnd.value < 0 || opnd.value > 0xf {
					err = ErrValueRange
					return
				}
				args = append(args, uint16(opnd.value))
			case argAddr:
				if len(opnd.label) != 0 {
					label = opnd.label
					args = append(args, 0)
					continue
				}
				if opnd.value < 0 || opnd.value > 0xfff {
					err = ErrValueRange
					return
				}
				args = append(args, uint16(opnd.value))
			}
		}

		code = MakeCode(form.op, args...)
		return
	}

	switch {
	case len(operands) > max_args:
		err = ErrOpcodeExtraArgs
	case len(operands) < min_args:
		err = ErrOpcodeValueMissing
	default:
		err = ErrOperandInvalid
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	op := Opcode{
		LineNo: lineno,
		Addr:   asm.currentAddr(),
		Words:  slices.Clone(words),
	}

	mnemonic := strings.ToLower(words[0])
	switch mnemonic {
	case "db":
		op.Data = true
		op.Bytes, err = asm.dataBytes(words[1:])
	case "dw":
		op.Data = true
		op.Bytes, op.Links, err = asm.dataWords(words[1:])
	case ".align":
		op.Data = true
		op.Bytes, err = asm.alignBytes(op.Addr, words[1:])
	default:
		if (op.Addr & 1) != 0 {
			err = ErrCodeAlign
			return
		}
		var code Code
		var label string
		code, label, err = asm.instruction(mnemonic, words[1:])
		op.Bytes = []byte{byte(code >> 8), byte(code)}
		if len(label) != 0 {
			op.Links = []Link{{Offset: 0, Label: label}}
		}
	}
	if err != nil {
		return
	}

	if len(op.Bytes) == 0 {
		return
	}

	if int(op.Addr)+len(op.Bytes) > MEMORY_SIZE {
		err = ErrProgramOverflow
		return
	}

	if asm.Verbose {
		log.Printf("%03x: % x", op.Addr, op.Bytes)
	}

	asm.Opcode = append(asm.Opcode, op)

	return
}
