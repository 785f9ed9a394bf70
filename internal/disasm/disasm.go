// Package disasm decodes ARM64 code regions into resource instructions.
package disasm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/arch/arm64/arm64asm"
	"osiaddr/internal/model"
)

// Inst is a decoded ARM64 instruction with address and raw bytes.
type Inst struct {
	Addr     uint64
	Raw      uint32
	Size     int // always 4 for ARM64
	Mnemonic string
	Operands []string
	Text     string // full disassembly line
}

// Options controls disassembly behavior.
type Options struct {
	BaseAddr uint64 // VA of the first byte in Data
	MaxSteps int    // maximum instructions to decode; 0 = 10M
}

const defaultMaxSteps = 10_000_000

func (o Options) effectiveMax() int {
	if o.MaxSteps > 0 {
		return o.MaxSteps
	}
	return defaultMaxSteps
}

// Disassemble decodes ARM64 instructions from a byte region.
// Returns decoded instructions up to MaxSteps or end of data; a trailing
// partial word is dropped. Undecodable words become ".word" pseudo-ops.
func Disassemble(data []byte, opts Options) []Inst {
	maxSteps := opts.effectiveMax()
	n := len(data) / 4
	if n > maxSteps {
		n = maxSteps
	}

	result := make([]Inst, 0, n)
	for i := 0; i < n; i++ {
		off := i * 4
		raw := binary.LittleEndian.Uint32(data[off : off+4])

		var mnemonic, text string
		var operands []string
		inst, err := arm64asm.Decode(data[off : off+4])
		if err != nil {
			mnemonic = ".word"
			operands = []string{fmt.Sprintf("0x%08x", raw)}
			text = fmt.Sprintf(".word 0x%08x", raw)
		} else {
			text = inst.String()
			parts := strings.SplitN(text, " ", 2)
			mnemonic = parts[0]
			if len(parts) > 1 {
				operands = splitOperands(parts[1])
			}
		}

		result = append(result, Inst{
			Addr:     opts.BaseAddr + uint64(off),
			Raw:      raw,
			Size:     4,
			Mnemonic: mnemonic,
			Operands: operands,
			Text:     text,
		})
	}
	return result
}

// Instruction converts the decoded instruction to the resource model.
func (i Inst) Instruction() model.Instruction {
	ops := make([]model.Operand, len(i.Operands))
	for k, s := range i.Operands {
		ops[k] = model.Text(s)
	}
	return model.Instruction{Size: i.Size, Name: i.Mnemonic, Operands: ops}
}

// splitOperands splits an operand list on commas that are not nested inside
// a memory operand "[...]" or register list "{...}".
func splitOperands(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '{':
			depth++
		case ']', '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}
