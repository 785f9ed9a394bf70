package model

import (
	"strconv"
	"strings"
)

// Operand is one instruction argument. Every operand renders itself.
type Operand interface {
	String() string
}

// Int is an integer immediate.
type Int int64

func (v Int) String() string { return strconv.FormatInt(int64(v), 10) }

// Uint is an unsigned immediate too large for Int.
type Uint uint64

func (v Uint) String() string { return strconv.FormatUint(uint64(v), 10) }

// Float is a floating point immediate. Integral values keep a ".0" suffix so
// they never render like an Int.
type Float float64

func (v Float) String() string {
	s := strconv.FormatFloat(float64(v), 'g', -1, 64)
	if strings.ContainsAny(s, ".eIN") {
		return s
	}
	return s + ".0"
}

// String is a string literal, rendered Go-quoted.
type String string

func (v String) String() string { return strconv.Quote(string(v)) }

// Bool is a boolean immediate.
type Bool bool

func (v Bool) String() string { return strconv.FormatBool(bool(v)) }

// Text is an operand already rendered by a decoder (registers, addressing modes).
type Text string

func (v Text) String() string { return string(v) }
