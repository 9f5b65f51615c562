package core

import (
	"math"

	"github.com/tdewolff/parse/v2/strconv"

	"github.com/tsawler/pdfsyntax/pdferr"
)

type numberKind int

const (
	notNumber numberKind = iota
	integerNumber
	realNumber
)

// integer grammar states
const (
	intStart  = iota // looking for a sign or digits
	intSigned        // saw a sign
	intDigits        // saw digits
)

// recogniseNumber classifies a keyword run. Integers that overflow int32
// are reported as reals.
func recogniseNumber(b []byte) (numberKind, int32) {
	value, state, n, overflow := parseInteger(b)
	if n < len(b) {
		if validReal(b[n:], state) {
			return realNumber, 0
		}
		return notNumber, 0
	}
	if state != intDigits {
		return notNumber, 0
	}
	if overflow {
		return realNumber, 0
	}
	return integerNumber, value
}

// parseInteger reads an optional sign followed by digits from the start of
// b. It returns the value, the grammar state reached, the number of bytes
// consumed and whether the value overflowed.
func parseInteger(b []byte) (value int32, state, n int, overflow bool) {
	neg := false
	var acc int32
	for ; n < len(b); n++ {
		c := b[n]
		if c == '+' || c == '-' {
			if state != intStart {
				return acc, state, n, overflow
			}
			state = intSigned
			neg = c == '-'
			continue
		}
		if c < '0' || c > '9' {
			return acc, state, n, overflow
		}

		state = intDigits
		if overflow {
			continue
		}
		d := int32(c - '0')
		if neg {
			if acc < math.MinInt32/10 || (acc == math.MinInt32/10 && -d < math.MinInt32%10) {
				overflow = true
				continue
			}
			acc = acc*10 - d
		} else {
			if acc > math.MaxInt32/10 || (acc == math.MaxInt32/10 && d > math.MaxInt32%10) {
				overflow = true
				continue
			}
			acc = acc*10 + d
		}
	}
	return acc, state, n, overflow
}

// validReal checks the remainder of a run after parseInteger stopped: only
// digits and at most one '.' may follow, and at least one digit must
// appear somewhere in the number. A sign is never valid here since
// parseInteger consumes a leading one.
func validReal(rest []byte, state int) bool {
	point := false
	for _, c := range rest {
		switch {
		case c == '.':
			if point {
				return false
			}
			point = true
		case c >= '0' && c <= '9':
			state = intDigits
		default:
			return false
		}
	}
	return state == intDigits
}

// parseReal converts a run accepted by validReal. The conversion does not
// depend on the process locale.
func parseReal(b []byte, pos int64) (float32, error) {
	neg := false
	digits := b
	if len(digits) > 0 && (digits[0] == '+' || digits[0] == '-') {
		neg = digits[0] == '-'
		digits = digits[1:]
	}

	f, n := strconv.ParseFloat(digits)
	if n != len(digits) {
		return 0, pdferr.At(pdferr.ErrMalformed, "tokenize", pos, "invalid real number %q", b)
	}
	if neg {
		f = -f
	}

	r := float32(f)
	if math.IsInf(float64(r), 0) || math.IsNaN(float64(r)) {
		return 0, pdferr.At(pdferr.ErrImplLimit, "tokenize", pos, "real number %q out of range", b)
	}
	return r, nil
}
