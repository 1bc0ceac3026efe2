package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// unit multipliers for number literals
var unitScale = map[string]uint64{
	"":        1,
	"wei":     1,
	"gwei":    1_000_000_000,
	"ether":   1_000_000_000_000_000_000,
	"seconds": 1,
	"minutes": 60,
	"hours":   3600,
	"days":    86400,
	"weeks":   604800,
}

// ParseNumber evaluates a Solidity number literal, including hex, scientific
// notation, fractions that scale to an integer, and a trailing unit.
func ParseNumber(text, unit string) (*uint256.Int, error) {
	text = strings.ReplaceAll(text, "_", "")

	scale, ok := unitScale[unit]
	if !ok {
		return nil, fmt.Errorf("unknown unit %q", unit)
	}

	var value *uint256.Int
	var err error
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		digits := strings.TrimLeft(text[2:], "0")
		if digits == "" {
			digits = "0"
		}
		value, err = uint256.FromHex("0x" + digits)
		if err == nil {
			value, err = mulChecked(value, uint256.NewInt(scale))
		}
	} else {
		value, err = parseDecimal(text, scale)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid number literal %s: %w", text, err)
	}
	return value, nil
}

// parseDecimal handles 123, 1.5e3 and 2e18 multiplied by scale. The result
// must be integral.
func parseDecimal(text string, scale uint64) (*uint256.Int, error) {
	mantissa, exponent := text, 0
	if i := strings.IndexAny(text, "eE"); i >= 0 {
		exp, err := strconv.Atoi(text[i+1:])
		if err != nil {
			return nil, err
		}
		mantissa, exponent = text[:i], exp
	}

	intPart, frac := mantissa, ""
	if i := strings.IndexByte(mantissa, '.'); i >= 0 {
		intPart, frac = mantissa[:i], mantissa[i+1:]
	}
	digits := strings.TrimLeft(intPart+frac, "0")
	if digits == "" {
		return new(uint256.Int), nil
	}

	value, err := uint256.FromDecimal(digits)
	if err != nil {
		return nil, err
	}
	if value, err = mulChecked(value, uint256.NewInt(scale)); err != nil {
		return nil, err
	}

	shift := exponent - len(frac)
	if shift > 77 {
		return nil, fmt.Errorf("exponent out of range")
	}
	if shift < -77 {
		return nil, fmt.Errorf("not an integer")
	}
	ten := uint256.NewInt(10)
	if shift >= 0 {
		pow := new(uint256.Int).Exp(ten, uint256.NewInt(uint64(shift)))
		return mulChecked(value, pow)
	}
	pow := new(uint256.Int).Exp(ten, uint256.NewInt(uint64(-shift)))
	if !new(uint256.Int).Mod(value, pow).IsZero() {
		return nil, fmt.Errorf("not an integer")
	}
	return new(uint256.Int).Div(value, pow), nil
}

func mulChecked(a, b *uint256.Int) (*uint256.Int, error) {
	result, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, fmt.Errorf("does not fit in 256 bits")
	}
	return result, nil
}

// FitsInt reports whether v fits the given integer type. Negative values
// are checked by the caller through neg.
func FitsInt(v *uint256.Int, t *IntType, neg bool) bool {
	if !t.Signed {
		return !neg && v.BitLen() <= t.Bits
	}
	limit := new(uint256.Int).Lsh(uint256.NewInt(1), uint(t.Bits-1))
	if neg {
		return !v.Gt(limit)
	}
	return v.Lt(limit)
}
