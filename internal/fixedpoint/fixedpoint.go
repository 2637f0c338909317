// Package fixedpoint provides the fixed-point decimal amounts used by the
// liquidity pool. All amounts are raw uint64 values scaled by 10^6, and all
// arithmetic is integer arithmetic with truncating division, so results are
// deterministic across platforms.
package fixedpoint

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// Precision is the number of decimal places carried by every amount.
const Precision = 6

// Scale is the fixed-point scale factor (10^Precision).
const Scale uint64 = 1_000_000

// ErrOverflow is returned when a checked multiplication exceeds uint64 range.
var ErrOverflow = errors.New("fixed-point overflow")

// TokenAmount is an amount of unstaked tokens.
type TokenAmount uint64

// StakedTokenAmount is an amount of staked tokens.
type StakedTokenAmount uint64

// LpTokenAmount is an amount of LP tokens minted against pool liquidity.
type LpTokenAmount uint64

// Price is the exchange rate of one staked token expressed in tokens.
type Price uint64

// Percentage is a fee rate, where Scale means 100%.
type Percentage uint64

// Value constrains the fixed-point amount types.
type Value interface {
	TokenAmount | StakedTokenAmount | LpTokenAmount | Price | Percentage
}

// FromRaw wraps a raw scaled value without adjustment.
func FromRaw[T Value](raw uint64) T {
	return T(raw)
}

// FromUnits converts whole units into a scaled amount.
func FromUnits[T Value](units uint64) T {
	return T(units * Scale)
}

// FromFloat converts a float into a scaled amount, truncating anything beyond
// the supported precision. Intended for config and test convenience; wire
// values go through Parse instead.
func FromFloat[T Value](v float64) T {
	return T(uint64(v * float64(Scale)))
}

// Parse converts a decimal string such as "8.991" into a scaled amount.
// At most Precision fractional digits are accepted.
func Parse[T Value](s string) (T, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	raw, err := MulDiv(units, Scale, 1)
	if err != nil {
		return 0, fmt.Errorf("amount %q out of range: %w", s, err)
	}
	if hasFrac {
		if frac == "" || len(frac) > Precision {
			return 0, fmt.Errorf("invalid amount %q: at most %d fractional digits", s, Precision)
		}
		fracVal, err := strconv.ParseUint(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q: %w", s, err)
		}
		for i := len(frac); i < Precision; i++ {
			fracVal *= 10
		}
		raw += fracVal
	}
	return T(raw), nil
}

// Format renders a scaled amount as a decimal string with trailing zeros
// trimmed, the inverse of Parse.
func Format[T Value](v T) string {
	whole := uint64(v) / Scale
	frac := uint64(v) % Scale
	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}
	s := fmt.Sprintf("%d.%06d", whole, frac)
	return strings.TrimRight(s, "0")
}

// MulDiv computes a*b/div, returning ErrOverflow when the intermediate
// product does not fit in uint64. Division truncates.
func MulDiv(a, b, div uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo / div, nil
}

// TokenValue converts a staked amount into its token value at the given price.
func (s StakedTokenAmount) TokenValue(p Price) (TokenAmount, error) {
	raw, err := MulDiv(s.Raw(), p.Raw(), Scale)
	if err != nil {
		return 0, err
	}
	return TokenAmount(raw), nil
}

// ApplyFee deducts the given percentage fee from the amount.
func (t TokenAmount) ApplyFee(fee Percentage) (TokenAmount, error) {
	raw, err := MulDiv(t.Raw(), Scale-fee.Raw(), Scale)
	if err != nil {
		return 0, err
	}
	return TokenAmount(raw), nil
}

func (t TokenAmount) Raw() uint64       { return uint64(t) }
func (s StakedTokenAmount) Raw() uint64 { return uint64(s) }
func (l LpTokenAmount) Raw() uint64     { return uint64(l) }
func (p Price) Raw() uint64             { return uint64(p) }
func (p Percentage) Raw() uint64        { return uint64(p) }

func (t TokenAmount) String() string       { return Format(t) }
func (s StakedTokenAmount) String() string { return Format(s) }
func (l LpTokenAmount) String() string     { return Format(l) }
func (p Price) String() string             { return Format(p) }
func (p Percentage) String() string        { return Format(p) }
