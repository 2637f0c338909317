package pool

import (
	"errors"
	"fmt"

	"unstakepool/internal/fixedpoint"
)

// ErrNoTokensProvided is returned when an operation is called with a zero amount.
var ErrNoTokensProvided = errors.New("no tokens provided")

// ErrAmountTooLarge is returned when an amount is large enough to overflow
// the fixed-point arithmetic.
var ErrAmountTooLarge = errors.New("amount too large")

// InsufficientLiquidityError is returned when a withdrawal asks for more LP
// tokens than the pool has minted.
type InsufficientLiquidityError struct {
	Requested fixedpoint.LpTokenAmount
	Available fixedpoint.LpTokenAmount
}

func (e *InsufficientLiquidityError) Error() string {
	return fmt.Sprintf("insufficient liquidity: requested %s LP tokens, pool holds %s", e.Requested, e.Available)
}

// InsufficientReservesError is returned when a swap needs more unstaked
// tokens than the pool currently holds.
type InsufficientReservesError struct {
	Needed    fixedpoint.TokenAmount
	Available fixedpoint.TokenAmount
}

func (e *InsufficientReservesError) Error() string {
	return fmt.Sprintf("insufficient reserves: swap needs %s tokens, pool holds %s", e.Needed, e.Available)
}
