// Package pool implements an unstake liquidity pool following the marinade
// protocol. The pool holds unstaked tokens and staked tokens, mints LP tokens
// against provided liquidity, and lets callers swap staked tokens for
// unstaked tokens immediately for a liquidity-sensitive fee.
package pool

import (
	"fmt"

	"unstakepool/internal/fixedpoint"
)

// Pool is the liquidity pool state. It is not safe for concurrent use; the
// registry serializes access with a per-pool lock.
type Pool struct {
	price           fixedpoint.Price
	tokenAmount     fixedpoint.TokenAmount
	stTokenAmount   fixedpoint.StakedTokenAmount
	lpTokenAmount   fixedpoint.LpTokenAmount
	liquidityTarget fixedpoint.TokenAmount
	minFee          fixedpoint.Percentage
	maxFee          fixedpoint.Percentage
}

// Quote describes the outcome of a swap without executing it.
type Quote struct {
	AmountIn  fixedpoint.StakedTokenAmount
	Gross     fixedpoint.TokenAmount
	Fee       fixedpoint.Percentage
	AmountOut fixedpoint.TokenAmount
}

// New creates an empty pool with the given parameters.
func New(price fixedpoint.Price, minFee, maxFee fixedpoint.Percentage, liquidityTarget fixedpoint.TokenAmount) (*Pool, error) {
	if err := validateParams(price, minFee, maxFee, liquidityTarget); err != nil {
		return nil, err
	}
	return &Pool{
		price:           price,
		liquidityTarget: liquidityTarget,
		minFee:          minFee,
		maxFee:          maxFee,
	}, nil
}

func validateParams(price fixedpoint.Price, minFee, maxFee fixedpoint.Percentage, liquidityTarget fixedpoint.TokenAmount) error {
	if price.Raw() == 0 {
		return fmt.Errorf("price must be positive")
	}
	if liquidityTarget.Raw() == 0 {
		return fmt.Errorf("liquidity target must be positive")
	}
	if minFee > maxFee {
		return fmt.Errorf("min fee %s exceeds max fee %s", minFee, maxFee)
	}
	if maxFee.Raw() >= fixedpoint.Scale {
		return fmt.Errorf("max fee %s must be below 100%%", maxFee)
	}
	return nil
}

// AddLiquidity deposits unstaked tokens and returns the LP tokens granted to
// the caller. The first deposit mints LP tokens one-to-one; later deposits
// mint proportionally to the pool's total value.
func (p *Pool) AddLiquidity(tokenIn fixedpoint.TokenAmount) (fixedpoint.LpTokenAmount, error) {
	if tokenIn.Raw() == 0 {
		return 0, ErrNoTokensProvided
	}

	lpRaw := tokenIn.Raw()
	if p.lpTokenAmount.Raw() != 0 {
		total, err := p.totalValue()
		if err != nil {
			return 0, ErrAmountTooLarge
		}
		lpRaw, err = fixedpoint.MulDiv(p.lpTokenAmount.Raw(), tokenIn.Raw(), total.Raw())
		if err != nil {
			return 0, ErrAmountTooLarge
		}
	}
	lpOut := fixedpoint.LpTokenAmount(lpRaw)

	p.tokenAmount += tokenIn
	p.lpTokenAmount += lpOut

	return lpOut, nil
}

// RemoveLiquidity burns LP tokens and returns the proportional share of the
// pool's unstaked and staked balances.
func (p *Pool) RemoveLiquidity(lpIn fixedpoint.LpTokenAmount) (fixedpoint.TokenAmount, fixedpoint.StakedTokenAmount, error) {
	if lpIn > p.lpTokenAmount {
		return 0, 0, &InsufficientLiquidityError{Requested: lpIn, Available: p.lpTokenAmount}
	}
	// burning nothing yields nothing; also keeps lp_total == 0 out of the
	// divisions below
	if lpIn.Raw() == 0 {
		return 0, 0, nil
	}

	tokenRaw, err := fixedpoint.MulDiv(p.tokenAmount.Raw(), lpIn.Raw(), p.lpTokenAmount.Raw())
	if err != nil {
		return 0, 0, ErrAmountTooLarge
	}
	stakedRaw, err := fixedpoint.MulDiv(p.stTokenAmount.Raw(), lpIn.Raw(), p.lpTokenAmount.Raw())
	if err != nil {
		return 0, 0, ErrAmountTooLarge
	}

	tokenOut := fixedpoint.TokenAmount(tokenRaw)
	stakedOut := fixedpoint.StakedTokenAmount(stakedRaw)

	p.tokenAmount -= tokenOut
	p.stTokenAmount -= stakedOut
	p.lpTokenAmount -= lpIn

	return tokenOut, stakedOut, nil
}

// Swap exchanges staked tokens for unstaked tokens at the pool price, minus
// the current fee, and returns the amount granted to the caller.
func (p *Pool) Swap(stakedIn fixedpoint.StakedTokenAmount) (fixedpoint.TokenAmount, error) {
	q, err := p.QuoteSwap(stakedIn)
	if err != nil {
		return 0, err
	}

	p.tokenAmount -= q.AmountOut
	p.stTokenAmount += stakedIn

	return q.AmountOut, nil
}

// QuoteSwap computes the outcome of a swap without changing pool state.
func (p *Pool) QuoteSwap(stakedIn fixedpoint.StakedTokenAmount) (Quote, error) {
	if stakedIn.Raw() == 0 {
		return Quote{}, ErrNoTokensProvided
	}

	gross, err := stakedIn.TokenValue(p.price)
	if err != nil {
		return Quote{}, ErrAmountTooLarge
	}
	if gross > p.tokenAmount {
		return Quote{}, &InsufficientReservesError{Needed: gross, Available: p.tokenAmount}
	}

	fee := p.fee(p.tokenAmount - gross)
	out, err := gross.ApplyFee(fee)
	if err != nil {
		return Quote{}, ErrAmountTooLarge
	}

	return Quote{AmountIn: stakedIn, Gross: gross, Fee: fee, AmountOut: out}, nil
}

// SetPrice updates the staked token price.
func (p *Pool) SetPrice(price fixedpoint.Price) error {
	if price.Raw() == 0 {
		return fmt.Errorf("price must be positive")
	}
	p.price = price
	return nil
}

// fee returns the swap fee for the unstaked reserve left after the swap.
// The fee falls linearly from maxFee at an empty reserve to minFee at the
// liquidity target:
//
//	fee = maxFee - (maxFee - minFee) * amountAfter / liquidityTarget
//
// clamped into [minFee, maxFee].
func (p *Pool) fee(amountAfter fixedpoint.TokenAmount) fixedpoint.Percentage {
	spread := p.maxFee.Raw() - p.minFee.Raw()
	rhs, err := fixedpoint.MulDiv(spread, amountAfter.Raw(), p.liquidityTarget.Raw())
	if err != nil || rhs > p.maxFee.Raw() {
		// reserve far above target, fee bottoms out
		rhs = p.maxFee.Raw()
	}
	fee := p.maxFee.Raw() - rhs
	if fee < p.minFee.Raw() {
		fee = p.minFee.Raw()
	}
	return fixedpoint.Percentage(fee)
}

// totalValue returns the pool's total value (unstaked plus staked balances)
// expressed in tokens.
func (p *Pool) totalValue() (fixedpoint.TokenAmount, error) {
	stakedValue, err := p.stTokenAmount.TokenValue(p.price)
	if err != nil {
		return 0, err
	}
	return p.tokenAmount + stakedValue, nil
}

// Price returns the current staked token price.
func (p *Pool) Price() fixedpoint.Price { return p.price }

// Balances returns the pool's unstaked, staked, and LP token balances.
func (p *Pool) Balances() (fixedpoint.TokenAmount, fixedpoint.StakedTokenAmount, fixedpoint.LpTokenAmount) {
	return p.tokenAmount, p.stTokenAmount, p.lpTokenAmount
}

// Params returns the pool's fee bounds and liquidity target.
func (p *Pool) Params() (minFee, maxFee fixedpoint.Percentage, liquidityTarget fixedpoint.TokenAmount) {
	return p.minFee, p.maxFee, p.liquidityTarget
}
