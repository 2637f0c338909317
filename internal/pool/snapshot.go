package pool

import "unstakepool/internal/fixedpoint"

// Snapshot is the serializable form of a pool's state. All fields are raw
// fixed-point values at the package scale.
type Snapshot struct {
	Price           uint64 `json:"price" yaml:"price" dynamodbav:"Price"`
	TokenAmount     uint64 `json:"token_amount" yaml:"token_amount" dynamodbav:"TokenAmount"`
	StTokenAmount   uint64 `json:"st_token_amount" yaml:"st_token_amount" dynamodbav:"StTokenAmount"`
	LpTokenAmount   uint64 `json:"lp_token_amount" yaml:"lp_token_amount" dynamodbav:"LpTokenAmount"`
	LiquidityTarget uint64 `json:"liquidity_target" yaml:"liquidity_target" dynamodbav:"LiquidityTarget"`
	MinFee          uint64 `json:"min_fee" yaml:"min_fee" dynamodbav:"MinFee"`
	MaxFee          uint64 `json:"max_fee" yaml:"max_fee" dynamodbav:"MaxFee"`
}

// Snapshot captures the pool's current state.
func (p *Pool) Snapshot() Snapshot {
	return Snapshot{
		Price:           p.price.Raw(),
		TokenAmount:     p.tokenAmount.Raw(),
		StTokenAmount:   p.stTokenAmount.Raw(),
		LpTokenAmount:   p.lpTokenAmount.Raw(),
		LiquidityTarget: p.liquidityTarget.Raw(),
		MinFee:          p.minFee.Raw(),
		MaxFee:          p.maxFee.Raw(),
	}
}

// FromSnapshot reconstructs a pool from a stored snapshot, applying the same
// parameter validation as New.
func FromSnapshot(s Snapshot) (*Pool, error) {
	price := fixedpoint.Price(s.Price)
	minFee := fixedpoint.Percentage(s.MinFee)
	maxFee := fixedpoint.Percentage(s.MaxFee)
	target := fixedpoint.TokenAmount(s.LiquidityTarget)

	if err := validateParams(price, minFee, maxFee, target); err != nil {
		return nil, err
	}
	return &Pool{
		price:           price,
		tokenAmount:     fixedpoint.TokenAmount(s.TokenAmount),
		stTokenAmount:   fixedpoint.StakedTokenAmount(s.StTokenAmount),
		lpTokenAmount:   fixedpoint.LpTokenAmount(s.LpTokenAmount),
		liquidityTarget: target,
		minFee:          minFee,
		maxFee:          maxFee,
	}, nil
}
