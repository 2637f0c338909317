package server

import (
	"time"

	"unstakepool/internal/registry"
)

// CreatePoolRequest creates a new pool. Amounts are decimal strings.
type CreatePoolRequest struct {
	Name            string `json:"name"`
	Price           string `json:"price"`
	MinFee          string `json:"min_fee"`
	MaxFee          string `json:"max_fee"`
	LiquidityTarget string `json:"liquidity_target"`
}

// AddLiquidityRequest deposits unstaked tokens into a pool.
type AddLiquidityRequest struct {
	Amount string `json:"amount"`
}

// WithdrawRequest burns LP tokens for a proportional share of the pool.
type WithdrawRequest struct {
	LpAmount string `json:"lp_amount"`
}

// SwapRequest exchanges staked tokens for unstaked tokens.
type SwapRequest struct {
	Amount string `json:"amount"`
}

// SetPriceRequest updates a pool's staked token price.
type SetPriceRequest struct {
	Price string `json:"price"`
}

// PoolView is the wire representation of a pool. Amounts are decimal strings.
type PoolView struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Price           string    `json:"price"`
	MinFee          string    `json:"min_fee"`
	MaxFee          string    `json:"max_fee"`
	LiquidityTarget string    `json:"liquidity_target"`
	TokenAmount     string    `json:"token_amount"`
	StTokenAmount   string    `json:"st_token_amount"`
	LpTokenAmount   string    `json:"lp_token_amount"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PoolResponse wraps a single pool view.
type PoolResponse struct {
	Pool      PoolView  `json:"pool"`
	Timestamp time.Time `json:"timestamp"`
}

// PoolsResponse lists all pools.
type PoolsResponse struct {
	Pools     []PoolView `json:"pools"`
	Total     int        `json:"total"`
	Timestamp time.Time  `json:"timestamp"`
}

// AddLiquidityResponse reports the LP tokens granted by a deposit.
type AddLiquidityResponse struct {
	LpTokens  string    `json:"lp_tokens"`
	Pool      PoolView  `json:"pool"`
	Timestamp time.Time `json:"timestamp"`
}

// WithdrawResponse reports the amounts withdrawn from a pool.
type WithdrawResponse struct {
	Tokens    string    `json:"tokens"`
	StTokens  string    `json:"st_tokens"`
	Pool      PoolView  `json:"pool"`
	Timestamp time.Time `json:"timestamp"`
}

// SwapResponse reports an executed swap.
type SwapResponse struct {
	AmountIn  string    `json:"amount_in"`
	Gross     string    `json:"gross"`
	Fee       string    `json:"fee"`
	AmountOut string    `json:"amount_out"`
	Pool      PoolView  `json:"pool"`
	Timestamp time.Time `json:"timestamp"`
}

// QuoteResponse previews a swap without executing it.
type QuoteResponse struct {
	AmountIn  string    `json:"amount_in"`
	Gross     string    `json:"gross"`
	Fee       string    `json:"fee"`
	AmountOut string    `json:"amount_out"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse represents service health status
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]HealthCheck `json:"checks,omitempty"`
}

// HealthCheck represents individual health check result
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// StatusResponse represents current service status
type StatusResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	PoolCount int       `json:"pool_count"`
	Uptime    string    `json:"uptime,omitempty"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Health status constants
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)

// Health check status constants
const (
	HealthCheckPass = "pass"
	HealthCheckFail = "fail"
)

// Service status constants
const (
	ServiceStatusRunning = "running"
)

func toPoolView(info registry.PoolInfo) PoolView {
	return PoolView{
		ID:              info.ID,
		Name:            info.Name,
		Price:           info.Price.String(),
		MinFee:          info.MinFee.String(),
		MaxFee:          info.MaxFee.String(),
		LiquidityTarget: info.LiquidityTarget.String(),
		TokenAmount:     info.TokenAmount.String(),
		StTokenAmount:   info.StTokenAmount.String(),
		LpTokenAmount:   info.LpTokenAmount.String(),
		CreatedAt:       info.CreatedAt,
		UpdatedAt:       info.UpdatedAt,
	}
}
