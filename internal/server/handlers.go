package server

import (
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"unstakepool/internal/fixedpoint"
	"unstakepool/internal/pool"
	"unstakepool/internal/registry"
)

//go:embed openapi.yaml
var openAPISpec string

// Handlers contains the HTTP handlers for the pool API
type Handlers struct {
	registry  *registry.Registry
	startTime time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(reg *registry.Registry, startTime time.Time) *Handlers {
	return &Handlers{
		registry:  reg,
		startTime: startTime,
	}
}

// GetHealth handles GET /health
func (h *Handlers) GetHealth(c echo.Context) error {
	checks := map[string]HealthCheck{
		"registry": {
			Status:  HealthCheckPass,
			Message: fmt.Sprintf("%d pools registered", h.registry.Count()),
		},
	}

	return c.JSON(http.StatusOK, HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now(),
		Checks:    checks,
	})
}

// GetStatus handles GET /status
func (h *Handlers) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{
		Status:    ServiceStatusRunning,
		Timestamp: time.Now(),
		PoolCount: h.registry.Count(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// GetOpenAPISpec handles GET /openapi.yaml
func (h *Handlers) GetOpenAPISpec(c echo.Context) error {
	return c.Blob(http.StatusOK, "application/yaml", []byte(openAPISpec))
}

// CreatePool handles POST /pools
func (h *Handlers) CreatePool(c echo.Context) error {
	var req CreatePoolRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	price, err := fixedpoint.Parse[fixedpoint.Price](req.Price)
	if err != nil {
		return badRequest(c, fmt.Sprintf("price: %v", err))
	}
	minFee, err := fixedpoint.Parse[fixedpoint.Percentage](req.MinFee)
	if err != nil {
		return badRequest(c, fmt.Sprintf("min_fee: %v", err))
	}
	maxFee, err := fixedpoint.Parse[fixedpoint.Percentage](req.MaxFee)
	if err != nil {
		return badRequest(c, fmt.Sprintf("max_fee: %v", err))
	}
	target, err := fixedpoint.Parse[fixedpoint.TokenAmount](req.LiquidityTarget)
	if err != nil {
		return badRequest(c, fmt.Sprintf("liquidity_target: %v", err))
	}

	info, err := h.registry.Create(c.Request().Context(), req.Name, registry.Params{
		Price:           price,
		MinFee:          minFee,
		MaxFee:          maxFee,
		LiquidityTarget: target,
	})
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusCreated, PoolResponse{Pool: toPoolView(info), Timestamp: time.Now()})
}

// ListPools handles GET /pools
func (h *Handlers) ListPools(c echo.Context) error {
	infos := h.registry.List()

	views := make([]PoolView, 0, len(infos))
	for _, info := range infos {
		views = append(views, toPoolView(info))
	}

	return c.JSON(http.StatusOK, PoolsResponse{
		Pools:     views,
		Total:     len(views),
		Timestamp: time.Now(),
	})
}

// GetPool handles GET /pools/:id
func (h *Handlers) GetPool(c echo.Context) error {
	info, err := h.registry.Get(c.Param("id"))
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, PoolResponse{Pool: toPoolView(info), Timestamp: time.Now()})
}

// DeletePool handles DELETE /pools/:id
func (h *Handlers) DeletePool(c echo.Context) error {
	if err := h.registry.Remove(c.Request().Context(), c.Param("id")); err != nil {
		return domainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddLiquidity handles POST /pools/:id/liquidity
func (h *Handlers) AddLiquidity(c echo.Context) error {
	var req AddLiquidityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	amount, err := fixedpoint.Parse[fixedpoint.TokenAmount](req.Amount)
	if err != nil {
		return badRequest(c, fmt.Sprintf("amount: %v", err))
	}

	lpOut, info, err := h.registry.AddLiquidity(c.Request().Context(), c.Param("id"), amount)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, AddLiquidityResponse{
		LpTokens:  lpOut.String(),
		Pool:      toPoolView(info),
		Timestamp: time.Now(),
	})
}

// Withdraw handles POST /pools/:id/liquidity/withdraw
func (h *Handlers) Withdraw(c echo.Context) error {
	var req WithdrawRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	lpIn, err := fixedpoint.Parse[fixedpoint.LpTokenAmount](req.LpAmount)
	if err != nil {
		return badRequest(c, fmt.Sprintf("lp_amount: %v", err))
	}

	tokenOut, stakedOut, info, err := h.registry.RemoveLiquidity(c.Request().Context(), c.Param("id"), lpIn)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, WithdrawResponse{
		Tokens:    tokenOut.String(),
		StTokens:  stakedOut.String(),
		Pool:      toPoolView(info),
		Timestamp: time.Now(),
	})
}

// Swap handles POST /pools/:id/swap
func (h *Handlers) Swap(c echo.Context) error {
	var req SwapRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	stakedIn, err := fixedpoint.Parse[fixedpoint.StakedTokenAmount](req.Amount)
	if err != nil {
		return badRequest(c, fmt.Sprintf("amount: %v", err))
	}

	quote, info, err := h.registry.Swap(c.Request().Context(), c.Param("id"), stakedIn)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, SwapResponse{
		AmountIn:  quote.AmountIn.String(),
		Gross:     quote.Gross.String(),
		Fee:       quote.Fee.String(),
		AmountOut: quote.AmountOut.String(),
		Pool:      toPoolView(info),
		Timestamp: time.Now(),
	})
}

// QuoteSwap handles GET /pools/:id/quote
func (h *Handlers) QuoteSwap(c echo.Context) error {
	stakedIn, err := fixedpoint.Parse[fixedpoint.StakedTokenAmount](c.QueryParam("amount"))
	if err != nil {
		return badRequest(c, fmt.Sprintf("amount: %v", err))
	}

	quote, err := h.registry.QuoteSwap(c.Param("id"), stakedIn)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, QuoteResponse{
		AmountIn:  quote.AmountIn.String(),
		Gross:     quote.Gross.String(),
		Fee:       quote.Fee.String(),
		AmountOut: quote.AmountOut.String(),
		Timestamp: time.Now(),
	})
}

// SetPrice handles PUT /pools/:id/price
func (h *Handlers) SetPrice(c echo.Context) error {
	var req SetPriceRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	price, err := fixedpoint.Parse[fixedpoint.Price](req.Price)
	if err != nil {
		return badRequest(c, fmt.Sprintf("price: %v", err))
	}

	info, err := h.registry.SetPrice(c.Request().Context(), c.Param("id"), price)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, PoolResponse{Pool: toPoolView(info), Timestamp: time.Now()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Timestamp: time.Now()})
}

// domainError maps registry and pool errors to HTTP status codes.
func domainError(c echo.Context, err error) error {
	status := http.StatusBadRequest

	var insufficientLiquidity *pool.InsufficientLiquidityError
	var insufficientReserves *pool.InsufficientReservesError

	switch {
	case errors.Is(err, registry.ErrPoolNotFound):
		status = http.StatusNotFound
	case errors.Is(err, registry.ErrDuplicateName):
		status = http.StatusConflict
	case errors.Is(err, pool.ErrNoTokensProvided),
		errors.Is(err, pool.ErrAmountTooLarge),
		errors.As(err, &insufficientLiquidity),
		errors.As(err, &insufficientReserves):
		status = http.StatusUnprocessableEntity
	}

	return c.JSON(status, ErrorResponse{Error: err.Error(), Timestamp: time.Now()})
}
