package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"unstakepool/internal/fixedpoint"
	"unstakepool/internal/registry"
	"unstakepool/internal/store"
)

func createTestHandlers() *Handlers {
	reg := registry.New(store.NewMemoryStore())
	return NewHandlers(reg, time.Now())
}

func createStoryPool(t *testing.T, h *Handlers) registry.PoolInfo {
	t.Helper()
	info, err := h.registry.Create(context.Background(), "main", registry.Params{
		Price:           fixedpoint.FromRaw[fixedpoint.Price](1_500_000),
		MinFee:          fixedpoint.FromRaw[fixedpoint.Percentage](1_000),
		MaxFee:          fixedpoint.FromRaw[fixedpoint.Percentage](90_000),
		LiquidityTarget: fixedpoint.FromUnits[fixedpoint.TokenAmount](90),
	})
	if err != nil {
		t.Fatalf("failed to create test pool: %v", err)
	}
	return info
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func poolContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, poolID string) echo.Context {
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(poolID)
	return c
}

func TestGetHealth(t *testing.T) {
	e := echo.New()
	handlers := createTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handlers.GetHealth(c); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, rec.Code)
	}

	body := rec.Body.String()
	for _, field := range []string{"status", "timestamp", "checks", "registry"} {
		if !strings.Contains(body, field) {
			t.Errorf("Expected response to contain field %s, body: %s", field, body)
		}
	}
}

func TestGetStatus(t *testing.T) {
	e := echo.New()
	handlers := createTestHandlers()
	createStoryPool(t, handlers)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handlers.GetStatus(c); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	var resp StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if resp.PoolCount != 1 {
		t.Errorf("Expected pool count 1, got %d", resp.PoolCount)
	}
	if resp.Status != ServiceStatusRunning {
		t.Errorf("Expected status %s, got %s", ServiceStatusRunning, resp.Status)
	}
}

func TestCreatePool(t *testing.T) {
	e := echo.New()
	handlers := createTestHandlers()

	body := `{"name":"main","price":"1.5","min_fee":"0.001","max_fee":"0.09","liquidity_target":"90"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/pools", body), rec)

	if err := handlers.CreatePool(c); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status code %d, got %d, body: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var resp PoolResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if resp.Pool.ID == "" {
		t.Error("Expected pool ID to be set")
	}
	if resp.Pool.Price != "1.5" {
		t.Errorf("Expected price 1.5, got %s", resp.Pool.Price)
	}
	if resp.Pool.TokenAmount != "0" {
		t.Errorf("Expected empty pool, got token amount %s", resp.Pool.TokenAmount)
	}
}

func TestCreatePoolInvalidAmount(t *testing.T) {
	e := echo.New()
	handlers := createTestHandlers()

	body := `{"name":"main","price":"abc","min_fee":"0.001","max_fee":"0.09","liquidity_target":"90"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/pools", body), rec)

	if err := handlers.CreatePool(c); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestCreatePoolDuplicateName(t *testing.T) {
	e := echo.New()
	handlers := createTestHandlers()
	createStoryPool(t, handlers)

	body := `{"name":"main","price":"1.5","min_fee":"0.001","max_fee":"0.09","liquidity_target":"90"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/pools", body), rec)

	if err := handlers.CreatePool(c); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status code %d, got %d", http.StatusConflict, rec.Code)
	}
}

func TestGetPoolNotFound(t *testing.T) {
	e := echo.New()
	handlers := createTestHandlers()

	rec := httptest.NewRecorder()
	c := poolContext(e, httptest.NewRequest(http.MethodGet, "/pools/missing", nil), rec, "missing")

	if err := handlers.GetPool(c); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status code %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestAddLiquidityAndSwap(t *testing.T) {
	e := echo.New()
	handlers := createTestHandlers()
	info := createStoryPool(t, handlers)

	// deposit 100 tokens
	rec := httptest.NewRecorder()
	c := poolContext(e, jsonRequest(http.MethodPost, "/pools/"+info.ID+"/liquidity", `{"amount":"100"}`), rec, info.ID)
	if err := handlers.AddLiquidity(c); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d, body: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var addResp AddLiquidityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &addResp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if addResp.LpTokens != "100" {
		t.Errorf("Expected 100 LP tokens, got %s", addResp.LpTokens)
	}

	// swap 6 staked tokens
	rec = httptest.NewRecorder()
	c = poolContext(e, jsonRequest(http.MethodPost, "/pools/"+info.ID+"/swap", `{"amount":"6"}`), rec, info.ID)
	if err := handlers.Swap(c); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d, body: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var swapResp SwapResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &swapResp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if swapResp.AmountOut != "8.991" {
		t.Errorf("Expected amount out 8.991, got %s", swapResp.AmountOut)
	}
	if swapResp.Gross != "9" {
		t.Errorf("Expected gross 9, got %s", swapResp.Gross)
	}
	if swapResp.Fee != "0.001" {
		t.Errorf("Expected fee 0.001, got %s", swapResp.Fee)
	}
}

func TestSwapInsufficientReserves(t *testing.T) {
	e := echo.New()
	handlers := createTestHandlers()
	info := createStoryPool(t, handlers)

	rec := httptest.NewRecorder()
	c := poolContext(e, jsonRequest(http.MethodPost, "/pools/"+info.ID+"/swap", `{"amount":"6"}`), rec, info.ID)
	if err := handlers.Swap(c); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status code %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}
}

func TestQuoteSwapDoesNotChangePool(t *testing.T) {
	e := echo.New()
	handlers := createTestHandlers()
	info := createStoryPool(t, handlers)

	rec := httptest.NewRecorder()
	c := poolContext(e, jsonRequest(http.MethodPost, "/pools/"+info.ID+"/liquidity", `{"amount":"100"}`), rec, info.ID)
	if err := handlers.AddLiquidity(c); err != nil {
		t.Fatalf("Failed to add liquidity: %v", err)
	}

	rec = httptest.NewRecorder()
	c = poolContext(e, httptest.NewRequest(http.MethodGet, "/pools/"+info.ID+"/quote?amount=6", nil), rec, info.ID)
	if err := handlers.QuoteSwap(c); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d, body: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var quoteResp QuoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &quoteResp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if quoteResp.AmountOut != "8.991" {
		t.Errorf("Expected amount out 8.991, got %s", quoteResp.AmountOut)
	}

	got, err := handlers.registry.Get(info.ID)
	if err != nil {
		t.Fatalf("Failed to get pool: %v", err)
	}
	if got.StTokenAmount != 0 {
		t.Errorf("Expected quote to leave pool unchanged, staked balance is %s", got.StTokenAmount)
	}
}

func TestWithdrawMoreThanPool(t *testing.T) {
	e := echo.New()
	handlers := createTestHandlers()
	info := createStoryPool(t, handlers)

	rec := httptest.NewRecorder()
	c := poolContext(e, jsonRequest(http.MethodPost, "/pools/"+info.ID+"/liquidity/withdraw", `{"lp_amount":"1000"}`), rec, info.ID)
	if err := handlers.Withdraw(c); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status code %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}
}

func TestSetPrice(t *testing.T) {
	e := echo.New()
	handlers := createTestHandlers()
	info := createStoryPool(t, handlers)

	rec := httptest.NewRecorder()
	c := poolContext(e, jsonRequest(http.MethodPut, "/pools/"+info.ID+"/price", `{"price":"2"}`), rec, info.ID)
	if err := handlers.SetPrice(c); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d, body: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp PoolResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Pool.Price != "2" {
		t.Errorf("Expected price 2, got %s", resp.Pool.Price)
	}
}

func TestDeletePool(t *testing.T) {
	e := echo.New()
	handlers := createTestHandlers()
	info := createStoryPool(t, handlers)

	rec := httptest.NewRecorder()
	c := poolContext(e, httptest.NewRequest(http.MethodDelete, "/pools/"+info.ID, nil), rec, info.ID)
	if err := handlers.DeletePool(c); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status code %d, got %d", http.StatusNoContent, rec.Code)
	}
	if handlers.registry.Count() != 0 {
		t.Errorf("Expected pool to be removed, count is %d", handlers.registry.Count())
	}
}
