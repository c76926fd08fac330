package handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/olympiad-api/internal/config"
	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/handler"
	"github.com/noah-isme/olympiad-api/internal/service"
)

type mockPaymentService struct {
	lastAmount float64
	order      dto.CreateOrderResponse
	err        error
}

func (m *mockPaymentService) CreateOrder(_ context.Context, req dto.CreateOrderRequest) (dto.CreateOrderResponse, error) {
	m.lastAmount = req.Amount
	return m.order, m.err
}

func TestPaymentHandler_CreateOrder(t *testing.T) {
	svc := &mockPaymentService{order: dto.CreateOrderResponse{OrderID: "order_1", Amount: 49900, Currency: "INR", Receipt: "receipt_1"}}
	app := fiber.New()
	handler.NewPaymentHandler(svc, zerolog.Nop()).Register(app.Group("/api/payment"))

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/payment/create-order", map[string]any{"amount": 499}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body envelope[dto.CreateOrderResponse]
	decodeResponse(t, resp, &body)
	require.Equal(t, "order_1", body.Data.OrderID)
	require.Equal(t, int64(49900), body.Data.Amount)
	require.InDelta(t, 499.0, svc.lastAmount, 0.001)
}

func TestPaymentHandler_GatewayFailure(t *testing.T) {
	svc := &mockPaymentService{err: fmt.Errorf("create order: %w", service.ErrUpstream)}
	app := fiber.New()
	handler.NewPaymentHandler(svc, zerolog.Nop()).Register(app.Group("/api/payment"))

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/payment/create-order", map[string]any{"amount": 10}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	cfg := config.Config{AppName: "Olympiad API", AppEnv: "test"}

	app := fiber.New()
	app.Get("/api/v1/health", handler.HealthCheck(cfg))

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope[handler.HealthResponse]
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, "ok", body.Data.Status)
	require.Equal(t, cfg.AppName, body.Data.Service)
	require.WithinDuration(t, time.Now().UTC(), body.Data.Timestamp, 2*time.Second)
}

func TestHealthCheckDegraded(t *testing.T) {
	cfg := config.Config{AppName: "Olympiad API", AppEnv: "test"}

	app := fiber.New()
	app.Get("/api/v1/health", handler.HealthCheck(cfg,
		handler.HealthProbe{Name: "database", Check: func(context.Context) error { return nil }},
		handler.HealthProbe{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	))

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var body envelope[handler.HealthResponse]
	decodeResponse(t, resp, &body)
	require.False(t, body.Success)
	require.Equal(t, "degraded", body.Data.Status)
	require.Equal(t, map[string]string{"database": "up", "redis": "down"}, body.Data.Dependencies)
}
