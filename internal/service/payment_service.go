package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/pkg/razorpay"
)

const paymentCurrency = "INR"

// OrderCreator creates payment gateway orders.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (razorpay.Order, error)
}

// PaymentService starts registration fee payments.
type PaymentService interface {
	CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (dto.CreateOrderResponse, error)
}

type paymentService struct {
	orders    OrderCreator
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewPaymentService constructs the payment service.
func NewPaymentService(orders OrderCreator, validate *validator.Validate, logger zerolog.Logger) PaymentService {
	return &paymentService{
		orders:    orders,
		validator: validate,
		logger:    logger.With().Str("component", "payment_service").Logger(),
		now:       time.Now,
	}
}

// CreateOrder converts the rupee amount to paise and opens an order with the gateway.
func (s *paymentService) CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (dto.CreateOrderResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CreateOrderResponse{}, err
	}

	order, err := s.orders.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:   int64(math.Round(req.Amount * 100)),
		Currency: paymentCurrency,
		Receipt:  fmt.Sprintf("receipt_%d", s.now().UnixMilli()),
	})
	if err != nil {
		s.logger.Error().Err(err).Float64("amount", req.Amount).Msg("order creation failed")
		return dto.CreateOrderResponse{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return dto.CreateOrderResponse{OrderID: order.ID, Amount: order.Amount, Currency: order.Currency, Receipt: order.Receipt}, nil
}
