package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/pkg/razorpay"
)

type stubOrders struct {
	got razorpay.OrderRequest
	err error
}

func (s *stubOrders) CreateOrder(_ context.Context, req razorpay.OrderRequest) (razorpay.Order, error) {
	s.got = req
	if s.err != nil {
		return razorpay.Order{}, s.err
	}
	return razorpay.Order{ID: "order_1", Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt}, nil
}

func TestCreateOrderConvertsToPaise(t *testing.T) {
	orders := &stubOrders{}
	svc := NewPaymentService(orders, testValidator(), testLogger()).(*paymentService)
	svc.now = fixedClock(time.UnixMilli(1714000000123))

	resp, err := svc.CreateOrder(context.Background(), dto.CreateOrderRequest{Amount: 199.99})
	require.NoError(t, err)
	require.Equal(t, int64(19999), orders.got.Amount)
	require.Equal(t, "INR", orders.got.Currency)
	require.Equal(t, "receipt_1714000000123", resp.Receipt)
	require.Equal(t, "order_1", resp.OrderID)
}

func TestCreateOrderMapsGatewayFailure(t *testing.T) {
	svc := NewPaymentService(&stubOrders{err: errors.New("503")}, testValidator(), testLogger())

	_, err := svc.CreateOrder(context.Background(), dto.CreateOrderRequest{Amount: 10})
	require.ErrorIs(t, err, ErrUpstream)

	_, err = svc.CreateOrder(context.Background(), dto.CreateOrderRequest{Amount: 0})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUpstream)
}
