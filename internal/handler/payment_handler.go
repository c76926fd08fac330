package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/service"
	"github.com/noah-isme/olympiad-api/internal/utils"
)

// PaymentHandler starts gateway payments.
type PaymentHandler struct {
	service service.PaymentService
	logger  zerolog.Logger
}

// NewPaymentHandler constructs a payment handler.
func NewPaymentHandler(service service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.With().Str("component", "payment_handler").Logger(),
	}
}

// Register wires payment routes.
func (h *PaymentHandler) Register(router fiber.Router) {
	router.Post("/create-order", h.createOrder)
}

func (h *PaymentHandler) createOrder(c *fiber.Ctx) error {
	var payload dto.CreateOrderRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	order, err := h.service.CreateOrder(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create order")
	}
	return utils.SendCreated(c, "order created", order)
}
