package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/olympiad-api/internal/middleware"
	"github.com/noah-isme/olympiad-api/internal/service"
	"github.com/noah-isme/olympiad-api/internal/utils"
)

var badRequestErrors = []error{
	service.ErrInvalidTestType,
	service.ErrStandardRequired,
	service.ErrInvalidPaymentStatus,
	service.ErrInvalidCoordinatorStatus,
	service.ErrUnknownReferenceCode,
	service.ErrInvalidReferenceCode,
	service.ErrPayoutDetailsRequired,
	service.ErrIncompleteBankDetails,
	service.ErrInvalidIFSC,
	service.ErrInvalidAccountNumber,
	service.ErrInvalidUPI,
	service.ErrUploadTypeNotAllowed,
	service.ErrEmptyWorkbook,
	service.ErrAlreadyApproved,
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "invalid payload"
	}
	fields := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields = append(fields, fmt.Sprintf("%s (%s)", fieldErr.Field(), fieldErr.Tag()))
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}

// respondError maps service errors onto status codes. Anything unrecognised is
// logged and reported as an internal error with the fallback message.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	if isValidationError(err) {
		return utils.SendError(c, fiber.StatusBadRequest, validationMessage(err))
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return utils.SendError(c, fiber.StatusBadRequest, target.Error())
		}
	}

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, service.ErrAlreadyExists):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrCallbackDuplicate):
		return utils.SendError(c, fiber.StatusTooManyRequests, "duplicate submission")
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrUpstream):
		requestLogger(logger, c).Warn().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusBadGateway, service.ErrUpstream.Error())
	}

	requestLogger(logger, c).Error().Err(err).Msg(fallback)
	return utils.SendError(c, fiber.StatusInternalServerError, fallback)
}

func testTypeQuery(c *fiber.Ctx) string {
	return strings.ToLower(strings.TrimSpace(c.Query("type")))
}
