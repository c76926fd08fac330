package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/middleware"
	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/service"
	"github.com/noah-isme/olympiad-api/internal/utils"
)

// CoordinatorHandler exposes the partner portal.
type CoordinatorHandler struct {
	coordinators service.CoordinatorService
	incentives   service.IncentiveService
	imports      service.BulkImportService
	logger       zerolog.Logger
}

// NewCoordinatorHandler constructs a coordinator handler.
func NewCoordinatorHandler(coordinators service.CoordinatorService, incentives service.IncentiveService, imports service.BulkImportService, logger zerolog.Logger) *CoordinatorHandler {
	return &CoordinatorHandler{
		coordinators: coordinators,
		incentives:   incentives,
		imports:      imports,
		logger:       logger.With().Str("component", "coordinator_handler").Logger(),
	}
}

// Register wires coordinator routes. Pending coordinators can sign in and
// manage their profile; roster and payout actions need approval.
func (h *CoordinatorHandler) Register(router fiber.Router, authenticate fiber.Handler) {
	router.Post("/register", h.register)
	router.Post("/login", h.login)

	coordinator := func(next fiber.Handler) fiber.Handler {
		return middleware.WithAuth(next, middleware.AuthOptions{Role: models.RoleCoordinator})
	}
	approved := func(next fiber.Handler) fiber.Handler {
		return middleware.WithAuth(next, middleware.AuthOptions{Role: models.RoleCoordinator, RequireApproved: true})
	}

	router.Get("/profile", authenticate, coordinator(h.profile))
	router.Put("/profile", authenticate, coordinator(h.updateProfile))
	router.Post("/verify-details", authenticate, coordinator(h.verifyDetails))
	router.Get("/achievements", authenticate, coordinator(h.achievements))
	router.Get("/leaderboard", authenticate, coordinator(h.leaderboard))

	router.Post("/bulk-upload", authenticate, approved(h.bulkUpload))
	router.Get("/students", authenticate, approved(h.students))
	router.Post("/calculate-incentives", authenticate, approved(h.calculateIncentives))
	router.Get("/rank", authenticate, approved(h.rank))
	router.Get("/test-counts", authenticate, approved(h.testCounts))
	router.Put("/students/payment-status", authenticate, approved(h.updateStudentPaymentStatus))
}

func (h *CoordinatorHandler) register(c *fiber.Ctx) error {
	var payload dto.CoordinatorRegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.coordinators.Register(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to register coordinator")
	}
	return utils.SendCreated(c, "registration received, pending approval", response)
}

func (h *CoordinatorHandler) login(c *fiber.Ctx) error {
	var payload dto.StaffLoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.coordinators.Login(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to login")
	}
	return utils.SendSuccess(c, "login successful", response)
}

func (h *CoordinatorHandler) profile(c *fiber.Ctx) error {
	profile, err := h.coordinators.Profile(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load profile")
	}
	return utils.SendSuccess(c, "profile retrieved", profile)
}

func (h *CoordinatorHandler) updateProfile(c *fiber.Ctx) error {
	var payload dto.BankProfileRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	profile, err := h.coordinators.UpdateBankProfile(c.UserContext(), middleware.UserID(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update profile")
	}
	return utils.SendSuccess(c, "profile updated", profile)
}

func (h *CoordinatorHandler) verifyDetails(c *fiber.Ctx) error {
	var payload dto.VerifyDetailsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.coordinators.VerifyDetails(c.UserContext(), middleware.UserID(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to verify payout details")
	}
	return utils.SendSuccess(c, "payout details verified", result)
}

func (h *CoordinatorHandler) bulkUpload(c *fiber.Ctx) error {
	coordinatorID := middleware.UserID(c)
	return receiveWorkbook(c, h.logger, h.imports, func(name string, data io.Reader) (dto.BulkResult, error) {
		return h.imports.ImportStudents(c.UserContext(), name, data, service.StudentImportOptions{CoordinatorID: coordinatorID})
	})
}

func (h *CoordinatorHandler) students(c *fiber.Ctx) error {
	students, err := h.coordinators.Students(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load students")
	}
	return utils.SendSuccess(c, "students retrieved", students)
}

func (h *CoordinatorHandler) calculateIncentives(c *fiber.Ctx) error {
	result, err := h.incentives.Recalculate(c.UserContext(), middleware.UserID(c), service.TriggerRequest)
	if err != nil {
		return respondError(c, h.logger, err, "failed to calculate incentives")
	}
	return utils.SendSuccess(c, "incentives calculated", result)
}

func (h *CoordinatorHandler) rank(c *fiber.Ctx) error {
	rank, err := h.coordinators.PartnerRank(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load rank")
	}
	return utils.SendSuccess(c, "rank retrieved", rank)
}

func (h *CoordinatorHandler) leaderboard(c *fiber.Ctx) error {
	groups, err := h.coordinators.Leaderboard(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to load leaderboard")
	}
	return utils.SendSuccess(c, "leaderboard retrieved", groups)
}

func (h *CoordinatorHandler) achievements(c *fiber.Ctx) error {
	achievements, err := h.coordinators.Achievements(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load achievements")
	}
	return utils.SendSuccess(c, "achievements retrieved", achievements)
}

func (h *CoordinatorHandler) testCounts(c *fiber.Ctx) error {
	counts, err := h.coordinators.TestCounts(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load test counts")
	}
	return utils.SendSuccess(c, "test counts retrieved", counts)
}

func (h *CoordinatorHandler) updateStudentPaymentStatus(c *fiber.Ctx) error {
	var payload dto.StudentPaymentStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	profile, err := h.coordinators.UpdateStudentPaymentStatus(c.UserContext(), middleware.UserID(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update payment status")
	}
	return utils.SendSuccess(c, "payment status updated", profile)
}
