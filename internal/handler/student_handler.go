package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/middleware"
	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/service"
	"github.com/noah-isme/olympiad-api/internal/utils"
)

// StudentHandler exposes the student portal.
type StudentHandler struct {
	students     service.StudentService
	rankings     service.RankingService
	certificates service.CertificateService
	callbacks    service.CallbackService
	logger       zerolog.Logger
}

// NewStudentHandler constructs a student handler.
func NewStudentHandler(students service.StudentService, rankings service.RankingService, certificates service.CertificateService, callbacks service.CallbackService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		students:     students,
		rankings:     rankings,
		certificates: certificates,
		callbacks:    callbacks,
		logger:       logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register wires student routes. authenticate verifies bearer tokens on the private routes.
func (h *StudentHandler) Register(router fiber.Router, authenticate fiber.Handler) {
	router.Post("/register", h.register)
	router.Post("/login", h.login)
	router.Post("/verify", h.verifyCertificate)
	router.Post("/request-callback", h.requestCallback)

	student := func(next fiber.Handler) fiber.Handler {
		return middleware.WithAuth(next, middleware.AuthOptions{Role: models.RoleStudent})
	}
	router.Get("/profile", authenticate, student(h.profile))
	router.Post("/update-profile", authenticate, student(h.updateProfile))
	router.Get("/rank", authenticate, student(h.rank))
	router.Post("/save-quiz-marks", authenticate, student(h.saveQuizMarks))
	router.Patch("/update-payment-status", authenticate, student(h.updatePaymentStatus))
	router.Get("/test-counts", authenticate, student(h.testCounts))
	router.Get("/subject-marks", authenticate, student(h.subjectMarks))
}

func (h *StudentHandler) register(c *fiber.Ctx) error {
	var payload dto.StudentRegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.students.Register(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to register student")
	}
	return utils.SendCreated(c, "registration successful", response)
}

func (h *StudentHandler) login(c *fiber.Ctx) error {
	var payload dto.StudentLoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.students.Login(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to login")
	}
	return utils.SendSuccess(c, "login successful", response)
}

func (h *StudentHandler) profile(c *fiber.Ctx) error {
	profile, err := h.students.Profile(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load profile")
	}
	return utils.SendSuccess(c, "profile retrieved", profile)
}

func (h *StudentHandler) updateProfile(c *fiber.Ctx) error {
	var payload dto.StudentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	profile, err := h.students.UpdateProfile(c.UserContext(), middleware.UserID(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update profile")
	}
	return utils.SendSuccess(c, "profile updated", profile)
}

func (h *StudentHandler) rank(c *fiber.Ctx) error {
	ranks, err := h.rankings.Ranks(c.UserContext(), middleware.UserID(c), testTypeQuery(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load ranks")
	}
	return utils.SendSuccess(c, "ranks retrieved", ranks)
}

func (h *StudentHandler) saveQuizMarks(c *fiber.Ctx) error {
	var payload dto.QuizSubmission
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.rankings.SaveQuizMarks(c.UserContext(), middleware.UserID(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to save quiz marks")
	}
	return utils.SendCreated(c, "quiz marks saved", result)
}

func (h *StudentHandler) updatePaymentStatus(c *fiber.Ctx) error {
	var payload dto.PaymentStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	profile, err := h.students.UpdatePaymentStatus(c.UserContext(), middleware.UserID(c), payload.PaymentStatus)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update payment status")
	}
	return utils.SendSuccess(c, "payment status updated", profile)
}

func (h *StudentHandler) testCounts(c *fiber.Ctx) error {
	counts, err := h.students.TestCounts(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load test counts")
	}
	return utils.SendSuccess(c, "test counts retrieved", counts)
}

func (h *StudentHandler) subjectMarks(c *fiber.Ctx) error {
	marks, err := h.students.SubjectMarks(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load subject marks")
	}
	return utils.SendSuccess(c, "subject marks retrieved", marks)
}

func (h *StudentHandler) verifyCertificate(c *fiber.Ctx) error {
	var payload dto.VerifyCertificateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if payload.CertificateCode == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "certificate code is required")
	}

	certificate, err := h.certificates.Verify(c.UserContext(), payload.CertificateCode)
	if err != nil {
		return respondError(c, h.logger, err, "failed to verify certificate")
	}
	return utils.SendSuccess(c, "certificate verified", certificate)
}

func (h *StudentHandler) requestCallback(c *fiber.Ctx) error {
	var payload dto.CallbackRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.callbacks.Submit(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to submit callback request")
	}
	return utils.SendCreated(c, "callback request received", response)
}
