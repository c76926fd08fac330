package handler

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/middleware"
	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/service"
	"github.com/noah-isme/olympiad-api/internal/utils"
)

// AdminHandler exposes the back-office surface.
type AdminHandler struct {
	admin     service.AdminService
	codes     service.ReferenceCodeService
	callbacks service.CallbackService
	imports   service.BulkImportService
	logger    zerolog.Logger
}

// AdminHandlerDeps groups the services behind the admin routes.
type AdminHandlerDeps struct {
	Admin          service.AdminService
	ReferenceCodes service.ReferenceCodeService
	Callbacks      service.CallbackService
	Imports        service.BulkImportService
	Logger         zerolog.Logger
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(deps AdminHandlerDeps) *AdminHandler {
	return &AdminHandler{
		admin:     deps.Admin,
		codes:     deps.ReferenceCodes,
		callbacks: deps.Callbacks,
		imports:   deps.Imports,
		logger:    deps.Logger.With().Str("component", "admin_handler").Logger(),
	}
}

// Register wires admin routes.
func (h *AdminHandler) Register(router fiber.Router, authenticate fiber.Handler) {
	router.Post("/login", h.login)
	router.Post("/reference-codes/validate", h.validateReferenceCode)

	admin := func(next fiber.Handler) fiber.Handler {
		return middleware.WithAuth(next, middleware.AuthOptions{Role: models.RoleAdmin})
	}
	router.Post("/register", authenticate, admin(h.register))

	router.Get("/students", authenticate, admin(h.students))
	router.Get("/students/test-counts", authenticate, admin(h.testCounts))
	router.Post("/students/update", authenticate, admin(h.updateStudent))

	router.Get("/reference-codes", authenticate, admin(h.listReferenceCodes))
	router.Post("/reference-codes", authenticate, admin(h.generateReferenceCode))

	router.Get("/schools", authenticate, admin(h.schools))

	router.Get("/coordinators", authenticate, admin(h.coordinators))
	router.Post("/coordinators/approve", authenticate, admin(h.approveCoordinator))
	router.Delete("/coordinators/:id", authenticate, admin(h.deleteCoordinator))
	router.Get("/coordinators/:id/payment-details", authenticate, admin(h.paymentDetails))

	router.Post("/bulk-upload/students", authenticate, admin(h.bulkUploadStudents))
	router.Post("/bulk-upload/coordinators", authenticate, admin(h.bulkUploadCoordinators))

	router.Get("/request-callbacks", authenticate, admin(h.callbackRequests))
}

func (h *AdminHandler) login(c *fiber.Ctx) error {
	var payload dto.StaffLoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.admin.Login(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to login")
	}
	return utils.SendSuccess(c, "login successful", response)
}

func (h *AdminHandler) register(c *fiber.Ctx) error {
	var payload dto.AdminRegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	created, err := h.admin.Register(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to register admin")
	}

	requestLogger(h.logger, c).Info().
		Str("created_by", middleware.UserID(c)).
		Str("uid", created.UID).
		Msg("admin account created")
	return utils.SendCreated(c, "admin registered", created)
}

func (h *AdminHandler) students(c *fiber.Ctx) error {
	students, err := h.admin.Students(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to load students")
	}
	return utils.SendSuccess(c, "students retrieved", students)
}

func (h *AdminHandler) testCounts(c *fiber.Ctx) error {
	counts, err := h.admin.TestCounts(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to load test counts")
	}
	return utils.SendSuccess(c, "test counts retrieved", counts)
}

func (h *AdminHandler) updateStudent(c *fiber.Ctx) error {
	var payload dto.AdminStudentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	profile, err := h.admin.UpdateStudent(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update student")
	}
	if profile == nil {
		return utils.SendSuccess(c, "student deleted", nil)
	}
	return utils.SendSuccess(c, "student updated", profile)
}

func (h *AdminHandler) generateReferenceCode(c *fiber.Ctx) error {
	var payload dto.ReferenceCodeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	code, err := h.codes.Generate(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to generate reference code")
	}
	return utils.SendCreated(c, "reference code generated", code)
}

func (h *AdminHandler) validateReferenceCode(c *fiber.Ctx) error {
	var payload dto.ValidateReferenceCodeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.codes.Validate(c.UserContext(), payload.ReferenceCode); err != nil {
		return respondError(c, h.logger, err, "failed to validate reference code")
	}
	return utils.SendSuccess(c, "reference code is valid", fiber.Map{"valid": true})
}

func (h *AdminHandler) listReferenceCodes(c *fiber.Ctx) error {
	codes, err := h.codes.List(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to load reference codes")
	}
	return utils.SendSuccess(c, "reference codes retrieved", codes)
}

func (h *AdminHandler) schools(c *fiber.Ctx) error {
	schools, err := h.admin.Schools(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to load schools")
	}
	return utils.SendSuccess(c, "schools retrieved", schools)
}

func (h *AdminHandler) coordinators(c *fiber.Ctx) error {
	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	coordinators, err := h.admin.Coordinators(c.UserContext(), status)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load coordinators")
	}
	return utils.SendSuccess(c, "coordinators retrieved", coordinators)
}

func (h *AdminHandler) approveCoordinator(c *fiber.Ctx) error {
	var payload dto.ApproveCoordinatorRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(payload.UID) == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "uid is required")
	}

	coordinator, err := h.admin.ApproveCoordinator(c.UserContext(), payload.UID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to approve coordinator")
	}
	return utils.SendSuccess(c, "coordinator approved", coordinator)
}

func (h *AdminHandler) deleteCoordinator(c *fiber.Ctx) error {
	if err := h.admin.DeleteCoordinator(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, h.logger, err, "failed to delete coordinator")
	}
	return utils.SendSuccess(c, "coordinator deleted", nil)
}

func (h *AdminHandler) paymentDetails(c *fiber.Ctx) error {
	details, err := h.admin.PaymentDetails(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load payment details")
	}
	return utils.SendSuccess(c, "payment details retrieved", details)
}

func (h *AdminHandler) bulkUploadStudents(c *fiber.Ctx) error {
	return receiveWorkbook(c, h.logger, h.imports, func(name string, data io.Reader) (dto.BulkResult, error) {
		return h.imports.ImportStudents(c.UserContext(), name, data, service.StudentImportOptions{})
	})
}

func (h *AdminHandler) bulkUploadCoordinators(c *fiber.Ctx) error {
	return receiveWorkbook(c, h.logger, h.imports, func(name string, data io.Reader) (dto.BulkResult, error) {
		return h.imports.ImportCoordinators(c.UserContext(), name, data)
	})
}

func (h *AdminHandler) callbackRequests(c *fiber.Ctx) error {
	requests, err := h.callbacks.List(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to load callback requests")
	}
	return utils.SendSuccess(c, "callback requests retrieved", requests)
}
