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

// SchoolHandler exposes the school representative portal.
type SchoolHandler struct {
	schools service.SchoolService
	imports service.BulkImportService
	logger  zerolog.Logger
}

// NewSchoolHandler constructs a school handler.
func NewSchoolHandler(schools service.SchoolService, imports service.BulkImportService, logger zerolog.Logger) *SchoolHandler {
	return &SchoolHandler{
		schools: schools,
		imports: imports,
		logger:  logger.With().Str("component", "school_handler").Logger(),
	}
}

// Register wires school routes.
func (h *SchoolHandler) Register(router fiber.Router, authenticate fiber.Handler) {
	router.Post("/register", h.register)
	router.Post("/login", h.login)

	school := func(next fiber.Handler) fiber.Handler {
		return middleware.WithAuth(next, middleware.AuthOptions{Role: models.RoleSchool})
	}
	router.Post("/bulk-upload", authenticate, school(h.bulkUpload))
	router.Get("/students", authenticate, school(h.students))
	router.Get("/representative", authenticate, school(h.representative))
	router.Get("/subject-marks", authenticate, school(h.subjectMarks))
	router.Get("/rankings", authenticate, school(h.rankings))
}

func (h *SchoolHandler) register(c *fiber.Ctx) error {
	var payload dto.SchoolRegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.schools.Register(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to register school")
	}
	return utils.SendCreated(c, "school registered", response)
}

func (h *SchoolHandler) login(c *fiber.Ctx) error {
	var payload dto.StaffLoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.schools.Login(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to login")
	}
	return utils.SendSuccess(c, "login successful", response)
}

// representativeOf loads the caller's school so roster queries are scoped to it.
func (h *SchoolHandler) representativeOf(c *fiber.Ctx) (dto.RepresentativeResponse, error) {
	return h.schools.Representative(c.UserContext(), middleware.UserID(c))
}

func (h *SchoolHandler) bulkUpload(c *fiber.Ctx) error {
	rep, err := h.representativeOf(c)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load school")
	}
	return receiveWorkbook(c, h.logger, h.imports, func(name string, data io.Reader) (dto.BulkResult, error) {
		return h.imports.ImportStudents(c.UserContext(), name, data, service.StudentImportOptions{SchoolName: rep.SchoolName})
	})
}

func (h *SchoolHandler) students(c *fiber.Ctx) error {
	rep, err := h.representativeOf(c)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load school")
	}

	students, err := h.schools.Students(c.UserContext(), rep.SchoolName, c.Query("standard"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load students")
	}
	return utils.SendSuccess(c, "students retrieved", students)
}

func (h *SchoolHandler) representative(c *fiber.Ctx) error {
	rep, err := h.representativeOf(c)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load representative")
	}
	return utils.SendSuccess(c, "representative retrieved", rep)
}

func (h *SchoolHandler) subjectMarks(c *fiber.Ctx) error {
	rep, err := h.representativeOf(c)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load school")
	}

	report, err := h.schools.SubjectMarks(c.UserContext(), rep.SchoolName)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load subject marks")
	}
	return utils.SendSuccess(c, "subject marks retrieved", report)
}

func (h *SchoolHandler) rankings(c *fiber.Ctx) error {
	rep, err := h.representativeOf(c)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load school")
	}

	placements, err := h.schools.Rankings(c.UserContext(), rep.SchoolName, testTypeQuery(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load rankings")
	}
	return utils.SendSuccess(c, "rankings retrieved", placements)
}
