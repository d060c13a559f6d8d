package enrollment

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduadmit/services"
	"github.com/sahilchouksey/eduadmit/utils/middleware"
	"github.com/sahilchouksey/eduadmit/utils/response"
	"gorm.io/gorm"
)

// EnrollmentHandler exposes read-only enrollment views. Enrollments are
// only ever created by admission acceptance.
type EnrollmentHandler struct {
	db                *gorm.DB
	enrollmentService *services.EnrollmentService
	instituteService  *services.InstituteService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(db *gorm.DB, enrollmentService *services.EnrollmentService, instituteService *services.InstituteService) *EnrollmentHandler {
	return &EnrollmentHandler{
		db:                db,
		enrollmentService: enrollmentService,
		instituteService:  instituteService,
	}
}

// ListMine handles GET /enrollments, the student's own enrollments
func (h *EnrollmentHandler) ListMine(c *fiber.Ctx) error {
	student, ok := middleware.GetStudent(c)
	if !ok {
		return response.Forbidden(c, "A student identity is required")
	}

	enrollments, err := h.enrollmentService.ListByStudent(c.Context(), student.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list enrollments")
	}

	return response.Success(c, enrollments)
}

// ListForInstitute handles GET /institutes/enrollments, the roster of the
// caller's approved institute.
func (h *EnrollmentHandler) ListForInstitute(c *fiber.Ctx) error {
	student, ok := middleware.GetStudent(c)
	if !ok {
		return response.Forbidden(c, "A student identity is required")
	}

	institute, err := h.instituteService.ApprovedInstitute(c.Context(), student.ID)
	if err != nil {
		if errors.Is(err, services.ErrInstituteNotApproved) {
			return response.Forbidden(c, "Your institute is not approved")
		}
		return response.InternalServerError(c, "Failed to load institute")
	}

	enrollments, err := h.enrollmentService.ListByInstitute(c.Context(), institute.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list enrollments")
	}

	return response.Success(c, enrollments)
}
