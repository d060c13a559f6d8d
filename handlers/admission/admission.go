package admission

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduadmit/model"
	"github.com/sahilchouksey/eduadmit/services"
	"github.com/sahilchouksey/eduadmit/utils/middleware"
	"github.com/sahilchouksey/eduadmit/utils/response"
	"github.com/sahilchouksey/eduadmit/utils/validation"
	"gorm.io/gorm"
)

// AdmissionHandler handles admission submission, review and lifecycle
// endpoints.
type AdmissionHandler struct {
	db               *gorm.DB
	admissionService *services.AdmissionService
	instituteService *services.InstituteService
	validator        *validation.Validator
}

// NewAdmissionHandler creates a new admission handler
func NewAdmissionHandler(db *gorm.DB, admissionService *services.AdmissionService, instituteService *services.InstituteService) *AdmissionHandler {
	return &AdmissionHandler{
		db:               db,
		admissionService: admissionService,
		instituteService: instituteService,
		validator:        validation.NewValidator(),
	}
}

// DocumentRequest is one document reference in a submission
type DocumentRequest struct {
	DocType string `json:"doc_type" validate:"required,doc_type"`
	FileURL string `json:"file_url" validate:"required,url,max=512"`
}

// SubmitRequest represents an admission submission
type SubmitRequest struct {
	StudentName string            `json:"student_name" validate:"required,min=2,max=150"`
	Email       string            `json:"email" validate:"required,email"`
	Phone       string            `json:"phone" validate:"omitempty,max=50"`
	Address     string            `json:"address" validate:"omitempty,max=255"`
	DateOfBirth *time.Time        `json:"date_of_birth"`
	Gender      string            `json:"gender" validate:"omitempty,oneof=male female other"`
	CourseID    uint              `json:"course_id" validate:"required"`
	Documents   []DocumentRequest `json:"documents" validate:"omitempty,max=10,dive"`
}

// TransitionRequest carries the requested status action
type TransitionRequest struct {
	Action string `json:"action" validate:"required,oneof=shortlist accept reject"`
}

// Submit handles POST /admissions
func (h *AdmissionHandler) Submit(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	documents := make([]services.DocumentInput, 0, len(req.Documents))
	for _, doc := range req.Documents {
		documents = append(documents, services.DocumentInput{
			DocType: doc.DocType,
			FileURL: doc.FileURL,
		})
	}

	admission, err := h.admissionService.Submit(c.Context(), userID, services.SubmitAdmissionRequest{
		StudentName: validation.SanitizeString(req.StudentName),
		Email:       validation.SanitizeString(req.Email),
		Phone:       req.Phone,
		Address:     req.Address,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		CourseID:    req.CourseID,
		Documents:   documents,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInstituteNotApproved):
			return response.UnprocessableEntity(c, "The course's institute is not accepting admissions", "INSTITUTE_NOT_APPROVED")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return response.NotFound(c, "Course not found")
		default:
			return response.InternalServerError(c, "Failed to submit admission")
		}
	}

	return response.Created(c, admission)
}

// ListMine handles GET /admissions, the applicant's own admissions
func (h *AdmissionHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var admissions []model.Admission
	if err := h.db.Preload("Course").Preload("Institute").Preload("Documents").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&admissions).Error; err != nil {
		return response.InternalServerError(c, "Failed to list admissions")
	}

	return response.Success(c, admissions)
}

// Get handles GET /admissions/:id. Visible to the applicant and to the
// owner of the institute it targets.
func (h *AdmissionHandler) Get(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid admission ID")
	}

	var admission model.Admission
	err = h.db.Preload("Course").Preload("Institute").Preload("Documents").
		First(&admission, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Admission not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load admission")
	}

	if !h.canView(c, userID, &admission) {
		return response.NotFound(c, "Admission not found")
	}

	return response.Success(c, admission)
}

// ListForInstitute handles GET /institutes/admissions, the review queue
// for the caller's approved institute.
func (h *AdmissionHandler) ListForInstitute(c *fiber.Ctx) error {
	institute, errResp := h.ownerGate(c)
	if errResp != nil {
		return errResp
	}

	query := h.db.Model(&model.Admission{}).Where("institute_id = ?", institute.ID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	pagination := response.CalculatePagination(page, limit, 0)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count admissions")
	}

	var admissions []model.Admission
	if err := query.Preload("Course").Preload("Documents").
		Order("created_at DESC").
		Limit(pagination.PerPage).Offset(offset).
		Find(&admissions).Error; err != nil {
		return response.InternalServerError(c, "Failed to list admissions")
	}

	return response.Paginated(c, admissions, response.CalculatePagination(page, limit, total))
}

// Transition handles POST /admissions/:id/transition. Institute owners
// manage their own admissions through the single state machine entry
// point.
func (h *AdmissionHandler) Transition(c *fiber.Ctx) error {
	institute, errResp := h.ownerGate(c)
	if errResp != nil {
		return errResp
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid admission ID")
	}

	var req TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	// The admission must belong to the caller's institute
	var admission model.Admission
	err = h.db.Select("id").
		Where("id = ? AND institute_id = ?", id, institute.ID).
		First(&admission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Admission not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load admission")
	}

	result, err := h.admissionService.Transition(c.Context(), uint(id), services.TransitionAction(req.Action))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidTransition):
			return response.UnprocessableEntity(c, "This status change is not allowed", "INVALID_TRANSITION")
		case errors.Is(err, services.ErrIncompleteApplicant):
			return response.UnprocessableEntity(c, "The admission has no linked student or course", "INCOMPLETE_APPLICANT")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return response.NotFound(c, "Admission not found")
		default:
			return response.InternalServerError(c, "Failed to update admission")
		}
	}

	return response.Success(c, fiber.Map{
		"admission":        result.Admission,
		"enrollment":       result.Enrollment,
		"already_accepted": result.AlreadyAccepted,
		"already_enrolled": result.AlreadyEnrolled,
		"seats_exhausted":  result.SeatsExhausted,
	})
}

// RemoveCourse handles DELETE /admissions/:id/course. Detaches the course
// without deleting the admission record.
func (h *AdmissionHandler) RemoveCourse(c *fiber.Ctx) error {
	institute, errResp := h.ownerGate(c)
	if errResp != nil {
		return errResp
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid admission ID")
	}

	var admission model.Admission
	err = h.db.Select("id").
		Where("id = ? AND institute_id = ?", id, institute.ID).
		First(&admission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Admission not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load admission")
	}

	updated, err := h.admissionService.RemoveCourse(c.Context(), uint(id))
	if err != nil {
		return response.InternalServerError(c, "Failed to remove course")
	}

	return response.SuccessWithMessage(c, "Course removed from admission", updated)
}

// OfferLetter handles GET /admissions/:id/offer-letter. Returns the data
// a client needs to render the letter.
func (h *AdmissionHandler) OfferLetter(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid admission ID")
	}

	data, err := h.admissionService.OfferLetter(c.Context(), uint(id), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotEligible):
			return response.UnprocessableEntity(c, "This admission is not eligible for an offer letter", "NOT_ELIGIBLE")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return response.NotFound(c, "Admission not found")
		default:
			return response.InternalServerError(c, "Failed to build offer letter")
		}
	}

	return response.Success(c, data)
}

func (h *AdmissionHandler) ownerGate(c *fiber.Ctx) (*model.Institute, error) {
	student, ok := middleware.GetStudent(c)
	if !ok {
		return nil, response.Forbidden(c, "A student identity is required")
	}

	institute, err := h.instituteService.ApprovedInstitute(c.Context(), student.ID)
	if err != nil {
		if errors.Is(err, services.ErrInstituteNotApproved) {
			return nil, response.Forbidden(c, "Your institute is not approved")
		}
		return nil, response.InternalServerError(c, "Failed to load institute")
	}
	return institute, nil
}

func (h *AdmissionHandler) canView(c *fiber.Ctx, userID uint, admission *model.Admission) bool {
	if admission.UserID != nil && *admission.UserID == userID {
		return true
	}

	student, ok := middleware.GetStudent(c)
	if !ok {
		return false
	}
	institute, err := h.instituteService.ApprovedInstitute(c.Context(), student.ID)
	if err != nil {
		return false
	}
	return institute.ID == admission.InstituteID
}
