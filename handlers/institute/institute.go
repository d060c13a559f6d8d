package institute

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduadmit/model"
	"github.com/sahilchouksey/eduadmit/services"
	"github.com/sahilchouksey/eduadmit/utils/middleware"
	"github.com/sahilchouksey/eduadmit/utils/response"
	"github.com/sahilchouksey/eduadmit/utils/validation"
	"gorm.io/gorm"
)

// InstituteHandler handles institute application and review endpoints
type InstituteHandler struct {
	db               *gorm.DB
	instituteService *services.InstituteService
	validator        *validation.Validator
}

// NewInstituteHandler creates a new institute handler
func NewInstituteHandler(db *gorm.DB, instituteService *services.InstituteService) *InstituteHandler {
	return &InstituteHandler{
		db:               db,
		instituteService: instituteService,
		validator:        validation.NewValidator(),
	}
}

// ApplyRequest represents an institute application
type ApplyRequest struct {
	Name           string `json:"name" validate:"required,min=2,max=200"`
	Description    string `json:"description" validate:"omitempty,max=5000"`
	Estd           string `json:"estd" validate:"omitempty,max=20"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"omitempty,max=20"`
	Website        string `json:"website" validate:"omitempty,url,max=255"`
	Address        string `json:"address" validate:"omitempty,max=255"`
	LogoURL        string `json:"logo_url" validate:"omitempty,url,max=512"`
	BackgroundURL  string `json:"background_url" validate:"omitempty,url,max=512"`
	SignatureURL   string `json:"signature_url" validate:"omitempty,url,max=512"`
	StampURL       string `json:"stamp_url" validate:"omitempty,url,max=512"`
	RegisterNumber string `json:"register_number" validate:"omitempty,max=100"`
	RegisterDocURL string `json:"register_doc_url" validate:"omitempty,url,max=512"`
}

// RejectRequest carries the admin's rejection message
type RejectRequest struct {
	Message string `json:"message" validate:"required,min=5,max=2000"`
}

// Apply handles POST /institutes/apply
func (h *InstituteHandler) Apply(c *fiber.Ctx) error {
	student, ok := middleware.GetStudent(c)
	if !ok {
		return response.Forbidden(c, "A student identity is required to apply")
	}

	var req ApplyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	institute, err := h.instituteService.Apply(c.Context(), student.ID, services.ApplyInstituteRequest{
		Name:           validation.SanitizeString(req.Name),
		Description:    req.Description,
		Estd:           req.Estd,
		Email:          validation.SanitizeString(req.Email),
		Phone:          req.Phone,
		Website:        req.Website,
		Address:        req.Address,
		LogoURL:        req.LogoURL,
		BackgroundURL:  req.BackgroundURL,
		SignatureURL:   req.SignatureURL,
		StampURL:       req.StampURL,
		RegisterNumber: req.RegisterNumber,
		RegisterDocURL: req.RegisterDocURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrApplicationPending):
			return response.Conflict(c, "Your previous application is still pending review")
		case errors.Is(err, services.ErrAlreadyApproved):
			return response.Conflict(c, "You already have an approved institute")
		default:
			return response.InternalServerError(c, "Failed to submit application")
		}
	}

	return response.Created(c, institute)
}

// GetMine handles GET /institutes/mine, the owner's dashboard view of
// their institute regardless of status.
func (h *InstituteHandler) GetMine(c *fiber.Ctx) error {
	student, ok := middleware.GetStudent(c)
	if !ok {
		return response.Forbidden(c, "A student identity is required")
	}

	institute, err := h.instituteService.OwnedInstitute(c.Context(), student.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "You have not applied for an institute")
		}
		return response.InternalServerError(c, "Failed to load institute")
	}

	return response.Success(c, institute)
}

// Update handles PUT /institutes/mine. The owner may edit institute
// details at any time; status and admin message are not touchable here.
func (h *InstituteHandler) Update(c *fiber.Ctx) error {
	student, ok := middleware.GetStudent(c)
	if !ok {
		return response.Forbidden(c, "A student identity is required")
	}

	var req ApplyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var institute model.Institute
	err := h.db.Where("owner_id = ?", student.ID).First(&institute).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "You have not applied for an institute")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load institute")
	}

	institute.Name = validation.SanitizeString(req.Name)
	institute.Description = req.Description
	institute.Estd = req.Estd
	institute.Email = validation.SanitizeString(req.Email)
	institute.Phone = req.Phone
	institute.Website = req.Website
	institute.Address = req.Address
	institute.LogoURL = req.LogoURL
	institute.BackgroundURL = req.BackgroundURL
	institute.SignatureURL = req.SignatureURL
	institute.StampURL = req.StampURL
	institute.RegisterNumber = req.RegisterNumber
	institute.RegisterDocURL = req.RegisterDocURL

	if err := h.db.Save(&institute).Error; err != nil {
		return response.InternalServerError(c, "Failed to update institute")
	}

	return response.SuccessWithMessage(c, "Institute updated", institute)
}

// Dashboard handles GET /institutes/dashboard: the owner's institute with
// its categories, courses and pending admission count in one response.
func (h *InstituteHandler) Dashboard(c *fiber.Ctx) error {
	student, ok := middleware.GetStudent(c)
	if !ok {
		return response.Forbidden(c, "A student identity is required")
	}

	var institute model.Institute
	err := h.db.Preload("Categories.Courses").
		Where("owner_id = ?", student.ID).
		First(&institute).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "You have not applied for an institute")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load institute")
	}

	var pendingAdmissions int64
	h.db.Model(&model.Admission{}).
		Where("institute_id = ? AND status = ?", institute.ID, model.AdmissionStatusPending).
		Count(&pendingAdmissions)

	var enrollmentCount int64
	h.db.Model(&model.Enrollment{}).
		Where("institute_id = ?", institute.ID).
		Count(&enrollmentCount)

	return response.Success(c, fiber.Map{
		"institute":          institute,
		"pending_admissions": pendingAdmissions,
		"enrollment_count":   enrollmentCount,
	})
}

// List handles GET /institutes, the public catalog of approved institutes
func (h *InstituteHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	pagination := response.CalculatePagination(page, limit, 0)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	institutes, total, err := h.instituteService.ListApproved(c.Context(), pagination.PerPage, offset)
	if err != nil {
		return response.InternalServerError(c, "Failed to list institutes")
	}

	return response.Paginated(c, institutes, response.CalculatePagination(page, limit, total))
}

// Get handles GET /institutes/:id. Only approved institutes are public.
func (h *InstituteHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid institute ID")
	}

	var institute model.Institute
	err = h.db.Preload("Categories").Preload("Courses").
		Where("id = ? AND status = ?", id, model.InstituteStatusApproved).
		First(&institute).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Institute not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load institute")
	}

	return response.Success(c, institute)
}

// AdminList handles GET /admin/institutes with optional ?status= filter
func (h *InstituteHandler) AdminList(c *fiber.Ctx) error {
	status := model.InstituteStatus(c.Query("status"))
	switch status {
	case "", model.InstituteStatusPending, model.InstituteStatusApproved, model.InstituteStatusRejected:
	default:
		return response.BadRequest(c, "Invalid status filter")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	pagination := response.CalculatePagination(page, limit, 0)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	institutes, total, err := h.instituteService.ListByStatus(c.Context(), status, pagination.PerPage, offset)
	if err != nil {
		return response.InternalServerError(c, "Failed to list institutes")
	}

	return response.Paginated(c, institutes, response.CalculatePagination(page, limit, total))
}

// Approve handles POST /admin/institutes/:id/approve
func (h *InstituteHandler) Approve(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid institute ID")
	}

	institute, err := h.instituteService.Approve(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Institute not found")
		}
		return response.InternalServerError(c, "Failed to approve institute")
	}

	return response.SuccessWithMessage(c, "Institute approved", institute)
}

// Reject handles POST /admin/institutes/:id/reject
func (h *InstituteHandler) Reject(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid institute ID")
	}

	var req RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	institute, err := h.instituteService.Reject(c.Context(), uint(id), validation.SanitizeString(req.Message))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Institute not found")
		}
		return response.InternalServerError(c, "Failed to reject institute")
	}

	return response.SuccessWithMessage(c, "Institute rejected", institute)
}
