package category

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

// CategoryHandler handles course category endpoints. Every write goes
// through the approved-institute gate.
type CategoryHandler struct {
	db               *gorm.DB
	instituteService *services.InstituteService
	validator        *validation.Validator
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(db *gorm.DB, instituteService *services.InstituteService) *CategoryHandler {
	return &CategoryHandler{
		db:               db,
		instituteService: instituteService,
		validator:        validation.NewValidator(),
	}
}

// CategoryRequest represents a create/update request for a category
type CategoryRequest struct {
	Title       string `json:"title" validate:"required,min=2,max=200"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	ImageURL    string `json:"image_url" validate:"omitempty,url,max=512"`
}

// gate resolves the caller's approved institute or writes the error
// response and returns nil.
func (h *CategoryHandler) gate(c *fiber.Ctx) (*model.Institute, error) {
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

// Create handles POST /categories
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	institute, errResp := h.gate(c)
	if errResp != nil {
		return errResp
	}

	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	category := model.CourseCategory{
		InstituteID: institute.ID,
		Title:       validation.SanitizeString(req.Title),
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if err := h.db.Create(&category).Error; err != nil {
		return response.InternalServerError(c, "Failed to create category")
	}

	return response.Created(c, category)
}

// Update handles PUT /categories/:id
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	institute, errResp := h.gate(c)
	if errResp != nil {
		return errResp
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid category ID")
	}

	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var category model.CourseCategory
	err = h.db.Where("id = ? AND institute_id = ?", id, institute.ID).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Category not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load category")
	}

	category.Title = validation.SanitizeString(req.Title)
	category.Description = req.Description
	category.ImageURL = req.ImageURL
	if err := h.db.Save(&category).Error; err != nil {
		return response.InternalServerError(c, "Failed to update category")
	}

	return response.SuccessWithMessage(c, "Category updated", category)
}

// Delete handles DELETE /categories/:id
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	institute, errResp := h.gate(c)
	if errResp != nil {
		return errResp
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid category ID")
	}

	result := h.db.Where("id = ? AND institute_id = ?", id, institute.ID).
		Delete(&model.CourseCategory{})
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete category")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Category not found")
	}

	return response.NoContent(c)
}

// ListCourses handles GET /categories/:id/courses, the public view of the
// courses in one category of an approved institute.
func (h *CategoryHandler) ListCourses(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid category ID")
	}

	var category model.CourseCategory
	err = h.db.Preload("Institute").First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Category not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load category")
	}

	if !category.Institute.IsActionable() {
		return response.NotFound(c, "Category not found")
	}

	var courses []model.Course
	if err := h.db.Where("category_id = ?", category.ID).
		Order("created_at DESC").Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to list courses")
	}

	return response.Success(c, fiber.Map{
		"category": category,
		"courses":  courses,
	})
}

// ListByInstitute handles GET /institutes/:id/categories, the public view
// of an approved institute's categories.
func (h *CategoryHandler) ListByInstitute(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid institute ID")
	}

	var institute model.Institute
	err = h.db.Where("id = ? AND status = ?", id, model.InstituteStatusApproved).
		First(&institute).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Institute not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load institute")
	}

	var categories []model.CourseCategory
	if err := h.db.Preload("Courses").Where("institute_id = ?", institute.ID).
		Order("created_at DESC").Find(&categories).Error; err != nil {
		return response.InternalServerError(c, "Failed to list categories")
	}

	return response.Success(c, categories)
}
