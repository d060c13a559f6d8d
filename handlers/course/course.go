package course

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduadmit/model"
	"github.com/sahilchouksey/eduadmit/services"
	"github.com/sahilchouksey/eduadmit/utils/middleware"
	"github.com/sahilchouksey/eduadmit/utils/response"
	"github.com/sahilchouksey/eduadmit/utils/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CourseHandler handles course CRUD and the public catalog. Writes go
// through the approved-institute gate; DiscountPrice is derived in the
// model hook and never accepted from the client.
type CourseHandler struct {
	db               *gorm.DB
	instituteService *services.InstituteService
	validator        *validation.Validator
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB, instituteService *services.InstituteService) *CourseHandler {
	return &CourseHandler{
		db:               db,
		instituteService: instituteService,
		validator:        validation.NewValidator(),
	}
}

// CourseRequest represents a create/update request for a course
type CourseRequest struct {
	CategoryID      uint   `json:"category_id" validate:"required"`
	Title           string `json:"title" validate:"required,min=2,max=200"`
	Description     string `json:"description" validate:"omitempty,max=10000"`
	ImageURL        string `json:"image_url" validate:"omitempty,url,max=512"`
	Duration        string `json:"duration" validate:"omitempty,max=100"`
	Level           string `json:"level" validate:"omitempty,course_level"`
	ClassType       string `json:"class_type" validate:"omitempty,class_type"`
	Seats           uint   `json:"seats" validate:"lte=100000"`
	OriginalPrice   string `json:"original_price" validate:"required"`
	DiscountPercent uint   `json:"discount_percent" validate:"lte=100"`
}

func (h *CourseHandler) gate(c *fiber.Ctx) (*model.Institute, error) {
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

func (h *CourseHandler) applyRequest(course *model.Course, req CourseRequest) error {
	price, err := decimal.NewFromString(req.OriginalPrice)
	if err != nil || price.IsNegative() {
		return errors.New("original_price must be a non-negative decimal")
	}

	course.CategoryID = req.CategoryID
	course.Title = validation.SanitizeString(req.Title)
	course.Description = req.Description
	course.ImageURL = req.ImageURL
	course.Duration = req.Duration
	course.Level = req.Level
	course.ClassType = req.ClassType
	course.Seats = req.Seats
	course.OriginalPrice = price
	course.DiscountPercent = req.DiscountPercent
	return nil
}

// Create handles POST /courses
func (h *CourseHandler) Create(c *fiber.Ctx) error {
	institute, errResp := h.gate(c)
	if errResp != nil {
		return errResp
	}

	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	// The category must belong to the caller's institute
	var category model.CourseCategory
	err := h.db.Where("id = ? AND institute_id = ?", req.CategoryID, institute.ID).
		First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Category not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load category")
	}

	course := model.Course{InstituteID: institute.ID}
	if err := h.applyRequest(&course, req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	if err := h.db.Create(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to create course")
	}

	return response.Created(c, course)
}

// Update handles PUT /courses/:id. The save path re-derives DiscountPrice,
// so a price or percent change is always consistent.
func (h *CourseHandler) Update(c *fiber.Ctx) error {
	institute, errResp := h.gate(c)
	if errResp != nil {
		return errResp
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var course model.Course
	err = h.db.Where("id = ? AND institute_id = ?", id, institute.ID).First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Course not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load course")
	}

	if req.CategoryID != course.CategoryID {
		var category model.CourseCategory
		err := h.db.Where("id = ? AND institute_id = ?", req.CategoryID, institute.ID).
			First(&category).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Category not found")
		}
		if err != nil {
			return response.InternalServerError(c, "Failed to load category")
		}
	}

	if err := h.applyRequest(&course, req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	if err := h.db.Save(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to update course")
	}

	return response.SuccessWithMessage(c, "Course updated", course)
}

// Delete handles DELETE /courses/:id
func (h *CourseHandler) Delete(c *fiber.Ctx) error {
	institute, errResp := h.gate(c)
	if errResp != nil {
		return errResp
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	result := h.db.Where("id = ? AND institute_id = ?", id, institute.ID).
		Delete(&model.Course{})
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete course")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Course not found")
	}

	return response.NoContent(c)
}

// List handles GET /courses, the public catalog. Only courses of approved
// institutes are listed. Supports filtering by level, class type and
// category.
func (h *CourseHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	pagination := response.CalculatePagination(page, limit, 0)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	query := h.db.Model(&model.Course{}).
		Joins("JOIN institutes ON institutes.id = courses.institute_id").
		Where("institutes.status = ? AND institutes.deleted_at IS NULL", model.InstituteStatusApproved)

	if level := c.Query("level"); level != "" {
		query = query.Where("courses.level = ?", level)
	}
	if classType := c.Query("class_type"); classType != "" {
		query = query.Where("courses.class_type = ?", classType)
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		query = query.Where("courses.category_id = ?", categoryID)
	}
	if search := c.Query("q"); search != "" {
		query = query.Where("courses.title ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count courses")
	}

	var courses []model.Course
	if err := query.Preload("Institute").Preload("Category").
		Order("courses.created_at DESC").
		Limit(pagination.PerPage).Offset(offset).
		Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to list courses")
	}

	return response.Paginated(c, courses, response.CalculatePagination(page, limit, total))
}

// Get handles GET /courses/:id
func (h *CourseHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var course model.Course
	err = h.db.Preload("Institute").Preload("Category").First(&course, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NotFound(c, "Course not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load course")
	}

	if !course.Institute.IsActionable() {
		return response.NotFound(c, "Course not found")
	}

	return response.Success(c, course)
}
