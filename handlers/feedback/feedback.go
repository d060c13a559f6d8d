package feedback

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduadmit/model"
	"github.com/sahilchouksey/eduadmit/utils/middleware"
	"github.com/sahilchouksey/eduadmit/utils/response"
	"github.com/sahilchouksey/eduadmit/utils/validation"
	"gorm.io/gorm"
)

// FeedbackHandler handles student feedback endpoints. Feedback is append
// only; there is no update or delete.
type FeedbackHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(db *gorm.DB) *FeedbackHandler {
	return &FeedbackHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreateRequest represents a feedback submission
type CreateRequest struct {
	Text string `json:"text" validate:"required,min=3,max=5000"`
}

// Create handles POST /feedback
func (h *FeedbackHandler) Create(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	feedback := model.StudentFeedback{
		UserID: userID,
		Text:   validation.SanitizeString(req.Text),
	}
	if err := h.db.Create(&feedback).Error; err != nil {
		return response.InternalServerError(c, "Failed to submit feedback")
	}

	return response.Created(c, feedback)
}

// AdminList handles GET /admin/feedback
func (h *FeedbackHandler) AdminList(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	pagination := response.CalculatePagination(page, limit, 0)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var total int64
	if err := h.db.Model(&model.StudentFeedback{}).Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count feedback")
	}

	var feedback []model.StudentFeedback
	if err := h.db.Preload("User").
		Order("created_at DESC").
		Limit(pagination.PerPage).Offset(offset).
		Find(&feedback).Error; err != nil {
		return response.InternalServerError(c, "Failed to list feedback")
	}

	return response.Paginated(c, feedback, response.CalculatePagination(page, limit, total))
}
