package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduadmit/model"
	"github.com/sahilchouksey/eduadmit/utils/middleware"
	"github.com/sahilchouksey/eduadmit/utils/response"
	"github.com/sahilchouksey/eduadmit/utils/validation"
	"gorm.io/gorm"
)

// UpdateProfileRequest represents a profile update request
type UpdateProfileRequest struct {
	FullName    string     `json:"full_name" validate:"omitempty,min=2,max=150"`
	AvatarURL   string     `json:"avatar_url" validate:"omitempty,url,max=512"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Phone       string     `json:"phone" validate:"omitempty,max=20"`
	Address     string     `json:"address" validate:"omitempty,max=500"`
}

// GetProfile returns the authenticated user's profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var user model.User
	if err := h.db.Preload("Student").Preload("Profile").First(&user, userID).Error; err != nil {
		return response.NotFound(c, "User not found")
	}

	return response.Success(c, fiber.Map{
		"user":    toUserResponse(&user),
		"profile": user.Profile,
	})
}

// UpdateProfile updates the authenticated user's profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var profile model.Profile
	err := h.db.Where("user_id = ?", userID).First(&profile).Error
	if err == gorm.ErrRecordNotFound {
		profile = model.Profile{UserID: userID}
	} else if err != nil {
		return response.InternalServerError(c, "Failed to load profile")
	}

	if req.FullName != "" {
		profile.FullName = validation.SanitizeString(req.FullName)
	}
	if req.AvatarURL != "" {
		profile.AvatarURL = req.AvatarURL
	}
	if req.DateOfBirth != nil {
		profile.DateOfBirth = req.DateOfBirth
	}
	if req.Phone != "" {
		profile.Phone = validation.SanitizeString(req.Phone)
	}
	if req.Address != "" {
		profile.Address = validation.SanitizeString(req.Address)
	}

	if err := h.db.Save(&profile).Error; err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}

	return response.SuccessWithMessage(c, "Profile updated", profile)
}
