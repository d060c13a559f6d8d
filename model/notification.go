package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationType represents the type/severity of notification
type NotificationType string

const (
	NotificationTypeInfo    NotificationType = "info"
	NotificationTypeSuccess NotificationType = "success"
	NotificationTypeWarning NotificationType = "warning"
	NotificationTypeError   NotificationType = "error"
)

// NotificationCategory represents the category of notification
type NotificationCategory string

const (
	NotificationCategoryAdmission NotificationCategory = "admission"
	NotificationCategoryInstitute NotificationCategory = "institute"
	NotificationCategoryPayment   NotificationCategory = "payment"
	NotificationCategoryGeneral   NotificationCategory = "general"
)

// UserNotification represents a notification for a user. Notifications are
// dispatched best-effort after state transitions and never block them.
type UserNotification struct {
	ID        uint                 `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	DeletedAt gorm.DeletedAt       `gorm:"index" json:"deleted_at,omitempty"`
	UserID    uint                 `gorm:"index;not null" json:"user_id"`
	Type      NotificationType     `gorm:"type:varchar(20);not null" json:"type"`
	Category  NotificationCategory `gorm:"type:varchar(30);not null" json:"category"`
	Title     string               `gorm:"type:varchar(255);not null" json:"title"`
	Message   string               `gorm:"type:text" json:"message"`
	Read      bool                 `gorm:"default:false" json:"read"`
	Metadata  datatypes.JSON       `gorm:"type:jsonb" json:"metadata,omitempty"` // Additional context

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// NotificationMetadata represents common metadata fields
type NotificationMetadata struct {
	AdmissionID uint   `json:"admission_id,omitempty"`
	InstituteID uint   `json:"institute_id,omitempty"`
	CourseID    uint   `json:"course_id,omitempty"`
	CourseTitle string `json:"course_title,omitempty"`
	Status      string `json:"status,omitempty"`
	PaymentRef  string `json:"payment_ref,omitempty"`
}
