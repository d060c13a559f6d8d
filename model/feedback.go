package model

import (
	"time"
)

// StudentFeedback is free-text feedback tied to a user. Rows are append
// only; there is no update or delete path.
type StudentFeedback struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// TableName specifies the table name for StudentFeedback
func (StudentFeedback) TableName() string {
	return "student_feedback"
}
