package model

import (
	"time"

	"gorm.io/gorm"
)

// InstituteStatus represents the administrative approval state of an institute
type InstituteStatus string

const (
	InstituteStatusPending  InstituteStatus = "pending"
	InstituteStatusApproved InstituteStatus = "approved"
	InstituteStatusRejected InstituteStatus = "rejected"
)

// Institute represents an educational institute applying to publish courses.
// Only an approved institute's categories and courses are actionable.
type Institute struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OwnerID        uint            `gorm:"not null;uniqueIndex" json:"owner_id"`
	Name           string          `gorm:"type:varchar(200);not null" json:"name"`
	Description    string          `gorm:"type:text" json:"description"`
	Estd           string          `gorm:"type:varchar(20)" json:"estd"`
	Email          string          `gorm:"type:varchar(255);not null" json:"email"`
	Phone          string          `gorm:"type:varchar(20)" json:"phone"`
	Website        string          `gorm:"type:varchar(255)" json:"website"`
	Address        string          `gorm:"type:varchar(255)" json:"address"`
	LogoURL        string          `gorm:"type:varchar(512)" json:"logo_url"`
	BackgroundURL  string          `gorm:"type:varchar(512)" json:"background_url"`
	SignatureURL   string          `gorm:"type:varchar(512)" json:"signature_url"`
	StampURL       string          `gorm:"type:varchar(512)" json:"stamp_url"`
	RegisterNumber string          `gorm:"type:varchar(100)" json:"register_number"`
	RegisterDocURL string          `gorm:"type:varchar(512)" json:"register_doc_url"`
	Status         InstituteStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	AdminMessage   string          `gorm:"type:text" json:"admin_message,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Owner      Student          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Categories []CourseCategory `gorm:"foreignKey:InstituteID;constraint:OnDelete:CASCADE" json:"categories,omitempty"`
	Courses    []Course         `gorm:"foreignKey:InstituteID;constraint:OnDelete:CASCADE" json:"courses,omitempty"`
}

// IsActionable reports whether the institute may publish content and
// process admissions.
func (i *Institute) IsActionable() bool {
	return i.Status == InstituteStatusApproved
}

// CourseCategory groups the courses of a single institute
type CourseCategory struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	InstituteID uint           `gorm:"not null;index" json:"institute_id"`
	Title       string         `gorm:"type:varchar(200);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	ImageURL    string         `gorm:"type:varchar(512)" json:"image_url"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Institute Institute `gorm:"foreignKey:InstituteID;constraint:OnDelete:CASCADE" json:"institute,omitempty"`
	Courses   []Course  `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"courses,omitempty"`
}

// TableName specifies the table name for CourseCategory
func (CourseCategory) TableName() string {
	return "course_categories"
}
