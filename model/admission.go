package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdmissionStatus represents the lifecycle state of an admission
type AdmissionStatus string

const (
	AdmissionStatusPending     AdmissionStatus = "pending"
	AdmissionStatusShortlisted AdmissionStatus = "shortlisted"
	AdmissionStatusAccepted    AdmissionStatus = "accepted"
	AdmissionStatusRejected    AdmissionStatus = "rejected"
)

// DocType values accepted for AdmissionDocument.DocType
const (
	DocTypePhoto     = "photo"
	DocTypeMarksheet = "marksheet"
	DocTypeIDCard    = "id_card"
	DocTypeOther     = "other"
)

// Admission is one application by a user for one course. Amount is a
// snapshot of the course's discounted price taken at submission time and is
// never recomputed when the course price changes later.
type Admission struct {
	ID     uint  `gorm:"primaryKey" json:"id"`
	UserID *uint `gorm:"index" json:"user_id,omitempty"`

	// Applicant snapshot
	StudentName string     `gorm:"type:varchar(150);not null" json:"student_name"`
	Email       string     `gorm:"type:varchar(255);not null" json:"email"`
	Phone       string     `gorm:"type:varchar(50)" json:"phone"`
	Address     string     `gorm:"type:varchar(255)" json:"address"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      string     `gorm:"type:varchar(20)" json:"gender"` // male, female, other

	// Course info
	InstituteID uint  `gorm:"not null;index" json:"institute_id"`
	CategoryID  uint  `gorm:"not null;index" json:"category_id"`
	CourseID    *uint `gorm:"index" json:"course_id,omitempty"`

	Status AdmissionStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	// Payment fields (mock gateway)
	IsPaid     bool            `gorm:"default:false" json:"is_paid"`
	PaymentPID string          `gorm:"type:varchar(200)" json:"payment_pid,omitempty"`
	PaymentRef string          `gorm:"type:varchar(200)" json:"payment_ref,omitempty"`
	Amount     decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User      *User               `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
	Institute Institute           `gorm:"foreignKey:InstituteID;constraint:OnDelete:CASCADE" json:"institute,omitempty"`
	Category  CourseCategory      `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
	Course    *Course             `gorm:"foreignKey:CourseID;constraint:OnDelete:SET NULL" json:"course,omitempty"`
	Documents []AdmissionDocument `gorm:"foreignKey:AdmissionID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}

// AdmissionDocument is an uploaded file attached to an admission. The file
// itself lives in external storage; only the URL is recorded here.
type AdmissionDocument struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AdmissionID uint      `gorm:"not null;index" json:"admission_id"`
	DocType     string    `gorm:"type:varchar(50);not null" json:"doc_type"` // photo, marksheet, id_card, other
	FileURL     string    `gorm:"type:varchar(512);not null" json:"file_url"`
	CreatedAt   time.Time `json:"created_at"`

	// Relationships
	Admission Admission `gorm:"foreignKey:AdmissionID;constraint:OnDelete:CASCADE" json:"-"`
}
