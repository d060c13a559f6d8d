package model

import (
	"time"
)

// Enrollment is the materialized record that a student attends a course at
// an institute. It is derived from an accepted admission and never created
// directly by end users. The composite unique index on (student_id,
// course_id) makes creation race-safe: concurrent writers collapse into a
// single row.
type Enrollment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	StudentID   uint      `gorm:"not null;uniqueIndex:idx_enrollments_student_course" json:"student_id"`
	CourseID    *uint     `gorm:"uniqueIndex:idx_enrollments_student_course" json:"course_id,omitempty"`
	InstituteID uint      `gorm:"not null;index" json:"institute_id"`
	EnrolledAt  time.Time `gorm:"autoCreateTime" json:"enrolled_at"`

	// Relationships
	Student   Student   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Course    *Course   `gorm:"foreignKey:CourseID;constraint:OnDelete:SET NULL" json:"course,omitempty"`
	Institute Institute `gorm:"foreignKey:InstituteID;constraint:OnDelete:CASCADE" json:"institute,omitempty"`
}
