package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sahilchouksey/eduadmit/model"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// EnrollmentService maintains the set of (student, course) enrollments
// derived from accepted admissions.
type EnrollmentService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{
		db:  db,
		now: time.Now,
	}
}

// Ensure looks up the (student, course) enrollment inside the caller's
// transaction and creates it if missing. Idempotent: an existing row is
// returned unchanged with created=false. The unique index on (student_id,
// course_id) backs the check-then-create; a unique violation raised by a
// concurrent writer is resolved to the surviving row rather than an error.
func (s *EnrollmentService) Ensure(tx *gorm.DB, studentID, courseID, instituteID uint) (*model.Enrollment, bool, error) {
	var existing model.Enrollment
	err := tx.Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up enrollment: %w", err)
	}

	enrollment := model.Enrollment{
		StudentID:   studentID,
		CourseID:    &courseID,
		InstituteID: instituteID,
		EnrolledAt:  s.now(),
	}

	// Nested transaction = savepoint, so a unique violation does not poison
	// the enclosing transaction.
	err = tx.Transaction(func(tx2 *gorm.DB) error {
		return tx2.Create(&enrollment).Error
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if err := tx.Where("student_id = ? AND course_id = ?", studentID, courseID).
				First(&existing).Error; err != nil {
				return nil, false, fmt.Errorf("failed to fetch enrollment after unique violation: %w", err)
			}
			return &existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create enrollment: %w", err)
	}

	return &enrollment, true, nil
}

// ListByStudent returns the student's enrollments with course and institute
// preloaded.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := s.db.WithContext(ctx).
		Preload("Course").
		Preload("Institute").
		Where("student_id = ?", studentID).
		Order("enrolled_at DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByInstitute returns all enrollments at an institute.
func (s *EnrollmentService) ListByInstitute(ctx context.Context, instituteID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := s.db.WithContext(ctx).
		Preload("Course").
		Preload("Student.User").
		Where("institute_id = ?", instituteID).
		Order("enrolled_at DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}
