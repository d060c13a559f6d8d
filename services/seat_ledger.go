package services

import (
	"fmt"

	"github.com/sahilchouksey/eduadmit/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeatLedger tracks remaining seats per course. A seat is consumed exactly
// once per accepted admission; seats are never released automatically
// (removing a student from a course does not restore its seat).
type SeatLedger struct{}

// NewSeatLedger creates a new seat ledger
func NewSeatLedger() *SeatLedger {
	return &SeatLedger{}
}

// Reserve decrements the course's seat count by one inside the caller's
// transaction. The course row is locked FOR UPDATE so concurrent
// acceptances serialize on it. When no seats remain the count is left at
// zero and exhausted=true is reported; the caller decides whether that is
// fatal (current policy: it is not, acceptance proceeds).
func (l *SeatLedger) Reserve(tx *gorm.DB, courseID uint) (exhausted bool, err error) {
	var course model.Course
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&course, courseID).Error; err != nil {
		return false, fmt.Errorf("failed to lock course %d: %w", courseID, err)
	}

	if course.Seats == 0 {
		return true, nil
	}

	// UpdateColumn bypasses model hooks; the price hook must not run with a
	// partially loaded record.
	if err := tx.Model(&model.Course{}).
		Where("id = ? AND seats > 0", courseID).
		UpdateColumn("seats", gorm.Expr("seats - 1")).Error; err != nil {
		return false, fmt.Errorf("failed to decrement seats for course %d: %w", courseID, err)
	}

	return false, nil
}
