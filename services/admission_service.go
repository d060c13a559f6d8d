package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sahilchouksey/eduadmit/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransitionAction is a requested admission status change
type TransitionAction string

const (
	ActionShortlist TransitionAction = "shortlist"
	ActionAccept    TransitionAction = "accept"
	ActionReject    TransitionAction = "reject"
)

// AdmissionService owns the admission lifecycle: submission, the status
// state machine and its side effects. Transition is the single entry point
// for status changes; nothing else creates enrollments or consumes seats.
type AdmissionService struct {
	db            *gorm.DB
	seats         *SeatLedger
	enrollments   *EnrollmentService
	notifications *NotificationService
	now           func() time.Time
}

// NewAdmissionService creates a new admission service
func NewAdmissionService(db *gorm.DB, seats *SeatLedger, enrollments *EnrollmentService, notifications *NotificationService) *AdmissionService {
	return &AdmissionService{
		db:            db,
		seats:         seats,
		enrollments:   enrollments,
		notifications: notifications,
		now:           time.Now,
	}
}

// SubmitAdmissionRequest carries the applicant snapshot and course choice
type SubmitAdmissionRequest struct {
	StudentName string
	Email       string
	Phone       string
	Address     string
	DateOfBirth *time.Time
	Gender      string
	CourseID    uint
	Documents   []DocumentInput
}

// DocumentInput is one uploaded document reference attached at submission
type DocumentInput struct {
	DocType string
	FileURL string
}

// Submit creates a pending admission for a course. The amount is a
// snapshot of the course's discounted price at this moment; later price
// changes do not touch it. Fails when the course's institute is not
// approved.
func (s *AdmissionService) Submit(ctx context.Context, userID uint, req SubmitAdmissionRequest) (*model.Admission, error) {
	var admission model.Admission

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course model.Course
		if err := tx.Preload("Institute").First(&course, req.CourseID).Error; err != nil {
			return fmt.Errorf("failed to load course %d: %w", req.CourseID, err)
		}

		if !course.Institute.IsActionable() {
			return ErrInstituteNotApproved
		}

		courseID := course.ID
		admission = model.Admission{
			UserID:      &userID,
			StudentName: req.StudentName,
			Email:       req.Email,
			Phone:       req.Phone,
			Address:     req.Address,
			DateOfBirth: req.DateOfBirth,
			Gender:      req.Gender,
			InstituteID: course.InstituteID,
			CategoryID:  course.CategoryID,
			CourseID:    &courseID,
			Status:      model.AdmissionStatusPending,
			PaymentPID:  uuid.New().String(),
			Amount:      model.DiscountedPrice(course.OriginalPrice, course.DiscountPercent),
			CreatedAt:   s.now(),
		}
		if err := tx.Create(&admission).Error; err != nil {
			return fmt.Errorf("failed to create admission: %w", err)
		}

		for _, doc := range req.Documents {
			record := model.AdmissionDocument{
				AdmissionID: admission.ID,
				DocType:     doc.DocType,
				FileURL:     doc.FileURL,
			}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("failed to attach %s document: %w", doc.DocType, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &admission, nil
}

// TransitionResult reports the outcome of a status change, including the
// non-fatal signals the caller may want to surface.
type TransitionResult struct {
	Admission       *model.Admission
	Enrollment      *model.Enrollment
	AlreadyAccepted bool // re-accept was a guarded no-op
	AlreadyEnrolled bool // enrollment existed before this call
	SeatsExhausted  bool // no seat was available; acceptance proceeded anyway
}

// Transition applies a status change to an admission. On acceptance it
// atomically reserves a seat and ensures the enrollment inside one
// transaction; the admission row is locked first so a concurrent
// re-accept observes the final status. Re-accepting an accepted admission
// is a no-op with no side effects. All other moves out of a terminal
// state are ErrInvalidTransition.
func (s *AdmissionService) Transition(ctx context.Context, admissionID uint, action TransitionAction) (*TransitionResult, error) {
	target, err := targetStatus(action)
	if err != nil {
		return nil, err
	}

	result := &TransitionResult{}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var admission model.Admission
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&admission, admissionID).Error; err != nil {
			return fmt.Errorf("failed to load admission %d: %w", admissionID, err)
		}

		// Previous status already accepted: skip every side effect. This
		// guard is what prevents a double seat decrement.
		if admission.Status == model.AdmissionStatusAccepted && target == model.AdmissionStatusAccepted {
			result.Admission = &admission
			result.AlreadyAccepted = true
			return nil
		}

		if !validTransition(admission.Status, target) {
			return ErrInvalidTransition
		}

		if target == model.AdmissionStatusAccepted {
			student, err := s.resolveStudent(tx, &admission)
			if err != nil {
				return err
			}
			if admission.CourseID == nil {
				return ErrIncompleteApplicant
			}

			exhausted, err := s.seats.Reserve(tx, *admission.CourseID)
			if err != nil {
				return err
			}
			result.SeatsExhausted = exhausted

			enrollment, created, err := s.enrollments.Ensure(tx, student.ID, *admission.CourseID, admission.InstituteID)
			if err != nil {
				return err
			}
			result.Enrollment = enrollment
			result.AlreadyEnrolled = !created
		}

		if err := tx.Model(&admission).Update("status", target).Error; err != nil {
			return fmt.Errorf("failed to update admission status: %w", err)
		}
		admission.Status = target
		result.Admission = &admission
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyAccepted {
		s.notifyStatusChange(result.Admission)
	}

	return result, nil
}

// RemoveCourse detaches the course from an admission without deleting the
// admission. Seats are intentionally not restored; the ledger only ever
// decrements.
func (s *AdmissionService) RemoveCourse(ctx context.Context, admissionID uint) (*model.Admission, error) {
	var admission model.Admission
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&admission, admissionID).Error; err != nil {
			return fmt.Errorf("failed to load admission %d: %w", admissionID, err)
		}
		if err := tx.Model(&admission).Update("course_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach course: %w", err)
		}
		admission.CourseID = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &admission, nil
}

// OfferLetterData is everything the PDF renderer (an external collaborator)
// needs to produce an offer letter.
type OfferLetterData struct {
	Admission        *model.Admission  `json:"admission"`
	Course           *model.Course     `json:"course"`
	Institute        *model.Institute  `json:"institute"`
	Enrollment       *model.Enrollment `json:"enrollment"`
	VerificationText string            `json:"verification_text"`
}

// OfferLetter assembles offer-letter data for an accepted, enrolled
// admission at an approved institute. Rendering is out of scope here.
func (s *AdmissionService) OfferLetter(ctx context.Context, admissionID, userID uint) (*OfferLetterData, error) {
	var admission model.Admission
	db := s.db.WithContext(ctx)
	if err := db.Preload("Course").Preload("Institute").First(&admission, admissionID).Error; err != nil {
		return nil, fmt.Errorf("failed to load admission %d: %w", admissionID, err)
	}

	if admission.UserID == nil || *admission.UserID != userID {
		return nil, ErrNotEligible
	}
	if admission.CourseID == nil || !admission.Institute.IsActionable() {
		return nil, ErrNotEligible
	}

	student, err := s.resolveStudent(db, &admission)
	if err != nil {
		return nil, ErrNotEligible
	}

	var enrollment model.Enrollment
	err = db.Where("student_id = ? AND course_id = ?", student.ID, *admission.CourseID).
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotEligible
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}

	return &OfferLetterData{
		Admission:        &admission,
		Course:           admission.Course,
		Institute:        &admission.Institute,
		Enrollment:       &enrollment,
		VerificationText: fmt.Sprintf("ADMISSION VERIFIED: %d", admission.ID),
	}, nil
}

// resolveStudent maps the admission's user reference to its Student
// identity. A missing user or missing student row is an incomplete
// applicant, not an internal error.
func (s *AdmissionService) resolveStudent(tx *gorm.DB, admission *model.Admission) (*model.Student, error) {
	if admission.UserID == nil {
		return nil, ErrIncompleteApplicant
	}
	var student model.Student
	err := tx.Where("user_id = ?", *admission.UserID).First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIncompleteApplicant
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve student for user %d: %w", *admission.UserID, err)
	}
	return &student, nil
}

func targetStatus(action TransitionAction) (model.AdmissionStatus, error) {
	switch action {
	case ActionShortlist:
		return model.AdmissionStatusShortlisted, nil
	case ActionAccept:
		return model.AdmissionStatusAccepted, nil
	case ActionReject:
		return model.AdmissionStatusRejected, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}
}

// validTransition encodes the lifecycle: pending may move anywhere,
// shortlisted may be accepted or rejected, accepted and rejected are
// terminal. The accepted->accepted no-op is handled before this check.
func validTransition(from, to model.AdmissionStatus) bool {
	switch from {
	case model.AdmissionStatusPending:
		return to == model.AdmissionStatusShortlisted ||
			to == model.AdmissionStatusAccepted ||
			to == model.AdmissionStatusRejected
	case model.AdmissionStatusShortlisted:
		return to == model.AdmissionStatusAccepted ||
			to == model.AdmissionStatusRejected
	default:
		return false
	}
}

func (s *AdmissionService) notifyStatusChange(admission *model.Admission) {
	if s.notifications == nil || admission.UserID == nil {
		return
	}

	var (
		title   string
		message string
		ntype   model.NotificationType
	)
	switch admission.Status {
	case model.AdmissionStatusShortlisted:
		ntype = model.NotificationTypeInfo
		title = "Application shortlisted"
		message = "Your application has been shortlisted. The institute will contact you soon."
	case model.AdmissionStatusAccepted:
		ntype = model.NotificationTypeSuccess
		title = "Application accepted"
		message = "Congratulations! Your application was accepted and you have been enrolled."
	case model.AdmissionStatusRejected:
		ntype = model.NotificationTypeError
		title = "Application rejected"
		message = "Unfortunately your application was not successful this time."
	default:
		return
	}

	metadata := &model.NotificationMetadata{
		AdmissionID: admission.ID,
		InstituteID: admission.InstituteID,
		Status:      string(admission.Status),
	}
	if admission.CourseID != nil {
		metadata.CourseID = *admission.CourseID
	}

	s.notifications.Dispatch(CreateNotificationRequest{
		UserID:   *admission.UserID,
		Type:     ntype,
		Category: model.NotificationCategoryAdmission,
		Title:    title,
		Message:  message,
		Metadata: metadata,
	})
}
