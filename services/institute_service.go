package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sahilchouksey/eduadmit/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InstituteService manages the institute approval workflow: a student
// applies with institute details, an admin approves or rejects, and a
// rejected owner may reapply with corrections.
type InstituteService struct {
	db            *gorm.DB
	notifications *NotificationService
	now           func() time.Time
}

// NewInstituteService creates a new institute service
func NewInstituteService(db *gorm.DB, notifications *NotificationService) *InstituteService {
	return &InstituteService{
		db:            db,
		notifications: notifications,
		now:           time.Now,
	}
}

// ApplyInstituteRequest carries the details of an institute application
type ApplyInstituteRequest struct {
	Name           string
	Description    string
	Estd           string
	Email          string
	Phone          string
	Website        string
	Address        string
	LogoURL        string
	BackgroundURL  string
	SignatureURL   string
	StampURL       string
	RegisterNumber string
	RegisterDocURL string
}

// Apply submits or resubmits an institute application for an owner. An
// owner with a pending application must wait; an owner with an approved
// institute cannot apply again. A rejected application is overwritten in
// place: the same row gets the new details, status resets to pending and
// the admin's rejection message is cleared.
//
// One row per owner is enforced by the unique index on owner_id. The
// owner's row is read FOR UPDATE so concurrent resubmits serialize, and a
// unique violation from two first-time applicants racing past the empty
// lookup resolves to ErrApplicationPending for the loser.
func (s *InstituteService) Apply(ctx context.Context, ownerID uint, req ApplyInstituteRequest) (*model.Institute, error) {
	var institute model.Institute

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Institute
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("owner_id = ?", ownerID).First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up institute for owner %d: %w", ownerID, err)
		}

		if err == nil {
			switch existing.Status {
			case model.InstituteStatusPending:
				return ErrApplicationPending
			case model.InstituteStatusApproved:
				return ErrAlreadyApproved
			case model.InstituteStatusRejected:
				applyDetails(&existing, req)
				existing.Status = model.InstituteStatusPending
				existing.AdminMessage = ""
				if err := tx.Save(&existing).Error; err != nil {
					return fmt.Errorf("failed to resubmit institute application: %w", err)
				}
				institute = existing
				return nil
			}
		}

		institute = model.Institute{
			OwnerID: ownerID,
			Status:  model.InstituteStatusPending,
		}
		applyDetails(&institute, req)
		if err := tx.Create(&institute).Error; err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return ErrApplicationPending
			}
			return fmt.Errorf("failed to create institute application: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &institute, nil
}

// Approve marks a pending or rejected institute as approved.
func (s *InstituteService) Approve(ctx context.Context, instituteID uint) (*model.Institute, error) {
	return s.decide(ctx, instituteID, model.InstituteStatusApproved, "")
}

// Reject marks an institute as rejected with a message explaining what to
// fix before reapplying.
func (s *InstituteService) Reject(ctx context.Context, instituteID uint, message string) (*model.Institute, error) {
	return s.decide(ctx, instituteID, model.InstituteStatusRejected, message)
}

func (s *InstituteService) decide(ctx context.Context, instituteID uint, status model.InstituteStatus, message string) (*model.Institute, error) {
	var (
		institute model.Institute
		changed   bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&institute, instituteID).Error; err != nil {
			return fmt.Errorf("failed to load institute %d: %w", instituteID, err)
		}
		if institute.Status == status {
			return nil
		}
		updates := map[string]interface{}{
			"status":        status,
			"admin_message": message,
		}
		if err := tx.Model(&institute).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update institute status: %w", err)
		}
		institute.Status = status
		institute.AdminMessage = message
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Repeating a decision is a no-op; only a real change notifies the owner.
	if changed {
		s.notifyDecision(&institute)
	}
	return &institute, nil
}

// ApprovedInstitute loads the approved institute owned by the given
// student. This is the gate every owner-side content operation passes
// through; ErrInstituteNotApproved when the owner's institute is pending,
// rejected or absent.
func (s *InstituteService) ApprovedInstitute(ctx context.Context, ownerID uint) (*model.Institute, error) {
	var institute model.Institute
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID, model.InstituteStatusApproved).
		First(&institute).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInstituteNotApproved
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load institute for owner %d: %w", ownerID, err)
	}
	return &institute, nil
}

// OwnedInstitute loads the institute owned by the given student regardless
// of status, for the owner's own dashboard.
func (s *InstituteService) OwnedInstitute(ctx context.Context, ownerID uint) (*model.Institute, error) {
	var institute model.Institute
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&institute).Error
	if err != nil {
		return nil, err
	}
	return &institute, nil
}

// ListByStatus returns institutes filtered by status for the admin review
// queue. An empty status returns everything.
func (s *InstituteService) ListByStatus(ctx context.Context, status model.InstituteStatus, limit, offset int) ([]model.Institute, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Institute{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count institutes: %w", err)
	}

	var institutes []model.Institute
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&institutes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list institutes: %w", err)
	}
	return institutes, total, nil
}

// ListApproved returns approved institutes for the public catalog.
func (s *InstituteService) ListApproved(ctx context.Context, limit, offset int) ([]model.Institute, int64, error) {
	return s.ListByStatus(ctx, model.InstituteStatusApproved, limit, offset)
}

func applyDetails(institute *model.Institute, req ApplyInstituteRequest) {
	institute.Name = req.Name
	institute.Description = req.Description
	institute.Estd = req.Estd
	institute.Email = req.Email
	institute.Phone = req.Phone
	institute.Website = req.Website
	institute.Address = req.Address
	institute.LogoURL = req.LogoURL
	institute.BackgroundURL = req.BackgroundURL
	institute.SignatureURL = req.SignatureURL
	institute.StampURL = req.StampURL
	institute.RegisterNumber = req.RegisterNumber
	institute.RegisterDocURL = req.RegisterDocURL
}

func (s *InstituteService) notifyDecision(institute *model.Institute) {
	if s.notifications == nil {
		return
	}

	var student model.Student
	if err := s.db.First(&student, institute.OwnerID).Error; err != nil {
		return
	}

	var (
		title   string
		message string
		ntype   model.NotificationType
	)
	switch institute.Status {
	case model.InstituteStatusApproved:
		ntype = model.NotificationTypeSuccess
		title = "Institute approved"
		message = fmt.Sprintf("%s has been approved. You can now publish categories and courses.", institute.Name)
	case model.InstituteStatusRejected:
		ntype = model.NotificationTypeWarning
		title = "Institute application rejected"
		message = fmt.Sprintf("%s was rejected: %s. Fix the issues and reapply.", institute.Name, institute.AdminMessage)
	default:
		return
	}

	s.notifications.Dispatch(CreateNotificationRequest{
		UserID:   student.UserID,
		Type:     ntype,
		Category: model.NotificationCategoryInstitute,
		Title:    title,
		Message:  message,
		Metadata: &model.NotificationMetadata{
			InstituteID: institute.ID,
			Status:      string(institute.Status),
		},
	})
}
