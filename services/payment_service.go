package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sahilchouksey/eduadmit/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentService fulfils admission payments against a mock gateway. No
// real provider is called: Pay immediately succeeds and stamps a mock
// reference id on the admission. The gateway name comes from config so the
// reference format is recognizable in logs.
type PaymentService struct {
	db            *gorm.DB
	notifications *NotificationService
	gatewayName   string
	now           func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB, notifications *NotificationService, gatewayName string) *PaymentService {
	if gatewayName == "" {
		gatewayName = "esewa-mock"
	}
	return &PaymentService{
		db:            db,
		notifications: notifications,
		gatewayName:   gatewayName,
		now:           time.Now,
	}
}

// PaymentReceipt is the result of a successful (mock) payment
type PaymentReceipt struct {
	AdmissionID uint      `json:"admission_id"`
	PaymentPID  string    `json:"payment_pid"`
	PaymentRef  string    `json:"payment_ref"`
	Amount      string    `json:"amount"`
	Gateway     string    `json:"gateway"`
	PaidAt      time.Time `json:"paid_at"`
}

// Pay marks the admission as paid with a mock gateway reference. Paying an
// already paid admission is ErrAlreadyPaid; the stored reference is never
// overwritten. The row is locked so concurrent double-pays serialize.
func (s *PaymentService) Pay(ctx context.Context, admissionID, userID uint) (*PaymentReceipt, error) {
	var (
		receipt *PaymentReceipt
		paid    model.Admission
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var admission model.Admission
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&admission, admissionID).Error; err != nil {
			return fmt.Errorf("failed to load admission %d: %w", admissionID, err)
		}

		if admission.UserID == nil || *admission.UserID != userID {
			return gorm.ErrRecordNotFound
		}
		if admission.IsPaid {
			return ErrAlreadyPaid
		}

		ref := s.mockReference()
		updates := map[string]interface{}{
			"is_paid":     true,
			"payment_ref": ref,
		}
		if err := tx.Model(&admission).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		receipt = &PaymentReceipt{
			AdmissionID: admission.ID,
			PaymentPID:  admission.PaymentPID,
			PaymentRef:  ref,
			Amount:      admission.Amount.StringFixed(model.CurrencyPrecision),
			Gateway:     s.gatewayName,
			PaidAt:      s.now(),
		}
		paid = admission
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifications != nil && paid.UserID != nil {
		s.notifyPaid(&paid, receipt.PaymentRef)
	}

	return receipt, nil
}

// Status reports the payment state of an admission owned by the user.
func (s *PaymentService) Status(ctx context.Context, admissionID, userID uint) (*model.Admission, error) {
	var admission model.Admission
	if err := s.db.WithContext(ctx).First(&admission, admissionID).Error; err != nil {
		return nil, fmt.Errorf("failed to load admission %d: %w", admissionID, err)
	}
	if admission.UserID == nil || *admission.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return &admission, nil
}

// mockReference builds a reference id in the gateway's style, e.g.
// "MOCK-ESEWA-<uuid>".
func (s *PaymentService) mockReference() string {
	return fmt.Sprintf("MOCK-%s-%s", strings.ToUpper(strings.TrimSuffix(s.gatewayName, "-mock")), uuid.New().String())
}

func (s *PaymentService) notifyPaid(admission *model.Admission, ref string) {
	s.notifications.Dispatch(CreateNotificationRequest{
		UserID:   *admission.UserID,
		Type:     model.NotificationTypeSuccess,
		Category: model.NotificationCategoryPayment,
		Title:    "Payment received",
		Message:  fmt.Sprintf("Payment of %s for your application was received.", admission.Amount.StringFixed(model.CurrencyPrecision)),
		Metadata: &model.NotificationMetadata{
			AdmissionID: admission.ID,
			InstituteID: admission.InstituteID,
			PaymentRef:  ref,
		},
	})
}
