package cron

import (
	"fmt"
	"time"

	"github.com/sahilchouksey/eduadmit/model"
)

// CleanupExpiredTokens removes blacklisted JWT tokens that have expired on
// their own. Runs hourly; expired tokens fail validation anyway so the
// table only needs periodic pruning.
func (m *CronManager) CleanupExpiredTokens() {
	jobName := "cleanup_expired_tokens"

	result := m.db.Where("expires_at < ?", time.Now()).Delete(&model.JWTTokenBlacklist{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to delete expired tokens: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Removed %d expired tokens", result.RowsAffected))
}

// CleanupOldNotifications deletes read notifications older than 90 days.
func (m *CronManager) CleanupOldNotifications() {
	jobName := "cleanup_old_notifications"
	cutoff := time.Now().AddDate(0, 0, -90)

	result := m.db.Where("read = ? AND created_at < ?", true, cutoff).
		Delete(&model.UserNotification{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to delete old notifications: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Removed %d old notifications", result.RowsAffected))
}

// SweepStaleAdmissions rejects unpaid admissions that have sat in pending
// for more than 60 days. The status write goes through a plain update on
// purpose: no seat or enrollment side effects apply to a pending
// application.
func (m *CronManager) SweepStaleAdmissions() {
	jobName := "sweep_stale_admissions"
	cutoff := time.Now().AddDate(0, 0, -60)

	result := m.db.Model(&model.Admission{}).
		Where("status = ? AND is_paid = ? AND created_at < ?",
			model.AdmissionStatusPending, false, cutoff).
		Update("status", model.AdmissionStatusRejected)
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to sweep stale admissions: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Rejected %d stale unpaid admissions", result.RowsAffected))
}
