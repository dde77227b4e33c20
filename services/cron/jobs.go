package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/services"
)

// CleanupOldData removes expired tokens and stale notifications.
// Runs daily at 2 AM.
func (m *CronManager) CleanupOldData() {
	jobName := "cleanup_old_data"
	now := time.Now()

	deleted := int64(0)

	// Read notifications older than 30 days
	res := m.db.Unscoped().
		Where("read = ? AND created_at < ?", true, now.AddDate(0, 0, -30)).
		Delete(&model.Notification{})
	if res.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to cleanup notifications: %w", res.Error))
		return
	}
	deleted += res.RowsAffected

	// Expired password reset tokens
	res = m.db.Unscoped().
		Where("expires_at < ?", now).
		Delete(&model.PasswordResetToken{})
	if res.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to cleanup reset tokens: %w", res.Error))
		return
	}
	deleted += res.RowsAffected

	// Expired email verification tokens
	res = m.db.Unscoped().
		Where("expires_at < ?", now).
		Delete(&model.EmailVerificationToken{})
	if res.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to cleanup verification tokens: %w", res.Error))
		return
	}
	deleted += res.RowsAffected

	// Blacklisted JWTs past their own expiry no longer need tracking
	res = m.db.Unscoped().
		Where("expires_at < ?", now).
		Delete(&model.JWTTokenBlacklist{})
	if res.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to cleanup token blacklist: %w", res.Error))
		return
	}
	deleted += res.RowsAffected

	// Job logs older than 90 days
	res = m.db.Unscoped().
		Where("created_at < ?", now.AddDate(0, 0, -90)).
		Delete(&model.CronJobLog{})
	if res.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to cleanup job logs: %w", res.Error))
		return
	}
	deleted += res.RowsAffected

	m.logJobComplete(jobName, fmt.Sprintf("Deleted %d expired rows", deleted))
}

// SendStaleDraftReminders nudges applicants whose draft has not been
// touched for a week while the program is still accepting submissions.
// Runs daily at 9 AM.
func (m *CronManager) SendStaleDraftReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "stale_draft_reminders"
	cutoff := time.Now().AddDate(0, 0, -7)

	var drafts []model.Application
	err := m.db.Preload("Program").
		Where("status = ? AND updated_at < ?", model.ApplicationStatusDraft, cutoff).
		Find(&drafts).Error
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to query stale drafts: %w", err))
		return
	}

	sent := 0
	for _, draft := range drafts {
		if !draft.Program.IsOpen() {
			continue
		}
		if m.recentlyReminded(draft.ApplicantID, draft.ID, "Finish your application") {
			continue
		}

		result := m.dispatcher.Dispatch(ctx, services.Dispatch{
			UserID:   draft.ApplicantID,
			Type:     model.NotificationTypeInfo,
			Category: model.NotificationCategoryApplication,
			Title:    "Finish your application",
			Message:  fmt.Sprintf("Your draft application to %s has not been updated in a while. Complete and submit it before the deadline.", draft.Program.Title),
			Link:     fmt.Sprintf("/applications/%d", draft.ID),
		})
		if result.InApp == nil {
			sent++
		}
	}

	m.logJobComplete(jobName, fmt.Sprintf("Reminded %d applicants about stale drafts", sent))
}

// SendDeadlineReminders warns applicants with an open draft when the
// program deadline is less than 72 hours away.
// Runs every 6 hours.
func (m *CronManager) SendDeadlineReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "deadline_reminders"
	now := time.Now()
	horizon := now.Add(72 * time.Hour)

	var drafts []model.Application
	err := m.db.Preload("Program").
		Joins("JOIN programs ON programs.id = applications.program_id").
		Where("applications.status = ?", model.ApplicationStatusDraft).
		Where("programs.active = ? AND programs.deadline IS NOT NULL", true).
		Where("programs.deadline > ? AND programs.deadline < ?", now, horizon).
		Find(&drafts).Error
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to query drafts near deadline: %w", err))
		return
	}

	sent := 0
	for _, draft := range drafts {
		if m.recentlyReminded(draft.ApplicantID, draft.ID, "Deadline approaching") {
			continue
		}

		result := m.dispatcher.Dispatch(ctx, services.Dispatch{
			UserID:   draft.ApplicantID,
			Type:     model.NotificationTypeWarning,
			Category: model.NotificationCategoryApplication,
			Title:    "Deadline approaching",
			Message:  fmt.Sprintf("The deadline for %s is less than 72 hours away. Submit your application before it closes.", draft.Program.Title),
			Link:     fmt.Sprintf("/applications/%d", draft.ID),
		})
		if result.InApp == nil {
			sent++
		}
	}

	m.logJobComplete(jobName, fmt.Sprintf("Sent %d deadline reminders", sent))
}

// recentlyReminded reports whether the same reminder was already sent
// to the user for this application within the last 3 days
func (m *CronManager) recentlyReminded(userID, applicationID uint, title string) bool {
	var count int64
	m.db.Model(&model.Notification{}).
		Where("user_id = ? AND title = ? AND link = ? AND created_at > ?",
			userID, title, fmt.Sprintf("/applications/%d", applicationID), time.Now().AddDate(0, 0, -3)).
		Count(&count)
	return count > 0
}
