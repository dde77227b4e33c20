package admin

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/granthub/granthub-api/database"
	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/utils/response"
)

// GetOverviewAnalytics retrieves portal-wide overview statistics
// GET /api/admin/analytics/overview
func GetOverviewAnalytics(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var stats struct {
		TotalUsers          int64 `json:"total_users"`
		TotalPrograms       int64 `json:"total_programs"`
		OpenPrograms        int64 `json:"open_programs"`
		TotalApplications   int64 `json:"total_applications"`
		PendingReviews      int64 `json:"pending_reviews"`
		ActiveMentorships   int64 `json:"active_mentorships"`
		SessionsThisMonth   int64 `json:"sessions_this_month"`
		PendingPartners     int64 `json:"pending_partners"`
		NewUsersThisWeek    int64 `json:"new_users_this_week"`
		SubmissionsThisWeek int64 `json:"submissions_this_week"`
	}

	db.Model(&model.User{}).Count(&stats.TotalUsers)
	db.Model(&model.Program{}).Count(&stats.TotalPrograms)
	db.Model(&model.Program{}).
		Where("active = ? AND (deadline IS NULL OR deadline > ?)", true, time.Now()).
		Count(&stats.OpenPrograms)
	db.Model(&model.Application{}).Count(&stats.TotalApplications)
	db.Model(&model.Application{}).
		Where("status = ?", model.ApplicationStatusSubmitted).
		Count(&stats.PendingReviews)
	db.Model(&model.MentorshipMatch{}).
		Where("status = ?", model.MatchStatusActive).
		Count(&stats.ActiveMentorships)
	db.Model(&model.MentorshipSession{}).
		Where("session_date >= ?", time.Now().AddDate(0, -1, 0)).
		Count(&stats.SessionsThisMonth)
	db.Model(&model.PartnerOrganization{}).
		Where("status = ?", model.PartnerStatusPending).
		Count(&stats.PendingPartners)
	db.Model(&model.User{}).
		Where("created_at >= ?", time.Now().Add(-7*24*time.Hour)).
		Count(&stats.NewUsersThisWeek)
	db.Model(&model.Application{}).
		Where("submitted_at >= ?", time.Now().Add(-7*24*time.Hour)).
		Count(&stats.SubmissionsThisWeek)

	return response.Success(c, stats)
}

// GetApplicationAnalytics retrieves application pipeline analytics
// GET /api/admin/analytics/applications
func GetApplicationAnalytics(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var analytics struct {
		ByStatus []struct {
			Status string `json:"status"`
			Count  int64  `json:"count"`
		} `json:"by_status"`
		ByProgram []struct {
			ProgramID    uint   `json:"program_id"`
			ProgramTitle string `json:"program_title"`
			Submitted    int64  `json:"submitted"`
			Approved     int64  `json:"approved"`
		} `json:"by_program"`
		SubmissionGrowth []struct {
			Date  string `json:"date"`
			Count int64  `json:"count"`
		} `json:"submission_growth"`
	}

	db.Model(&model.Application{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&analytics.ByStatus)

	db.Raw(`
		SELECT p.id as program_id, p.title as program_title,
			   COUNT(a.id) FILTER (WHERE a.submitted_at IS NOT NULL) as submitted,
			   COUNT(a.id) FILTER (WHERE a.status = 'approved') as approved
		FROM programs p
		LEFT JOIN applications a ON p.id = a.program_id AND a.deleted_at IS NULL
		WHERE p.deleted_at IS NULL
		GROUP BY p.id, p.title
		ORDER BY submitted DESC
	`).Scan(&analytics.ByProgram)

	db.Raw(`
		SELECT DATE(submitted_at) as date, COUNT(*) as count
		FROM applications
		WHERE submitted_at >= NOW() - INTERVAL '30 days'
		AND deleted_at IS NULL
		GROUP BY DATE(submitted_at)
		ORDER BY date ASC
	`).Scan(&analytics.SubmissionGrowth)

	return response.Success(c, analytics)
}

// GetMentorshipAnalytics retrieves mentorship program analytics
// GET /api/admin/analytics/mentorship
func GetMentorshipAnalytics(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var analytics struct {
		MatchesByStatus []struct {
			Status string `json:"status"`
			Count  int64  `json:"count"`
		} `json:"matches_by_status"`
		TotalSessions     int64   `json:"total_sessions"`
		TotalSessionHours float64 `json:"total_session_hours"`
		TopMentors        []struct {
			MentorID   uint   `json:"mentor_id"`
			MentorName string `json:"mentor_name"`
			Sessions   int64  `json:"sessions"`
			Minutes    int64  `json:"minutes"`
		} `json:"top_mentors"`
	}

	db.Model(&model.MentorshipMatch{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&analytics.MatchesByStatus)

	db.Model(&model.MentorshipSession{}).Count(&analytics.TotalSessions)

	var totalMinutes int64
	db.Model(&model.MentorshipSession{}).
		Select("COALESCE(SUM(duration_minutes), 0)").
		Scan(&totalMinutes)
	analytics.TotalSessionHours = float64(totalMinutes) / 60.0

	db.Raw(`
		SELECT m.mentor_id, u.full_name as mentor_name,
			   COUNT(s.id) as sessions,
			   COALESCE(SUM(s.duration_minutes), 0) as minutes
		FROM mentorship_matches m
		JOIN users u ON m.mentor_id = u.id
		LEFT JOIN mentorship_sessions s ON m.id = s.match_id AND s.deleted_at IS NULL
		WHERE m.deleted_at IS NULL
		GROUP BY m.mentor_id, u.full_name
		ORDER BY sessions DESC
		LIMIT 10
	`).Scan(&analytics.TopMentors)

	return response.Success(c, analytics)
}
