package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/devflow/backend/internal/models"
)

var validReasons = map[string]bool{
	models.ReasonSpam:          true,
	models.ReasonInappropriate: true,
	models.ReasonOffTopic:      true,
	models.ReasonOther:         true,
}

// ModerationService drives the report lifecycle (pending -> resolved or
// dismissed, one-way) and the per-user enforcement state machine
// (active <-> warned <-> suspended -> banned).
type ModerationService struct {
	db *gorm.DB
}

func NewModerationService(db *gorm.DB) *ModerationService {
	return &ModerationService{db: db}
}

type SubmitReportInput struct {
	ReportType  string
	TargetID    int
	ReporterID  int
	Reason      string
	Description string
}

// SubmitReport validates the target, resolves its owner and creates a
// pending report. A reporter with a pending report on the same target gets
// Conflict; once that report is reviewed, reporting again is allowed.
func (s *ModerationService) SubmitReport(ctx context.Context, input SubmitReportInput) (*models.Report, error) {
	if input.ReportType != models.ReportTypeQuestion && input.ReportType != models.ReportTypeAnswer {
		return nil, InvalidArgument("report type must be question or answer")
	}
	if !validReasons[input.Reason] {
		return nil, InvalidArgument("invalid report reason")
	}

	ownerID, err := s.resolveContentOwner(ctx, input.ReportType, input.TargetID)
	if err != nil {
		return nil, err
	}

	reporterID := input.ReporterID
	report := models.Report{
		ReportType:     input.ReportType,
		TargetID:       input.TargetID,
		ReportedBy:     &reporterID,
		ContentOwnerID: ownerID,
		Reason:         input.Reason,
		Description:    strings.TrimSpace(input.Description),
		Status:         models.ReportStatusPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Report
		err := tx.Where("report_type = ? AND target_id = ? AND reported_by = ? AND status = ?",
			input.ReportType, input.TargetID, input.ReporterID, models.ReportStatusPending).
			First(&existing).Error
		if err == nil {
			return Conflict("you have already reported this content")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// The partial unique index on pending reports backstops the check
		// above when two identical submissions race.
		if err := tx.Create(&report).Error; err != nil {
			if isUniqueViolation(err) {
				return Conflict("you have already reported this content")
			}
			return err
		}
		return bumpReportStats(tx, ownerID)
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ReviewReport resolves a pending report and applies the admin action in
// the same transaction: either both land or the report stays pending.
func (s *ModerationService) ReviewReport(ctx context.Context, reportID, adminID int, action string) (*models.Report, error) {
	switch action {
	case models.ActionDismissed, models.ActionContentDeleted, models.ActionUserBanned:
	default:
		return nil, InvalidArgument("invalid admin action")
	}

	var report models.Report
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&report, reportID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFound("report not found")
			}
			return err
		}
		if report.Status != models.ReportStatusPending {
			return Conflict("report already reviewed")
		}

		now := time.Now()
		report.Status = models.ReportStatusResolved
		report.ReviewedBy = &adminID
		report.ReviewedAt = &now
		report.AdminAction = action
		if err := tx.Save(&report).Error; err != nil {
			return err
		}

		switch action {
		case models.ActionContentDeleted:
			if report.ReportType == models.ReportTypeQuestion {
				if err := CascadeDeleteQuestion(tx, report.TargetID); err != nil {
					return err
				}
			} else {
				if err := CascadeDeleteAnswer(tx, report.TargetID); err != nil {
					return err
				}
			}
			return bumpContentRemoved(tx, report.ContentOwnerID)

		case models.ActionUserBanned:
			return banUser(tx, report.ContentOwnerID, adminID, report.Reason)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// CheckUserStatus is the gate every privileged action passes through. It
// returns nil when the user may proceed. Suspension expiry is evaluated
// lazily here: a suspended user with no live suspension is flipped back to
// active and the expired entries are deactivated before passing.
func (s *ModerationService) CheckUserStatus(ctx context.Context, userID int) error {
	var mod models.UserModeration
	err := s.db.WithContext(ctx).Preload("Suspensions").Where("user_id = ?", userID).First(&mod).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	switch mod.Status {
	case models.ModerationBanned:
		return Forbidden("your account has been banned", map[string]any{
			"reason":    mod.BanReason,
			"banned_at": mod.BannedAt,
		})

	case models.ModerationSuspended:
		now := time.Now()
		for _, suspension := range mod.Suspensions {
			if suspension.IsActive && now.Before(suspension.EndDate) {
				return Forbidden("your account is currently suspended", map[string]any{
					"reason":   suspension.Reason,
					"end_date": suspension.EndDate,
					"duration": suspension.DurationDays,
				})
			}
		}

		// All suspensions expired - revert to active
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.UserModeration{}).Where("id = ?", mod.ID).
				UpdateColumn("status", models.ModerationActive).Error; err != nil {
				return err
			}
			return tx.Model(&models.Suspension{}).
				Where("moderation_id = ? AND end_date <= ?", mod.ID, now).
				UpdateColumn("is_active", false).Error
		})
	}

	return nil
}

// WarnUser records a warning against a user and moves an active user to
// warned. Banned users cannot be warned.
func (s *ModerationService) WarnUser(ctx context.Context, userID, adminID int, reason, description string) (*models.UserModeration, error) {
	var mod *models.UserModeration
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		mod, err = getOrCreateModeration(tx, userID)
		if err != nil {
			return err
		}
		if mod.Status == models.ModerationBanned {
			return Conflict("user is banned")
		}

		warning := models.Warning{
			ModerationID: mod.ID,
			Reason:       reason,
			Description:  description,
			IssuedBy:     adminID,
			IssuedAt:     time.Now(),
		}
		if err := tx.Create(&warning).Error; err != nil {
			return err
		}
		mod.Warnings = append(mod.Warnings, warning)

		if mod.Status == models.ModerationActive {
			mod.Status = models.ModerationWarned
			return tx.Model(&models.UserModeration{}).Where("id = ?", mod.ID).
				UpdateColumn("status", models.ModerationWarned).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mod, nil
}

// SuspendUser adds a suspension of the given duration and moves the user
// to suspended. Banned users cannot be suspended.
func (s *ModerationService) SuspendUser(ctx context.Context, userID, adminID int, reason string, days int) (*models.UserModeration, error) {
	if days <= 0 {
		return nil, InvalidArgument("suspension duration must be at least one day")
	}

	var mod *models.UserModeration
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		mod, err = getOrCreateModeration(tx, userID)
		if err != nil {
			return err
		}
		if mod.Status == models.ModerationBanned {
			return Conflict("user is banned")
		}

		now := time.Now()
		suspension := models.Suspension{
			ModerationID: mod.ID,
			Reason:       reason,
			DurationDays: days,
			StartDate:    now,
			EndDate:      now.AddDate(0, 0, days),
			IssuedBy:     adminID,
			IsActive:     true,
		}
		if err := tx.Create(&suspension).Error; err != nil {
			return err
		}
		mod.Suspensions = append(mod.Suspensions, suspension)

		mod.Status = models.ModerationSuspended
		return tx.Model(&models.UserModeration{}).Where("id = ?", mod.ID).
			UpdateColumn("status", models.ModerationSuspended).Error
	})
	if err != nil {
		return nil, err
	}
	return mod, nil
}

func (s *ModerationService) resolveContentOwner(ctx context.Context, reportType string, targetID int) (int, error) {
	if reportType == models.ReportTypeQuestion {
		var question models.Question
		if err := s.db.WithContext(ctx).First(&question, targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, NotFound("question not found")
			}
			return 0, err
		}
		return question.OwnerID, nil
	}

	var answer models.Answer
	if err := s.db.WithContext(ctx).First(&answer, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, NotFound("answer not found")
		}
		return 0, err
	}
	return answer.OwnerID, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func getOrCreateModeration(tx *gorm.DB, userID int) (*models.UserModeration, error) {
	var mod models.UserModeration
	err := tx.Preload("Suspensions").Preload("Warnings").
		Where("user_id = ?", userID).First(&mod).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		mod = models.UserModeration{UserID: userID, Status: models.ModerationActive, TrustScore: 50}
		if err := tx.Create(&mod).Error; err != nil {
			return nil, err
		}
		return &mod, nil
	}
	if err != nil {
		return nil, err
	}
	return &mod, nil
}

func banUser(tx *gorm.DB, userID, adminID int, reason string) error {
	mod, err := getOrCreateModeration(tx, userID)
	if err != nil {
		return err
	}
	now := time.Now()
	return tx.Model(&models.UserModeration{}).Where("id = ?", mod.ID).Updates(map[string]any{
		"status":     models.ModerationBanned,
		"banned_at":  now,
		"banned_by":  adminID,
		"ban_reason": reason,
	}).Error
}

func bumpReportStats(tx *gorm.DB, ownerID int) error {
	mod, err := getOrCreateModeration(tx, ownerID)
	if err != nil {
		return err
	}
	return tx.Model(&models.UserModeration{}).Where("id = ?", mod.ID).Updates(map[string]any{
		"total_reports":    gorm.Expr("total_reports + 1"),
		"last_reported_at": time.Now(),
	}).Error
}

func bumpContentRemoved(tx *gorm.DB, ownerID int) error {
	mod, err := getOrCreateModeration(tx, ownerID)
	if err != nil {
		return err
	}
	return tx.Model(&models.UserModeration{}).Where("id = ?", mod.ID).
		UpdateColumn("content_removed", gorm.Expr("content_removed + 1")).Error
}

// CascadeDeleteQuestion removes a question together with its answers and
// their votes.
func CascadeDeleteQuestion(tx *gorm.DB, questionID int) error {
	if err := tx.Where("answer_id IN (?)",
		tx.Model(&models.Answer{}).Select("id").Where("question_id = ?", questionID),
	).Delete(&models.Vote{}).Error; err != nil {
		return err
	}
	if err := tx.Where("question_id = ?", questionID).Delete(&models.Answer{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Question{}, questionID).Error
}

// CascadeDeleteAnswer removes an answer together with its votes.
func CascadeDeleteAnswer(tx *gorm.DB, answerID int) error {
	if err := tx.Where("answer_id = ?", answerID).Delete(&models.Vote{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Answer{}, answerID).Error
}
