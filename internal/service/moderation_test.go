package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/devflow/backend/internal/models"
)

func moderationFor(t *testing.T, userID int) models.UserModeration {
	t.Helper()
	var mod models.UserModeration
	err := testDB.Preload("Suspensions").Preload("Warnings").
		Where("user_id = ?", userID).First(&mod).Error
	require.NoError(t, err)
	return mod
}

func TestSubmitReport(t *testing.T) {
	resetDB(t)
	svc := NewModerationService(testDB)

	asker := createUser(t, "asker")
	reporter := createUser(t, "reporter")
	question := createQuestion(t, asker)

	report, err := svc.SubmitReport(context.Background(), SubmitReportInput{
		ReportType:  models.ReportTypeQuestion,
		TargetID:    question.ID,
		ReporterID:  reporter.ID,
		Reason:      models.ReasonSpam,
		Description: "looks like spam",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, report.Status)
	assert.Equal(t, asker.ID, report.ContentOwnerID)
	require.NotNil(t, report.ReportedBy)
	assert.Equal(t, reporter.ID, *report.ReportedBy)

	// Content owner's stats were bumped
	mod := moderationFor(t, asker.ID)
	assert.Equal(t, 1, mod.TotalReports)
	assert.NotNil(t, mod.LastReportedAt)
}

func TestSubmitReportValidation(t *testing.T) {
	resetDB(t)
	svc := NewModerationService(testDB)

	reporter := createUser(t, "reporter")

	_, err := svc.SubmitReport(context.Background(), SubmitReportInput{
		ReportType: "comment",
		TargetID:   1,
		ReporterID: reporter.ID,
		Reason:     models.ReasonSpam,
	})
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	_, err = svc.SubmitReport(context.Background(), SubmitReportInput{
		ReportType: models.ReportTypeAnswer,
		TargetID:   1,
		ReporterID: reporter.ID,
		Reason:     "bogus",
	})
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	_, err = svc.SubmitReport(context.Background(), SubmitReportInput{
		ReportType: models.ReportTypeAnswer,
		TargetID:   999,
		ReporterID: reporter.ID,
		Reason:     models.ReasonSpam,
	})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestSubmitReportDuplicatePending(t *testing.T) {
	resetDB(t)
	svc := NewModerationService(testDB)

	asker := createUser(t, "asker")
	reporter := createUser(t, "reporter")
	admin := createUser(t, "admin")
	question := createQuestion(t, asker)

	input := SubmitReportInput{
		ReportType: models.ReportTypeQuestion,
		TargetID:   question.ID,
		ReporterID: reporter.ID,
		Reason:     models.ReasonSpam,
	}

	first, err := svc.SubmitReport(context.Background(), input)
	require.NoError(t, err)

	// Second report on the same pending target conflicts
	_, err = svc.SubmitReport(context.Background(), input)
	assert.Equal(t, KindConflict, KindOf(err))

	// Once reviewed, reporting again is allowed
	_, err = svc.ReviewReport(context.Background(), first.ID, admin.ID, models.ActionDismissed)
	require.NoError(t, err)

	_, err = svc.SubmitReport(context.Background(), input)
	assert.NoError(t, err)
}

func TestSubmitReportConcurrentDuplicates(t *testing.T) {
	resetDB(t)
	svc := NewModerationService(testDB)

	asker := createUser(t, "asker")
	reporter := createUser(t, "reporter")
	question := createQuestion(t, asker)

	input := SubmitReportInput{
		ReportType: models.ReportTypeQuestion,
		TargetID:   question.ID,
		ReporterID: reporter.ID,
		Reason:     models.ReasonSpam,
	}

	const attempts = 4
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.SubmitReport(context.Background(), input)
		}(i)
	}
	wg.Wait()

	// Exactly one submission wins, the rest conflict
	var created int
	for _, err := range errs {
		if err == nil {
			created++
		} else {
			assert.Equal(t, KindConflict, KindOf(err))
		}
	}
	assert.Equal(t, 1, created)

	var pending int64
	testDB.Model(&models.Report{}).
		Where("status = ?", models.ReportStatusPending).Count(&pending)
	assert.EqualValues(t, 1, pending)
}

func TestReviewReportBanUser(t *testing.T) {
	resetDB(t)
	svc := NewModerationService(testDB)

	asker := createUser(t, "asker")
	reporter := createUser(t, "reporter")
	admin := createUser(t, "admin")
	question := createQuestion(t, asker)

	report, err := svc.SubmitReport(context.Background(), SubmitReportInput{
		ReportType: models.ReportTypeQuestion,
		TargetID:   question.ID,
		ReporterID: reporter.ID,
		Reason:     models.ReasonInappropriate,
	})
	require.NoError(t, err)

	reviewed, err := svc.ReviewReport(context.Background(), report.ID, admin.ID, models.ActionUserBanned)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, reviewed.Status)
	assert.Equal(t, models.ActionUserBanned, reviewed.AdminAction)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, admin.ID, *reviewed.ReviewedBy)
	assert.NotNil(t, reviewed.ReviewedAt)

	mod := moderationFor(t, asker.ID)
	assert.Equal(t, models.ModerationBanned, mod.Status)
	assert.NotNil(t, mod.BannedAt)

	// A resolved report cannot be reviewed again
	_, err = svc.ReviewReport(context.Background(), report.ID, admin.ID, models.ActionDismissed)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestReviewReportDeletesContent(t *testing.T) {
	resetDB(t)
	svc := NewModerationService(testDB)

	asker := createUser(t, "asker")
	answerer := createUser(t, "answerer")
	reporter := createUser(t, "reporter")
	admin := createUser(t, "admin")
	question := createQuestion(t, asker)
	answer := createAnswer(t, question, answerer)
	testDB.Create(&models.Vote{AnswerID: answer.ID, UserID: reporter.ID, Value: 1})

	report, err := svc.SubmitReport(context.Background(), SubmitReportInput{
		ReportType: models.ReportTypeAnswer,
		TargetID:   answer.ID,
		ReporterID: reporter.ID,
		Reason:     models.ReasonSpam,
	})
	require.NoError(t, err)

	_, err = svc.ReviewReport(context.Background(), report.ID, admin.ID, models.ActionContentDeleted)
	require.NoError(t, err)

	var answerCount, voteCount int64
	testDB.Model(&models.Answer{}).Where("id = ?", answer.ID).Count(&answerCount)
	testDB.Model(&models.Vote{}).Where("answer_id = ?", answer.ID).Count(&voteCount)
	assert.Zero(t, answerCount)
	assert.Zero(t, voteCount)

	mod := moderationFor(t, answerer.ID)
	assert.Equal(t, 1, mod.ContentRemoved)
}

func TestReviewReportDismissLeavesContent(t *testing.T) {
	resetDB(t)
	svc := NewModerationService(testDB)

	asker := createUser(t, "asker")
	reporter := createUser(t, "reporter")
	admin := createUser(t, "admin")
	question := createQuestion(t, asker)

	report, err := svc.SubmitReport(context.Background(), SubmitReportInput{
		ReportType: models.ReportTypeQuestion,
		TargetID:   question.ID,
		ReporterID: reporter.ID,
		Reason:     models.ReasonOther,
	})
	require.NoError(t, err)

	reviewed, err := svc.ReviewReport(context.Background(), report.ID, admin.ID, models.ActionDismissed)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, reviewed.Status)

	var count int64
	testDB.Model(&models.Question{}).Where("id = ?", question.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestReviewReportUnknown(t *testing.T) {
	resetDB(t)
	svc := NewModerationService(testDB)

	admin := createUser(t, "admin")

	_, err := svc.ReviewReport(context.Background(), 42, admin.ID, models.ActionDismissed)
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = svc.ReviewReport(context.Background(), 42, admin.ID, "explode")
	assert.Equal(t, KindInvalidArgument, KindOf(err))
}

func TestCheckUserStatusPassThrough(t *testing.T) {
	resetDB(t)
	svc := NewModerationService(testDB)

	user := createUser(t, "someone")
	assert.NoError(t, svc.CheckUserStatus(context.Background(), user.ID))
}

func TestCheckUserStatusBanned(t *testing.T) {
	resetDB(t)
	svc := NewModerationService(testDB)

	user := createUser(t, "banned")
	admin := createUser(t, "admin")
	now := time.Now()
	adminID := admin.ID
	testDB.Create(&models.UserModeration{
		UserID:    user.ID,
		Status:    models.ModerationBanned,
		BannedAt:  &now,
		BannedBy:  &adminID,
		BanReason: "spam",
	})

	err := svc.CheckUserStatus(context.Background(), user.ID)
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestCheckUserStatusActiveSuspension(t *testing.T) {
	resetDB(t)
	svc := NewModerationService(testDB)

	user := createUser(t, "suspended")
	admin := createUser(t, "admin")

	_, err := svc.SuspendUser(context.Background(), user.ID, admin.ID, "cool off", 3)
	require.NoError(t, err)

	err = svc.CheckUserStatus(context.Background(), user.ID)
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestCheckUserStatusExpiredSuspension(t *testing.T) {
	resetDB(t)
	svc := NewModerationService(testDB)

	user := createUser(t, "expired")
	admin := createUser(t, "admin")

	mod := models.UserModeration{UserID: user.ID, Status: models.ModerationSuspended}
	require.NoError(t, testDB.Create(&mod).Error)
	suspension := models.Suspension{
		ModerationID: mod.ID,
		Reason:       "cool off",
		DurationDays: 1,
		StartDate:    time.Now().AddDate(0, 0, -2),
		EndDate:      time.Now().AddDate(0, 0, -1),
		IssuedBy:     admin.ID,
		IsActive:     true,
	}
	require.NoError(t, testDB.Create(&suspension).Error)

	// Expired suspension is lazily cleared and the call passes through
	assert.NoError(t, svc.CheckUserStatus(context.Background(), user.ID))

	refreshed := moderationFor(t, user.ID)
	assert.Equal(t, models.ModerationActive, refreshed.Status)
	require.Len(t, refreshed.Suspensions, 1)
	assert.False(t, refreshed.Suspensions[0].IsActive)
}

func TestWarnUser(t *testing.T) {
	resetDB(t)
	svc := NewModerationService(testDB)

	user := createUser(t, "warned")
	admin := createUser(t, "admin")

	mod, err := svc.WarnUser(context.Background(), user.ID, admin.ID, "tone", "be nicer")
	require.NoError(t, err)
	assert.Equal(t, models.ModerationWarned, mod.Status)
	require.Len(t, mod.Warnings, 1)
	assert.Equal(t, admin.ID, mod.Warnings[0].IssuedBy)

	// Warned users still pass the status gate
	assert.NoError(t, svc.CheckUserStatus(context.Background(), user.ID))
}

func TestWarnOrSuspendBannedUser(t *testing.T) {
	resetDB(t)
	svc := NewModerationService(testDB)

	user := createUser(t, "banned")
	admin := createUser(t, "admin")
	testDB.Create(&models.UserModeration{UserID: user.ID, Status: models.ModerationBanned})

	_, err := svc.WarnUser(context.Background(), user.ID, admin.ID, "tone", "")
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = svc.SuspendUser(context.Background(), user.ID, admin.ID, "tone", 2)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestSuspendUserInvalidDuration(t *testing.T) {
	resetDB(t)
	svc := NewModerationService(testDB)

	user := createUser(t, "user")
	admin := createUser(t, "admin")

	_, err := svc.SuspendUser(context.Background(), user.ID, admin.ID, "reason", 0)
	assert.Equal(t, KindInvalidArgument, KindOf(err))
}
