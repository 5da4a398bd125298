package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/devflow/backend/internal/models"
)

func acceptedCount(t *testing.T, questionID int) int {
	t.Helper()
	var count int64
	testDB.Model(&models.Answer{}).
		Where("question_id = ? AND is_accepted = ?", questionID, true).Count(&count)
	return int(count)
}

func TestAcceptAnswer(t *testing.T) {
	resetDB(t)
	events := NewDispatcher(testDB)
	svc := NewAcceptanceService(testDB, events)

	asker := createUser(t, "asker")
	answerer := createUser(t, "answerer")
	question := createQuestion(t, asker)
	answer := createAnswer(t, question, answerer)

	accepted, err := svc.AcceptAnswer(context.Background(), answer.ID, asker.ID)
	require.NoError(t, err)
	assert.True(t, accepted.IsAccepted)
	assert.Equal(t, 1, acceptedCount(t, question.ID))

	events.Close()

	var notifications []models.Notification
	testDB.Where("user_id = ?", answerer.ID).Find(&notifications)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationAcceptedAnswer, notifications[0].Type)
}

func TestAcceptAnswerOnlyQuestionOwner(t *testing.T) {
	resetDB(t)
	events := NewDispatcher(testDB)
	defer events.Close()
	svc := NewAcceptanceService(testDB, events)

	asker := createUser(t, "asker")
	answerer := createUser(t, "answerer")
	question := createQuestion(t, asker)
	answer := createAnswer(t, question, answerer)

	_, err := svc.AcceptAnswer(context.Background(), answer.ID, answerer.ID)
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))
	assert.Zero(t, acceptedCount(t, question.ID))
}

func TestAcceptAnswerUnknownAnswer(t *testing.T) {
	resetDB(t)
	events := NewDispatcher(testDB)
	defer events.Close()
	svc := NewAcceptanceService(testDB, events)

	asker := createUser(t, "asker")

	_, err := svc.AcceptAnswer(context.Background(), 1234, asker.ID)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestAcceptAnswerSwitchesAcceptance(t *testing.T) {
	resetDB(t)
	events := NewDispatcher(testDB)
	defer events.Close()
	svc := NewAcceptanceService(testDB, events)

	asker := createUser(t, "asker")
	answerer := createUser(t, "answerer")
	question := createQuestion(t, asker)
	first := createAnswer(t, question, answerer)
	second := createAnswer(t, question, answerer)

	_, err := svc.AcceptAnswer(context.Background(), first.ID, asker.ID)
	require.NoError(t, err)

	_, err = svc.AcceptAnswer(context.Background(), second.ID, asker.ID)
	require.NoError(t, err)

	assert.False(t, answerByID(t, first.ID).IsAccepted)
	assert.True(t, answerByID(t, second.ID).IsAccepted)
	assert.Equal(t, 1, acceptedCount(t, question.ID))
}

func TestAcceptAnswerIdempotent(t *testing.T) {
	resetDB(t)
	events := NewDispatcher(testDB)
	svc := NewAcceptanceService(testDB, events)

	asker := createUser(t, "asker")
	answerer := createUser(t, "answerer")
	question := createQuestion(t, asker)
	answer := createAnswer(t, question, answerer)

	_, err := svc.AcceptAnswer(context.Background(), answer.ID, asker.ID)
	require.NoError(t, err)

	again, err := svc.AcceptAnswer(context.Background(), answer.ID, asker.ID)
	require.NoError(t, err)
	assert.True(t, again.IsAccepted)
	assert.Equal(t, 1, acceptedCount(t, question.ID))

	events.Close()

	// Re-accepting must not notify a second time
	var count int64
	testDB.Model(&models.Notification{}).Where("user_id = ?", answerer.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestAcceptAnswerSelfAcceptNotNotified(t *testing.T) {
	resetDB(t)
	events := NewDispatcher(testDB)
	svc := NewAcceptanceService(testDB, events)

	asker := createUser(t, "asker")
	question := createQuestion(t, asker)
	answer := createAnswer(t, question, asker)

	_, err := svc.AcceptAnswer(context.Background(), answer.ID, asker.ID)
	require.NoError(t, err)

	events.Close()

	var count int64
	testDB.Model(&models.Notification{}).Count(&count)
	assert.Zero(t, count)
}

func TestAcceptAnswerConcurrentSingleWinner(t *testing.T) {
	resetDB(t)
	events := NewDispatcher(testDB)
	defer events.Close()
	svc := NewAcceptanceService(testDB, events)

	asker := createUser(t, "asker")
	answerer := createUser(t, "answerer")
	question := createQuestion(t, asker)

	answers := make([]models.Answer, 4)
	for i := range answers {
		answers[i] = createAnswer(t, question, answerer)
	}

	var wg sync.WaitGroup
	for _, answer := range answers {
		wg.Add(1)
		go func(answerID int) {
			defer wg.Done()
			_, err := svc.AcceptAnswer(context.Background(), answerID, asker.ID)
			assert.NoError(t, err)
		}(answer.ID)
	}
	wg.Wait()

	// No interleaving may leave two accepted answers behind
	assert.Equal(t, 1, acceptedCount(t, question.ID))
}
