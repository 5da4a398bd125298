package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/devflow/backend/internal/models"
)

func TestDeliverSuppressesSelfNotification(t *testing.T) {
	resetDB(t)
	d := NewDispatcher(testDB)
	defer d.Close()

	user := createUser(t, "loner")

	notification, err := d.Deliver(Event{
		RecipientID: user.ID,
		FromUserID:  user.ID,
		Type:        models.NotificationAnswerUpvote,
		Message:     "Someone upvoted your answer",
	})
	require.NoError(t, err)
	assert.Nil(t, notification)

	var count int64
	testDB.Model(&models.Notification{}).Count(&count)
	assert.Zero(t, count)
}

func TestDeliverPersistsNotification(t *testing.T) {
	resetDB(t)
	d := NewDispatcher(testDB)
	defer d.Close()

	owner := createUser(t, "owner")
	voter := createUser(t, "voter")
	question := createQuestion(t, owner)
	answer := createAnswer(t, question, owner)

	notification, err := d.Deliver(AnswerUpvotedEvent(answer, voter.ID))
	require.NoError(t, err)
	require.NotNil(t, notification)
	assert.Equal(t, owner.ID, notification.UserID)
	assert.Equal(t, models.NotificationAnswerUpvote, notification.Type)
	require.NotNil(t, notification.AnswerID)
	assert.Equal(t, answer.ID, *notification.AnswerID)
	require.NotNil(t, notification.QuestionID)
	assert.Equal(t, question.ID, *notification.QuestionID)
	assert.False(t, notification.IsRead)
}

func TestDeliverSystemEventHasNoSender(t *testing.T) {
	resetDB(t)
	d := NewDispatcher(testDB)
	defer d.Close()

	user := createUser(t, "newbie")

	notification, err := d.Deliver(WelcomeEvent(user.ID, user.Username))
	require.NoError(t, err)
	require.NotNil(t, notification)
	assert.Nil(t, notification.FromUserID)
}

func TestPublishPreservesPerRecipientOrder(t *testing.T) {
	resetDB(t)
	d := NewDispatcher(testDB)

	owner := createUser(t, "owner")
	sender := createUser(t, "sender")
	question := createQuestion(t, owner)

	for i := 0; i < 5; i++ {
		d.Publish(QuestionAnsweredEvent(question, sender.ID))
	}
	d.Close()

	var notifications []models.Notification
	require.NoError(t, testDB.Where("user_id = ?", owner.ID).
		Order("created_at desc, id desc").Find(&notifications).Error)
	require.Len(t, notifications, 5)

	// Newest-first listing means descending ids for a single publisher
	for i := 1; i < len(notifications); i++ {
		assert.Greater(t, notifications[i-1].ID, notifications[i].ID)
	}
}

func TestUnreadCountConsistency(t *testing.T) {
	resetDB(t)
	d := NewDispatcher(testDB)

	owner := createUser(t, "owner")
	sender := createUser(t, "sender")
	question := createQuestion(t, owner)

	for i := 0; i < 3; i++ {
		d.Publish(QuestionAnsweredEvent(question, sender.ID))
	}
	d.Close()

	var unread int64
	testDB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", owner.ID, false).Count(&unread)
	assert.EqualValues(t, 3, unread)

	// Mark one read, count follows
	var first models.Notification
	require.NoError(t, testDB.Where("user_id = ?", owner.ID).First(&first).Error)
	testDB.Model(&first).UpdateColumn("is_read", true)

	testDB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", owner.ID, false).Count(&unread)
	assert.EqualValues(t, 2, unread)
}
