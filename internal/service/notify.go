package service

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/emilythestrangee/devflow/backend/internal/models"
)

// Event is a notification-worthy state transition emitted by a core
// operation. FromUserID is 0 for system-generated events.
type Event struct {
	RecipientID int
	FromUserID  int
	Type        string
	Message     string
	QuestionID  int
	AnswerID    int
}

func QuestionAnsweredEvent(question models.Question, fromUserID int) Event {
	return Event{
		RecipientID: question.OwnerID,
		FromUserID:  fromUserID,
		Type:        models.NotificationAnswer,
		Message:     fmt.Sprintf("Someone answered your question %q", question.Title),
		QuestionID:  question.ID,
	}
}

func AnswerUpvotedEvent(answer models.Answer, fromUserID int) Event {
	return Event{
		RecipientID: answer.OwnerID,
		FromUserID:  fromUserID,
		Type:        models.NotificationAnswerUpvote,
		Message:     "Someone upvoted your answer",
		QuestionID:  answer.QuestionID,
		AnswerID:    answer.ID,
	}
}

func AnswerAcceptedEvent(answer models.Answer, question models.Question, fromUserID int) Event {
	return Event{
		RecipientID: answer.OwnerID,
		FromUserID:  fromUserID,
		Type:        models.NotificationAcceptedAnswer,
		Message:     fmt.Sprintf("Your answer was accepted for %q", question.Title),
		QuestionID:  question.ID,
		AnswerID:    answer.ID,
	}
}

func WelcomeEvent(userID int, username string) Event {
	return Event{
		RecipientID: userID,
		Type:        models.NotificationWelcome,
		Message:     fmt.Sprintf("Welcome to devflow, %s!", username),
	}
}

// Dispatcher persists notifications as a decoupled step. Events are
// delivered by a single worker goroutine, so per-recipient creation order
// follows publish order. A failed delivery is logged and never propagated
// back to the operation that published the event.
type Dispatcher struct {
	db     *gorm.DB
	events chan Event
	done   chan struct{}
}

func NewDispatcher(db *gorm.DB) *Dispatcher {
	d := &Dispatcher{
		db:     db,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish enqueues an event for delivery. Self-notifications are dropped
// here so no goroutine or row is spent on them.
func (d *Dispatcher) Publish(ev Event) {
	if ev.FromUserID != 0 && ev.FromUserID == ev.RecipientID {
		return
	}
	d.events <- ev
}

// Close drains pending events and stops the worker.
func (d *Dispatcher) Close() {
	close(d.events)
	<-d.done
}

func (d *Dispatcher) run() {
	for ev := range d.events {
		if _, err := d.Deliver(ev); err != nil {
			log.Printf("failed to create notification for user %d: %v", ev.RecipientID, err)
		}
	}
	close(d.done)
}

// Deliver writes a single notification row. It returns (nil, nil) when the
// event is a suppressed self-notification.
func (d *Dispatcher) Deliver(ev Event) (*models.Notification, error) {
	if ev.FromUserID != 0 && ev.FromUserID == ev.RecipientID {
		return nil, nil
	}

	notification := models.Notification{
		UserID:  ev.RecipientID,
		Type:    ev.Type,
		Message: ev.Message,
	}
	if ev.QuestionID != 0 {
		id := ev.QuestionID
		notification.QuestionID = &id
	}
	if ev.AnswerID != 0 {
		id := ev.AnswerID
		notification.AnswerID = &id
	}
	if ev.FromUserID != 0 {
		id := ev.FromUserID
		notification.FromUserID = &id
	}

	if err := d.db.Create(&notification).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}
