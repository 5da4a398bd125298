package models

import "time"

// Notification types
const (
	NotificationAnswer         = "answer"
	NotificationAnswerUpvote   = "answer_upvote"
	NotificationQuestionUpvote = "question_upvote"
	NotificationAcceptedAnswer = "accepted_answer"
	NotificationWelcome        = "welcome"
)

// Notification is only ever created as a side effect of another entity's
// transition, never directly by a user.
type Notification struct {
	ID         int    `gorm:"primaryKey" json:"id"`
	UserID     int    `gorm:"not null;index:idx_notifications_user_read,priority:1" json:"user_id"`
	Type       string `gorm:"not null" json:"type"`
	Message    string `gorm:"not null" json:"message"`
	QuestionID *int   `json:"question_id"`
	AnswerID   *int   `json:"answer_id"`
	FromUserID *int   `json:"from_user_id"` // who triggered the notification
	IsRead     bool   `gorm:"default:false;index:idx_notifications_user_read,priority:2" json:"is_read"`

	CreatedAt time.Time `json:"created_at"`
}
