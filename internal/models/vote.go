package models

import "time"

// Vote model - tracks individual user votes on answers.
// At most one row per (answer, user) pair.
type Vote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	AnswerID  int       `gorm:"not null;uniqueIndex:idx_votes_answer_user" json:"answer_id"`
	UserID    int       `gorm:"not null;uniqueIndex:idx_votes_answer_user" json:"user_id"`
	Value     int       `json:"value"` // +1 or -1
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
