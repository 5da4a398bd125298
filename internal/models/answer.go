package models

import "time"

type Answer struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	QuestionID int       `gorm:"not null;index" json:"question_id"`
	OwnerID    int       `json:"owner_id"`
	Owner      User      `gorm:"foreignKey:OwnerID" json:"owner"`
	Body       string    `gorm:"not null" json:"body"`
	Votes      int       `gorm:"default:0" json:"votes"` // derived from vote rows, see service.VoteService
	IsAccepted bool      `gorm:"default:false" json:"is_accepted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
