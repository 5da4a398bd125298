package models

import (
	"time"

	"gorm.io/datatypes"
)

type Question struct {
	ID          int                         `gorm:"primaryKey" json:"id"`
	Title       string                      `gorm:"not null" json:"title"`
	Description string                      `gorm:"not null" json:"description"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	OwnerID     int                         `json:"owner_id"`
	Owner       User                        `gorm:"foreignKey:OwnerID" json:"owner"`
	Views       int                         `gorm:"default:0" json:"views"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

type CreateQuestionRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}
