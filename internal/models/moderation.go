package models

import "time"

// Moderation statuses. Banned is terminal; suspended reverts to active
// once every suspension has expired.
const (
	ModerationActive    = "active"
	ModerationWarned    = "warned"
	ModerationSuspended = "suspended"
	ModerationBanned    = "banned"
)

// UserModeration tracks per-user trust and enforcement state. One row per user.
type UserModeration struct {
	ID         int    `gorm:"primaryKey" json:"id"`
	UserID     int    `gorm:"uniqueIndex;not null" json:"user_id"`
	Status     string `gorm:"default:active;index" json:"status"`
	TrustScore int    `gorm:"default:50" json:"trust_score"` // 0-100

	Warnings    []Warning    `gorm:"foreignKey:ModerationID;constraint:OnDelete:CASCADE" json:"warnings"`
	Suspensions []Suspension `gorm:"foreignKey:ModerationID;constraint:OnDelete:CASCADE" json:"suspensions"`

	// Ban information
	BannedAt  *time.Time `json:"banned_at"`
	BannedBy  *int       `json:"banned_by"`
	BanReason string     `json:"ban_reason,omitempty"`

	// Content statistics
	TotalReports   int        `gorm:"default:0" json:"total_reports"`
	ContentRemoved int        `gorm:"default:0" json:"content_removed"`
	LastReportedAt *time.Time `json:"last_reported_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Warning struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	ModerationID int       `gorm:"not null;index" json:"-"`
	Reason       string    `json:"reason"`
	Description  string    `json:"description"`
	IssuedBy     int       `json:"issued_by"`
	IssuedAt     time.Time `json:"issued_at"`
}

type Suspension struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	ModerationID int       `gorm:"not null;index" json:"-"`
	Reason       string    `json:"reason"`
	DurationDays int       `json:"duration_days"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	IssuedBy     int       `json:"issued_by"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
}
