package models

import "time"

// Report targets
const (
	ReportTypeQuestion = "question"
	ReportTypeAnswer   = "answer"
)

// Report reasons
const (
	ReasonSpam          = "spam"
	ReasonInappropriate = "inappropriate"
	ReasonOffTopic      = "off_topic"
	ReasonOther         = "other"
)

// Report statuses. A report starts pending and transitions exactly once.
const (
	ReportStatusPending   = "pending"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

// Admin actions recorded on review
const (
	ActionDismissed      = "dismissed"
	ActionContentDeleted = "content_deleted"
	ActionUserBanned     = "user_banned"
)

// Auto-flag priorities
const (
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Report struct {
	ID             int    `gorm:"primaryKey" json:"id"`
	ReportType     string `gorm:"not null;index;uniqueIndex:idx_reports_pending_reporter,priority:1,where:status = 'pending'" json:"report_type"` // "question" or "answer"
	TargetID       int    `gorm:"not null;uniqueIndex:idx_reports_pending_reporter,priority:2" json:"target_id"`
	ReportedBy     *int   `gorm:"uniqueIndex:idx_reports_pending_reporter,priority:3" json:"reported_by"` // nil for system-generated reports
	ContentOwnerID int    `gorm:"not null" json:"content_owner_id"`
	Reason         string `gorm:"not null" json:"reason"`
	Description    string `gorm:"size:500" json:"description"`
	Status         string `gorm:"default:pending;index:idx_reports_status_created,priority:1" json:"status"`

	// Set by auto-moderation only
	Priority      string `json:"priority,omitempty"`
	AutoFlagged   bool   `gorm:"default:false" json:"auto_flagged"`
	SeverityScore int    `gorm:"default:0" json:"severity_score"`

	// Set on admin review
	ReviewedBy  *int       `json:"reviewed_by"`
	AdminAction string     `json:"admin_action,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at"`

	CreatedAt time.Time `gorm:"index:idx_reports_status_created,priority:2,sort:desc" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SubmitReportRequest struct {
	ReportType  string `json:"report_type"`
	TargetID    int    `json:"target_id"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
}
