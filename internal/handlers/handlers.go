package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/devflow/backend/internal/service"
)

// Handler combines all handler types
type Handler struct {
	Auth         *AuthHandler
	Question     *QuestionHandler
	Answer       *AnswerHandler
	Notification *NotificationHandler
	Moderation   *ModerationHandler
	User         *UserHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, events *service.Dispatcher) *Handler {
	moderation := service.NewModerationService(db)

	return &Handler{
		Auth:         NewAuthHandler(db, events),
		Question:     NewQuestionHandler(db, moderation),
		Answer:       NewAnswerHandler(db, moderation, events),
		Notification: NewNotificationHandler(db),
		Moderation:   NewModerationHandler(db, moderation),
		User:         NewUserHandler(db),
	}
}

func extractUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// respondError translates core error kinds into HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := gin.H{"error": "Internal server error"}

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		switch svcErr.Kind {
		case service.KindNotFound:
			status = http.StatusNotFound
		case service.KindInvalidArgument:
			status = http.StatusBadRequest
		case service.KindForbidden:
			status = http.StatusForbidden
		case service.KindConflict:
			status = http.StatusConflict
		}
		body = gin.H{"error": svcErr.Message}
		if svcErr.Details != nil {
			body["details"] = svcErr.Details
		}
	}

	c.JSON(status, body)
}
