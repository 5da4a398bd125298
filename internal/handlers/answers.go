package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/devflow/backend/internal/models"
	"github.com/emilythestrangee/devflow/backend/internal/service"
)

type AnswerHandler struct {
	db         *gorm.DB
	votes      *service.VoteService
	acceptance *service.AcceptanceService
	moderation *service.ModerationService
	events     *service.Dispatcher
}

func NewAnswerHandler(db *gorm.DB, moderation *service.ModerationService, events *service.Dispatcher) *AnswerHandler {
	return &AnswerHandler{
		db:         db,
		votes:      service.NewVoteService(db, events),
		acceptance: service.NewAcceptanceService(db, events),
		moderation: moderation,
		events:     events,
	}
}

// CreateAnswer submits an answer to a question
func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	questionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question ID"})
		return
	}

	var input struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Answer body is required"})
		return
	}

	userID, exists := extractUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var question models.Question
	if err := h.db.First(&question, questionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	answer := models.Answer{
		QuestionID: questionID,
		OwnerID:    userID,
		Body:       strings.TrimSpace(input.Body),
	}

	if err := h.db.Create(&answer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create answer"})
		return
	}

	h.events.Publish(service.QuestionAnsweredEvent(question, userID))

	if _, err := h.moderation.AutoFlagContent(c.Request.Context(), models.ReportTypeAnswer,
		answer.ID, userID, answer.Body); err != nil {
		log.Printf("auto-flag failed for answer %d: %v", answer.ID, err)
	}

	h.db.Preload("Owner").First(&answer, answer.ID)

	c.JSON(http.StatusCreated, answer)
}

// VoteAnswer casts, flips or removes a vote on an answer
func (h *AnswerHandler) VoteAnswer(c *gin.Context) {
	answerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid answer ID"})
		return
	}

	userID, exists := extractUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Value int `json:"value" binding:"required,oneof=-1 1"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vote value must be 1 or -1"})
		return
	}

	result, err := h.votes.CastVote(c.Request.Context(), answerID, userID, input.Value)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if result.Action == service.VoteCreated {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// AcceptAnswer marks an answer as accepted (question owner only)
func (h *AnswerHandler) AcceptAnswer(c *gin.Context) {
	answerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid answer ID"})
		return
	}

	userID, exists := extractUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	answer, err := h.acceptance.AcceptAnswer(c.Request.Context(), answerID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}

// GetVoteStatus returns the caller's live vote on an answer, if any
func (h *AnswerHandler) GetVoteStatus(c *gin.Context) {
	answerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid answer ID"})
		return
	}

	userID, exists := extractUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	hasVoted, value, err := h.votes.VoteStatus(c.Request.Context(), answerID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := gin.H{"has_voted": hasVoted}
	if hasVoted {
		response["value"] = value
	}
	c.JSON(http.StatusOK, response)
}

// UpdateAnswer updates an answer (PROTECTED - requires ownership)
func (h *AnswerHandler) UpdateAnswer(c *gin.Context) {
	answerID := c.Param("id")

	userID, exists := extractUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Answer body is required"})
		return
	}

	var answer models.Answer
	if err := h.db.First(&answer, answerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
		return
	}

	if answer.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own answers"})
		return
	}

	answer.Body = strings.TrimSpace(input.Body)
	h.db.Save(&answer)
	h.db.Preload("Owner").First(&answer, answer.ID)

	c.JSON(http.StatusOK, answer)
}

// DeleteAnswer deletes an answer and its votes (PROTECTED - requires ownership)
func (h *AnswerHandler) DeleteAnswer(c *gin.Context) {
	answerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid answer ID"})
		return
	}

	userID, exists := extractUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var answer models.Answer
	if err := h.db.First(&answer, answerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
		return
	}

	if answer.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own answers"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		return service.CascadeDeleteAnswer(tx, answerID)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete answer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Answer deleted successfully"})
}

// GetUserAnswers returns all answers by a specific user
func (h *AnswerHandler) GetUserAnswers(c *gin.Context) {
	userID := c.Param("id")
	var answers []models.Answer

	if err := h.db.Preload("Owner").Where("owner_id = ?", userID).
		Order("created_at desc").Find(&answers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user answers"})
		return
	}

	c.JSON(http.StatusOK, answers)
}
