package handlers

import (
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/devflow/backend/internal/models"
	"github.com/emilythestrangee/devflow/backend/internal/service"
)

type QuestionHandler struct {
	db         *gorm.DB
	moderation *service.ModerationService
}

func NewQuestionHandler(db *gorm.DB, moderation *service.ModerationService) *QuestionHandler {
	return &QuestionHandler{db: db, moderation: moderation}
}

func (h *QuestionHandler) answerStats(questionID int) (int, bool) {
	var count int64
	h.db.Model(&models.Answer{}).Where("question_id = ?", questionID).Count(&count)
	var accepted int64
	h.db.Model(&models.Answer{}).Where("question_id = ? AND is_accepted = ?", questionID, true).Count(&accepted)
	return int(count), accepted > 0
}

// CreateQuestion creates a new question (PROTECTED - requires authentication)
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var input struct {
		Title       string   `json:"title" binding:"required"`
		Description string   `json:"description" binding:"required"`
		Tags        []string `json:"tags" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title, description and at least one tag are required"})
		return
	}

	ownerID, exists := extractUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	// Clean tags, keep at most 5
	var tags []string
	for _, tag := range input.Tags {
		if t := strings.TrimSpace(tag); t != "" {
			tags = append(tags, t)
		}
		if len(tags) == 5 {
			break
		}
	}
	if len(tags) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one valid tag is required"})
		return
	}

	question := models.Question{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Tags:        tags,
		OwnerID:     ownerID,
	}

	if err := h.db.Create(&question).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create question"})
		return
	}

	// Content pre-screening; a failed report write never fails the submission
	if _, err := h.moderation.AutoFlagContent(c.Request.Context(), models.ReportTypeQuestion,
		question.ID, ownerID, question.Title+" "+question.Description); err != nil {
		log.Printf("auto-flag failed for question %d: %v", question.ID, err)
	}

	h.db.Preload("Owner").First(&question, question.ID)

	c.JSON(http.StatusCreated, question)
}

// GetQuestions returns questions with pagination, search and tag filtering
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	query := h.db.Model(&models.Question{}).Preload("Owner")

	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if tags := c.Query("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if t := strings.TrimSpace(tag); t != "" {
				query = query.Where("tags::text ILIKE ?", "%"+t+"%")
			}
		}
	}

	order := "created_at desc"
	if c.Query("sort_by") == "views" {
		order = "views desc"
	}

	// Make the chain reusable for both the count and the page query
	query = query.Session(&gorm.Session{})

	var total int64
	query.Count(&total)

	var questions []models.Question
	if err := query.Order(order).Offset((page - 1) * limit).Limit(limit).Find(&questions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	responses := []gin.H{}
	for _, question := range questions {
		answerCount, hasAccepted := h.answerStats(question.ID)
		responses = append(responses, gin.H{
			"id":                  question.ID,
			"title":               question.Title,
			"description":         question.Description,
			"tags":                question.Tags,
			"owner":               question.Owner,
			"views":               question.Views,
			"answer_count":        answerCount,
			"has_accepted_answer": hasAccepted,
			"created_at":          question.CreatedAt,
			"updated_at":          question.UpdatedAt,
		})
	}

	totalPages := (int(total) + limit - 1) / limit
	c.JSON(http.StatusOK, gin.H{
		"questions": responses,
		"pagination": gin.H{
			"current_page":  page,
			"total_pages":   totalPages,
			"total":         total,
			"has_next_page": page < totalPages,
			"has_prev_page": page > 1,
		},
	})
}

// GetQuestion returns a single question with its answers
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	questionID := c.Param("id")

	// Increment view count atomically
	h.db.Model(&models.Question{}).Where("id = ?", questionID).
		UpdateColumn("views", gorm.Expr("views + 1"))

	var question models.Question
	if err := h.db.Preload("Owner").First(&question, questionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	// Accepted answer first, then by votes, oldest first on ties
	var answers []models.Answer
	if err := h.db.Where("question_id = ?", question.ID).Preload("Owner").
		Order("is_accepted desc, votes desc, created_at asc").Find(&answers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           question.ID,
		"title":        question.Title,
		"description":  question.Description,
		"tags":         question.Tags,
		"owner":        question.Owner,
		"views":        question.Views,
		"answers":      answers,
		"answer_count": len(answers),
		"created_at":   question.CreatedAt,
		"updated_at":   question.UpdatedAt,
	})
}

// UpdateQuestion updates a question (PROTECTED - requires ownership)
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	questionID := c.Param("id")

	userID, exists := extractUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var question models.Question
	if err := h.db.First(&question, questionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	if question.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own questions"})
		return
	}

	if input.Title != "" {
		question.Title = strings.TrimSpace(input.Title)
	}
	if input.Description != "" {
		question.Description = strings.TrimSpace(input.Description)
	}
	if len(input.Tags) > 0 {
		var tags []string
		for _, tag := range input.Tags {
			if t := strings.TrimSpace(tag); t != "" {
				tags = append(tags, t)
			}
			if len(tags) == 5 {
				break
			}
		}
		question.Tags = tags
	}

	h.db.Save(&question)
	h.db.Preload("Owner").First(&question, question.ID)

	c.JSON(http.StatusOK, question)
}

// DeleteQuestion deletes a question and cascades to its answers and votes
// (PROTECTED - requires ownership)
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	questionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question ID"})
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

	if question.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own questions"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		return service.CascadeDeleteQuestion(tx, questionID)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete question"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
}

// GetUserQuestions returns all questions by a specific user
func (h *QuestionHandler) GetUserQuestions(c *gin.Context) {
	userID := c.Param("id")
	var questions []models.Question

	if err := h.db.Preload("Owner").Where("owner_id = ?", userID).
		Order("created_at desc").Find(&questions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user questions"})
		return
	}

	responses := []gin.H{}
	for _, question := range questions {
		answerCount, hasAccepted := h.answerStats(question.ID)
		responses = append(responses, gin.H{
			"id":                  question.ID,
			"title":               question.Title,
			"tags":                question.Tags,
			"views":               question.Views,
			"answer_count":        answerCount,
			"has_accepted_answer": hasAccepted,
			"created_at":          question.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, responses)
}

// GetTrendingQuestions returns the most answered questions of the last week
func (h *QuestionHandler) GetTrendingQuestions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if limit < 1 || limit > 20 {
		limit = 5
	}

	sevenDaysAgo := time.Now().AddDate(0, 0, -7)
	var questions []models.Question
	if err := h.db.Preload("Owner").Where("created_at >= ?", sevenDaysAgo).
		Find(&questions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch trending questions"})
		return
	}

	type trending struct {
		question    models.Question
		answerCount int
	}
	ranked := make([]trending, 0, len(questions))
	for _, question := range questions {
		count, _ := h.answerStats(question.ID)
		ranked = append(ranked, trending{question: question, answerCount: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].answerCount != ranked[j].answerCount {
			return ranked[i].answerCount > ranked[j].answerCount
		}
		return ranked[i].question.CreatedAt.After(ranked[j].question.CreatedAt)
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	responses := []gin.H{}
	for _, entry := range ranked {
		responses = append(responses, gin.H{
			"id":           entry.question.ID,
			"title":        entry.question.Title,
			"tags":         entry.question.Tags,
			"owner":        entry.question.Owner,
			"views":        entry.question.Views,
			"answer_count": entry.answerCount,
			"created_at":   entry.question.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, responses)
}

// GetTags returns the most used tags across all questions
func (h *QuestionHandler) GetTags(c *gin.Context) {
	var rows []struct {
		Tag   string `json:"tag"`
		Count int    `json:"count"`
	}

	err := h.db.Raw(`
		SELECT tag, COUNT(*) AS count
		FROM questions, jsonb_array_elements_text(tags) AS tag
		GROUP BY tag
		ORDER BY count DESC
		LIMIT 50`).Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tags"})
		return
	}

	if rows == nil {
		rows = []struct {
			Tag   string `json:"tag"`
			Count int    `json:"count"`
		}{}
	}

	c.JSON(http.StatusOK, rows)
}
