package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/devflow/backend/internal/models"
	"github.com/emilythestrangee/devflow/backend/internal/service"
)

type ModerationHandler struct {
	db         *gorm.DB
	moderation *service.ModerationService
}

func NewModerationHandler(db *gorm.DB, moderation *service.ModerationService) *ModerationHandler {
	return &ModerationHandler{db: db, moderation: moderation}
}

// SubmitReport files a report against a question or answer
func (h *ModerationHandler) SubmitReport(c *gin.Context) {
	userID, exists := extractUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		ReportType  string `json:"report_type" binding:"required"`
		TargetID    int    `json:"target_id" binding:"required"`
		Reason      string `json:"reason" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Report type, target and reason are required"})
		return
	}

	report, err := h.moderation.SubmitReport(c.Request.Context(), service.SubmitReportInput{
		ReportType:  input.ReportType,
		TargetID:    input.TargetID,
		ReporterID:  userID,
		Reason:      input.Reason,
		Description: input.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, report)
}

// ReviewReport resolves a pending report with an admin action (ADMIN)
func (h *ModerationHandler) ReviewReport(c *gin.Context) {
	adminID, exists := extractUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	reportID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	var input struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Action is required"})
		return
	}

	report, err := h.moderation.ReviewReport(c.Request.Context(), reportID, adminID, input.Action)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetReports lists reports filtered by status (ADMIN)
func (h *ModerationHandler) GetReports(c *gin.Context) {
	status := c.DefaultQuery("status", models.ReportStatusPending)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.db.Model(&models.Report{})
	if status != "all" {
		query = query.Where("status = ?", status)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	query.Count(&total)

	var reports []models.Report
	if err := query.Order("created_at desc").
		Offset((page - 1) * limit).Limit(limit).Find(&reports).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reports"})
		return
	}

	responses := []gin.H{}
	for _, report := range reports {
		responses = append(responses, gin.H{
			"report":         report,
			"target_content": h.targetContent(report),
		})
	}

	totalPages := (int(total) + limit - 1) / limit
	c.JSON(http.StatusOK, gin.H{
		"reports": responses,
		"pagination": gin.H{
			"current_page": page,
			"total_pages":  totalPages,
			"total":        total,
		},
	})
}

// GetDashboard returns the admin moderation overview (ADMIN)
func (h *ModerationHandler) GetDashboard(c *gin.Context) {
	var pending, total int64
	h.db.Model(&models.Report{}).Where("status = ?", models.ReportStatusPending).Count(&pending)
	h.db.Model(&models.Report{}).Count(&total)

	var recent []models.Report
	h.db.Where("status = ?", models.ReportStatusPending).
		Order("created_at desc").Limit(10).Find(&recent)

	recentWithContent := []gin.H{}
	for _, report := range recent {
		recentWithContent = append(recentWithContent, gin.H{
			"report":         report,
			"target_content": h.targetContent(report),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"pending_reports": pending,
		"total_reports":   total,
		"recent_reports":  recentWithContent,
	})
}

// targetContent resolves the reported content for display. Deleted targets
// yield nil.
func (h *ModerationHandler) targetContent(report models.Report) gin.H {
	if report.ReportType == models.ReportTypeQuestion {
		var question models.Question
		if err := h.db.First(&question, report.TargetID).Error; err != nil {
			return nil
		}
		return gin.H{"title": question.Title, "description": question.Description}
	}

	var answer models.Answer
	if err := h.db.First(&answer, report.TargetID).Error; err != nil {
		return nil
	}
	return gin.H{"body": answer.Body}
}

// WarnUser issues a warning against a user (ADMIN)
func (h *ModerationHandler) WarnUser(c *gin.Context) {
	adminID, exists := extractUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var input struct {
		Reason      string `json:"reason" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reason is required"})
		return
	}

	mod, err := h.moderation.WarnUser(c.Request.Context(), userID, adminID, input.Reason, input.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, mod)
}

// SuspendUser suspends a user for a number of days (ADMIN)
func (h *ModerationHandler) SuspendUser(c *gin.Context) {
	adminID, exists := extractUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var input struct {
		Reason string `json:"reason" binding:"required"`
		Days   int    `json:"days" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reason and days are required"})
		return
	}

	mod, err := h.moderation.SuspendUser(c.Request.Context(), userID, adminID, input.Reason, input.Days)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, mod)
}

// MakeUserAdmin promotes a user to admin (ADMIN)
func (h *ModerationHandler) MakeUserAdmin(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", input.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	user.Role = models.RoleAdmin
	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User made admin successfully", "user": user})
}
