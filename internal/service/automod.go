package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/emilythestrangee/devflow/backend/internal/models"
)

// Auto-flag thresholds
const (
	autoFlagThreshold     = 8
	highPriorityThreshold = 15
)

var spamKeywords = []string{
	"buy now", "click here", "free money", "get rich quick",
	"limited time", "urgent", "act now", "guaranteed",
	"no questions asked", "risk free", "this is not spam",
}

var flaggedWords = []string{
	"hate", "stupid", "idiot", "moron", "dumb",
}

var linkPattern = regexp.MustCompile(`https?://\S+`)

// ContentAnalysis is the result of scoring a piece of free text.
type ContentAnalysis struct {
	Score int
	Flags []string
}

// AnalyzeContent scores free-text content for spam and abuse signals. It is
// a pure function: same input, same score, no side effects.
func AnalyzeContent(content string) ContentAnalysis {
	if content == "" {
		return ContentAnalysis{}
	}

	var analysis ContentAnalysis
	text := strings.ToLower(content)

	var spamMatches []string
	for _, keyword := range spamKeywords {
		if strings.Contains(text, keyword) {
			spamMatches = append(spamMatches, keyword)
		}
	}
	if len(spamMatches) > 0 {
		analysis.Flags = append(analysis.Flags,
			"Potential spam keywords: "+strings.Join(spamMatches, ", "))
		analysis.Score += len(spamMatches) * 2
	}

	linkCount := len(linkPattern.FindAllString(content, -1))
	if linkCount > 3 {
		analysis.Flags = append(analysis.Flags, fmt.Sprintf("Too many links: %d", linkCount))
		analysis.Score += linkCount
	}

	var capsCount, totalChars int
	for _, r := range content {
		if r >= 'A' && r <= 'Z' {
			capsCount++
		}
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			totalChars++
		}
	}
	if totalChars > 10 && capsCount*100 > totalChars*60 {
		analysis.Flags = append(analysis.Flags, "Excessive capital letters")
		analysis.Score += 3
	}

	wordCounts := make(map[string]int)
	for _, word := range strings.Fields(text) {
		if len(word) > 3 {
			wordCounts[word]++
		}
	}
	var repetitive []string
	for word, count := range wordCounts {
		if count > 5 {
			repetitive = append(repetitive, word)
		}
	}
	if len(repetitive) > 0 {
		analysis.Flags = append(analysis.Flags,
			"Repetitive words: "+strings.Join(repetitive, ", "))
		analysis.Score += len(repetitive) * 2
	}

	var inappropriate int
	for _, word := range flaggedWords {
		if strings.Contains(text, word) && !strings.Contains(text, "not "+word) {
			inappropriate++
		}
	}
	if inappropriate > 0 {
		analysis.Flags = append(analysis.Flags, "Potentially inappropriate language")
		analysis.Score += inappropriate * 3
	}

	return analysis
}

// AutoFlagContent scores the content and, above the threshold, files a
// system report (no human reporter) against it. Returns whether a report
// was created.
func (s *ModerationService) AutoFlagContent(ctx context.Context, contentType string, contentID, ownerID int, content string) (bool, error) {
	analysis := AnalyzeContent(content)
	if analysis.Score < autoFlagThreshold {
		return false, nil
	}

	priority := models.PriorityMedium
	if analysis.Score >= highPriorityThreshold {
		priority = models.PriorityHigh
	}

	report := models.Report{
		ReportType:     contentType,
		TargetID:       contentID,
		ReportedBy:     nil, // system report
		ContentOwnerID: ownerID,
		Reason:         models.ReasonSpam,
		Description:    "Auto-flagged: " + strings.Join(analysis.Flags, "; "),
		Status:         models.ReportStatusPending,
		Priority:       priority,
		AutoFlagged:    true,
		SeverityScore:  analysis.Score,
	}

	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		return false, err
	}
	return true, nil
}
