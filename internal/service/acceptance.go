package service

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/devflow/backend/internal/models"
)

// AcceptanceService owns the single-accepted-answer invariant: for any
// question at most one answer has is_accepted = true, even under
// concurrent accept calls.
type AcceptanceService struct {
	db     *gorm.DB
	events *Dispatcher
}

func NewAcceptanceService(db *gorm.DB, events *Dispatcher) *AcceptanceService {
	return &AcceptanceService{db: db, events: events}
}

// AcceptAnswer marks answerID as the accepted answer of its question. Only
// the question owner may accept. Clearing the previous accepted answer and
// setting the new one happen in one transaction while the question row is
// locked, so readers never observe two accepted answers. Accepting an
// already-accepted answer is a no-op that still succeeds.
func (s *AcceptanceService) AcceptAnswer(ctx context.Context, answerID, requesterID int) (*models.Answer, error) {
	var accepted models.Answer
	var question models.Question
	notify := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var answer models.Answer
		if err := tx.First(&answer, answerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFound("answer not found")
			}
			return err
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&question, answer.QuestionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFound("question not found")
			}
			return err
		}

		if question.OwnerID != requesterID {
			return Forbidden("only the question owner can accept answers", nil)
		}

		if answer.IsAccepted {
			accepted = answer
			return nil
		}

		if err := tx.Model(&models.Answer{}).
			Where("question_id = ? AND is_accepted = ?", question.ID, true).
			UpdateColumn("is_accepted", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&answer).UpdateColumn("is_accepted", true).Error; err != nil {
			return err
		}

		answer.IsAccepted = true
		accepted = answer
		notify = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if notify {
		s.events.Publish(AnswerAcceptedEvent(accepted, question, requesterID))
	}

	return &accepted, nil
}
