package service

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/devflow/backend/internal/models"
)

// Vote actions returned by CastVote
const (
	VoteCreated = "created"
	VoteUpdated = "updated"
	VoteRemoved = "removed"
)

type VoteResult struct {
	Action string `json:"action"`
	Value  int    `json:"value,omitempty"` // the vote's value after the call, 0 when removed
	Votes  int    `json:"votes"`           // the answer's new tally
}

// VoteService owns the one-vote-per-user invariant and the derived vote
// counter on Answer. The counter must equal the sum of live vote values for
// the answer at all times, so the vote row and the counter are always
// written in the same transaction while the answer row is locked.
type VoteService struct {
	db     *gorm.DB
	events *Dispatcher
}

func NewVoteService(db *gorm.DB, events *Dispatcher) *VoteService {
	return &VoteService{db: db, events: events}
}

// CastVote applies toggle/flip semantics for (answerID, userID):
// no existing vote creates one, an equal vote removes it, an opposite vote
// flips it with a net swing of new-old on the counter.
func (s *VoteService) CastVote(ctx context.Context, answerID, userID, value int) (*VoteResult, error) {
	if value != 1 && value != -1 {
		return nil, InvalidArgument("vote value must be 1 (upvote) or -1 (downvote)")
	}

	var result VoteResult
	var upvoted models.Answer

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var answer models.Answer
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&answer, answerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFound("answer not found")
			}
			return err
		}

		var existing models.Vote
		err := tx.Where("answer_id = ? AND user_id = ?", answerID, userID).First(&existing).Error

		switch {
		case err == nil && existing.Value == value:
			// Same vote - remove it (toggle off)
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			result = VoteResult{Action: VoteRemoved, Votes: answer.Votes - value}

		case err == nil:
			// Opposite vote - flip it, counter swings by new-old
			delta := value - existing.Value
			existing.Value = value
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			result = VoteResult{Action: VoteUpdated, Value: value, Votes: answer.Votes + delta}

		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.Vote{AnswerID: answerID, UserID: userID, Value: value}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			result = VoteResult{Action: VoteCreated, Value: value, Votes: answer.Votes + value}
			if value == 1 && answer.OwnerID != userID {
				upvoted = answer
			}

		default:
			return err
		}

		return tx.Model(&models.Answer{}).Where("id = ?", answerID).
			UpdateColumn("votes", result.Votes).Error
	})
	if err != nil {
		return nil, err
	}

	if upvoted.ID != 0 {
		s.events.Publish(AnswerUpvotedEvent(upvoted, userID))
	}

	return &result, nil
}

// VoteStatus reports whether a user has a live vote on an answer.
func (s *VoteService) VoteStatus(ctx context.Context, answerID, userID int) (bool, int, error) {
	var vote models.Vote
	err := s.db.WithContext(ctx).Where("answer_id = ? AND user_id = ?", answerID, userID).First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	return true, vote.Value, nil
}
