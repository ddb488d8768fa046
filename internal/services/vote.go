package services

import (
	"context"
	"errors"

	"askhub/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteService applies up/down votes to questions and answers and keeps the
// denormalized vote_count column in step with the vote rows.
type VoteService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewVoteService(db *gorm.DB, logger *zap.Logger) *VoteService {
	return &VoteService{db: db, logger: logger.Named("vote")}
}

type voteTable struct {
	target  func() interface{}
	vote    func(targetID, userID uuid.UUID, value int) interface{}
	voteRef func() interface{}
	column  string
}

var voteTables = map[models.TargetKind]voteTable{
	models.TargetQuestion: {
		target: func() interface{} { return &models.Question{} },
		vote: func(targetID, userID uuid.UUID, value int) interface{} {
			return &models.QuestionVote{QuestionID: targetID, UserID: userID, Value: value}
		},
		voteRef: func() interface{} { return &models.QuestionVote{} },
		column:  "question_id",
	},
	models.TargetAnswer: {
		target: func() interface{} { return &models.Answer{} },
		vote: func(targetID, userID uuid.UUID, value int) interface{} {
			return &models.AnswerVote{AnswerID: targetID, UserID: userID, Value: value}
		},
		voteRef: func() interface{} { return &models.AnswerVote{} },
		column:  "answer_id",
	},
}

// VoteQuestion applies value (+1 or -1) from userID to the question and
// returns the question as stored after the vote.
func (s *VoteService) VoteQuestion(ctx context.Context, questionID, userID uuid.UUID, value int) (*models.Question, error) {
	var q models.Question
	if err := s.apply(ctx, models.TargetQuestion, questionID, userID, value, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// VoteAnswer is VoteQuestion for answers.
func (s *VoteService) VoteAnswer(ctx context.Context, answerID, userID uuid.UUID, value int) (*models.Answer, error) {
	var a models.Answer
	if err := s.apply(ctx, models.TargetAnswer, answerID, userID, value, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// apply runs the whole read-check-write sequence in one transaction with the
// target row locked, so concurrent votes on the same target are serialized:
//
//	no vote       -> insert value,  count += value
//	same value    -> delete row,    count -= value
//	opposite      -> update value,  count += 2*value
func (s *VoteService) apply(ctx context.Context, kind models.TargetKind, targetID, userID uuid.UUID, value int, dest interface{}) error {
	tbl, ok := voteTables[kind]
	if !ok {
		return InvalidInput("unknown vote target", map[string]string{"target": string(kind)})
	}
	if !models.ValidVote(value) {
		return InvalidInput("vote value must be 1 or -1", map[string]string{"value": "oneof=1 -1"})
	}
	fields := map[string]string{"target": string(kind), "id": targetID.String()}

	var delta int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁定目标行
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").Where("id = ?", targetID).Take(tbl.target()).Error; err != nil {
			return storeErr(err, string(kind), fields)
		}

		var existing struct{ Value int }
		err := tx.Model(tbl.voteRef()).Select("value").
			Where(tbl.column+" = ? AND user_id = ?", targetID, userID).
			Take(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(tbl.vote(targetID, userID, value)).Error; err != nil {
				return storeErr(err, "vote", fields)
			}
			delta = value
		case err != nil:
			return storeErr(err, "vote", fields)
		case existing.Value == value:
			if err := tx.Where(tbl.column+" = ? AND user_id = ?", targetID, userID).
				Delete(tbl.voteRef()).Error; err != nil {
				return storeErr(err, "vote", fields)
			}
			delta = -value
		default:
			if err := tx.Model(tbl.voteRef()).
				Where(tbl.column+" = ? AND user_id = ?", targetID, userID).
				Update("value", value).Error; err != nil {
				return storeErr(err, "vote", fields)
			}
			delta = 2 * value
		}

		if err := tx.Model(tbl.target()).Where("id = ?", targetID).
			UpdateColumn("vote_count", gorm.Expr("vote_count + ?", delta)).Error; err != nil {
			return storeErr(err, string(kind), fields)
		}

		return storeErr(tx.Where("id = ?", targetID).Take(dest).Error, string(kind), fields)
	})
	if err != nil {
		if KindOf(err) == KindInternal {
			s.logger.Error("apply vote failed", zap.String("target", string(kind)),
				zap.Stringer("target_id", targetID), zap.Stringer("user_id", userID), zap.Error(err))
		}
		return err
	}

	s.logger.Debug("vote applied", zap.String("target", string(kind)),
		zap.Stringer("target_id", targetID), zap.Stringer("user_id", userID),
		zap.Int("value", value), zap.Int("delta", delta))
	return nil
}

// GetUserVote returns the caller's current vote on a target: 1, -1 or 0.
func (s *VoteService) GetUserVote(ctx context.Context, kind models.TargetKind, targetID, userID uuid.UUID) (int, error) {
	tbl, ok := voteTables[kind]
	if !ok {
		return 0, InvalidInput("unknown vote target", map[string]string{"target": string(kind)})
	}
	var existing struct{ Value int }
	err := s.db.WithContext(ctx).Model(tbl.voteRef()).Select("value").
		Where(tbl.column+" = ? AND user_id = ?", targetID, userID).
		Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, storeErr(err, "vote", nil)
	}
	return existing.Value, nil
}
