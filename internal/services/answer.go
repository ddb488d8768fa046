package services

import (
	"context"

	"askhub/internal/models"
	"askhub/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AnswerService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewAnswerService(db *gorm.DB, logger *zap.Logger) *AnswerService {
	return &AnswerService{db: db, logger: logger.Named("answer")}
}

type AnswerInput struct {
	Body           string
	AttachmentRefs []string
}

func (in *AnswerInput) normalize() error {
	in.Body = utils.SanitizeHTML(in.Body)
	if in.Body == "" {
		return InvalidInput("invalid answer", map[string]string{"body": "required"})
	}
	return nil
}

func (s *AnswerService) Create(ctx context.Context, questionID, userID uuid.UUID, in AnswerInput) (*models.Answer, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var a *models.Answer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		a, err = createAnswer(tx, questionID, userID, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("answer created", zap.Stringer("answer_id", a.ID), zap.Stringer("question_id", questionID))
	return a, nil
}

// createAnswer checks the question exists and inserts the answer. in must be normalized.
func createAnswer(tx *gorm.DB, questionID, userID uuid.UUID, in AnswerInput) (*models.Answer, error) {
	var n int64
	if err := tx.Model(&models.Question{}).Where("id = ?", questionID).Count(&n).Error; err != nil {
		return nil, storeErr(err, "question", nil)
	}
	if n == 0 {
		return nil, NotFound("question not found", map[string]string{"questionId": questionID.String()})
	}
	a := models.Answer{
		QuestionID:     questionID,
		UserID:         userID,
		Body:           in.Body,
		AttachmentRefs: datatypes.JSONSlice[string](nonNil(in.AttachmentRefs)),
	}
	if err := tx.Create(&a).Error; err != nil {
		return nil, storeErr(err, "answer", nil)
	}
	return &a, nil
}

func (s *AnswerService) Get(ctx context.Context, id uuid.UUID) (*models.Answer, error) {
	var a models.Answer
	if err := s.db.WithContext(ctx).Preload("User").Where("id = ?", id).Take(&a).Error; err != nil {
		return nil, storeErr(err, "answer", map[string]string{"id": id.String()})
	}
	return &a, nil
}

// ListByQuestion returns the answers of a question, best voted first.
func (s *AnswerService) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]models.Answer, error) {
	var answers []models.Answer
	if err := s.db.WithContext(ctx).Preload("User").
		Where("question_id = ?", questionID).
		Order("vote_count DESC, created_at DESC").
		Find(&answers).Error; err != nil {
		return nil, storeErr(err, "answers", nil)
	}
	return answers, nil
}

func (s *AnswerService) Update(ctx context.Context, id, userID uuid.UUID, in AnswerInput) (*models.Answer, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	fields := map[string]string{"id": id.String()}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a models.Answer
		if err := tx.Where("id = ?", id).Take(&a).Error; err != nil {
			return storeErr(err, "answer", fields)
		}
		if a.UserID != userID {
			return Unauthorized("only the author can edit this answer")
		}
		return storeErr(tx.Model(&a).Select("body", "attachment_refs").Updates(models.Answer{
			Body:           in.Body,
			AttachmentRefs: datatypes.JSONSlice[string](nonNil(in.AttachmentRefs)),
		}).Error, "answer", fields)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *AnswerService) Delete(ctx context.Context, id, userID uuid.UUID, isAdmin bool) error {
	fields := map[string]string{"id": id.String()}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a models.Answer
		if err := tx.Where("id = ?", id).Take(&a).Error; err != nil {
			return storeErr(err, "answer", fields)
		}
		if !isAdmin && a.UserID != userID {
			return Unauthorized("only the author can delete this answer")
		}
		if err := deleteComments(tx, models.CommentOnAnswer, id); err != nil {
			return err
		}
		return storeErr(tx.Delete(&a).Error, "answer", fields)
	})
}

// Accept marks the answer accepted. callerID must be the author of the
// answer's question.
func (s *AnswerService) Accept(ctx context.Context, answerID, callerID uuid.UUID) (*models.Answer, error) {
	return s.transition(ctx, answerID, callerID, true)
}

// Unaccept reverts an accepted answer to pending. Same ownership rule as Accept.
func (s *AnswerService) Unaccept(ctx context.Context, answerID, callerID uuid.UUID) (*models.Answer, error) {
	return s.transition(ctx, answerID, callerID, false)
}

func (s *AnswerService) transition(ctx context.Context, answerID, callerID uuid.UUID, accepted bool) (*models.Answer, error) {
	var out *models.Answer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireQuestionOwner(tx, answerID, callerID); err != nil {
			return err
		}
		var err error
		out, err = setAccepted(tx, answerID, accepted, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("answer acceptance changed", zap.Stringer("answer_id", answerID),
		zap.Bool("accepted", accepted), zap.Stringer("by", callerID))
	return out, nil
}

// requireQuestionOwner fails unless userID authored the question the answer belongs to.
func requireQuestionOwner(tx *gorm.DB, answerID, userID uuid.UUID) error {
	var row struct{ UserID uuid.UUID }
	err := tx.Model(&models.Question{}).Select("questions.user_id").
		Joins("JOIN answers ON answers.question_id = questions.id").
		Where("answers.id = ?", answerID).
		Take(&row).Error
	if err != nil {
		return storeErr(err, "answer", map[string]string{"id": answerID.String()})
	}
	if row.UserID != userID {
		return Unauthorized("only the question author can accept answers")
	}
	return nil
}

// setAccepted moves an answer between pending and accepted. Repeating a
// transition re-persists the same state. Ownership is the caller's job.
// When accepter is set the answer's user_id is overwritten with it.
func setAccepted(tx *gorm.DB, answerID uuid.UUID, accepted bool, accepter *uuid.UUID) (*models.Answer, error) {
	fields := map[string]string{"id": answerID.String()}
	var a models.Answer
	if err := tx.Where("id = ?", answerID).Take(&a).Error; err != nil {
		return nil, storeErr(err, "answer", fields)
	}

	updates := map[string]interface{}{"accepted": accepted}
	if accepter != nil {
		updates["user_id"] = *accepter
	}
	if err := tx.Model(&a).Updates(updates).Error; err != nil {
		return nil, storeErr(err, "answer", fields)
	}

	if err := tx.Where("id = ?", answerID).Take(&a).Error; err != nil {
		return nil, storeErr(err, "answer", fields)
	}
	return &a, nil
}
