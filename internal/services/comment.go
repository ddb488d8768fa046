package services

import (
	"context"

	"askhub/internal/models"
	"askhub/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CommentParent is the typed form of a comment's (parent_type, parent_id)
// pair. Build it with QuestionParent, AnswerParent or ParseCommentParent.
type CommentParent struct {
	Type models.CommentParentType
	ID   uuid.UUID
}

func QuestionParent(id uuid.UUID) CommentParent {
	return CommentParent{Type: models.CommentOnQuestion, ID: id}
}

func AnswerParent(id uuid.UUID) CommentParent {
	return CommentParent{Type: models.CommentOnAnswer, ID: id}
}

func ParseCommentParent(typ, id string) (CommentParent, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return CommentParent{}, InvalidInput("invalid parent id", map[string]string{"parent_id": "uuid"})
	}
	switch models.CommentParentType(typ) {
	case models.CommentOnQuestion:
		return QuestionParent(pid), nil
	case models.CommentOnAnswer:
		return AnswerParent(pid), nil
	}
	return CommentParent{}, InvalidInput("invalid parent type", map[string]string{"parent_type": "oneof=question answer"})
}

// resolveCommentParent checks that the parent exists and returns the id of
// the question the thread lives under.
func resolveCommentParent(tx *gorm.DB, p CommentParent) (uuid.UUID, error) {
	fields := map[string]string{"parent_type": string(p.Type), "parent_id": p.ID.String()}
	switch p.Type {
	case models.CommentOnQuestion:
		var q models.Question
		if err := tx.Select("id").Where("id = ?", p.ID).Take(&q).Error; err != nil {
			return uuid.Nil, storeErr(err, "question", fields)
		}
		return q.ID, nil
	case models.CommentOnAnswer:
		var a models.Answer
		if err := tx.Select("id", "question_id").Where("id = ?", p.ID).Take(&a).Error; err != nil {
			return uuid.Nil, storeErr(err, "answer", fields)
		}
		return a.QuestionID, nil
	}
	return uuid.Nil, InvalidInput("invalid parent type", fields)
}

func deleteComments(tx *gorm.DB, typ models.CommentParentType, parentID uuid.UUID) error {
	if err := tx.Where("parent_type = ? AND parent_id = ?", typ, parentID).Delete(&models.Comment{}).Error; err != nil {
		return storeErr(err, "comments", nil)
	}
	return nil
}

type CommentService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewCommentService(db *gorm.DB, logger *zap.Logger) *CommentService {
	return &CommentService{db: db, logger: logger.Named("comment")}
}

func (s *CommentService) Create(ctx context.Context, userID uuid.UUID, parent CommentParent, body string) (*models.Comment, error) {
	body = utils.SanitizeHTML(body)
	if body == "" {
		return nil, InvalidInput("invalid comment", map[string]string{"body": "required"})
	}
	c := models.Comment{ParentType: parent.Type, ParentID: parent.ID, UserID: userID, Body: body}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := resolveCommentParent(tx, parent); err != nil {
			return err
		}
		return storeErr(tx.Create(&c).Error, "comment", nil)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns the comments on a parent, oldest first.
func (s *CommentService) List(ctx context.Context, parent CommentParent) ([]models.Comment, error) {
	var comments []models.Comment
	if err := s.db.WithContext(ctx).Preload("User").
		Where("parent_type = ? AND parent_id = ?", parent.Type, parent.ID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, storeErr(err, "comments", nil)
	}
	return comments, nil
}

func (s *CommentService) Update(ctx context.Context, id, userID uuid.UUID, body string) (*models.Comment, error) {
	body = utils.SanitizeHTML(body)
	if body == "" {
		return nil, InvalidInput("invalid comment", map[string]string{"body": "required"})
	}
	fields := map[string]string{"id": id.String()}
	var c models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&c).Error; err != nil {
			return storeErr(err, "comment", fields)
		}
		if c.UserID != userID {
			return Unauthorized("only the author can edit this comment")
		}
		if err := tx.Model(&c).Update("body", body).Error; err != nil {
			return storeErr(err, "comment", fields)
		}
		c.Body = body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CommentService) Delete(ctx context.Context, id, userID uuid.UUID, isAdmin bool) error {
	fields := map[string]string{"id": id.String()}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Comment
		if err := tx.Where("id = ?", id).Take(&c).Error; err != nil {
			return storeErr(err, "comment", fields)
		}
		if !isAdmin && c.UserID != userID {
			return Unauthorized("only the author can delete this comment")
		}
		return storeErr(tx.Delete(&c).Error, "comment", fields)
	})
}
