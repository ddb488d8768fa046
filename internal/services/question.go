package services

import (
	"context"
	"strings"

	"askhub/internal/models"
	"askhub/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionService struct {
	db     *gorm.DB
	tags   *TagService
	logger *zap.Logger
}

func NewQuestionService(db *gorm.DB, tags *TagService, logger *zap.Logger) *QuestionService {
	return &QuestionService{db: db, tags: tags, logger: logger.Named("question")}
}

type QuestionInput struct {
	Title          string
	Body           string
	CategoryID     *uuid.UUID
	Tags           []string
	AttachmentRefs []string
}

func (in *QuestionInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = utils.SanitizeHTML(in.Body)
	fields := map[string]string{}
	if in.Title == "" {
		fields["title"] = "required"
	}
	if in.Body == "" {
		fields["body"] = "required"
	}
	if len(fields) > 0 {
		return InvalidInput("invalid question", fields)
	}
	return nil
}

// QuestionFilter narrows List. Zero values mean no filter.
type QuestionFilter struct {
	CategoryID *uuid.UUID
	UserID     *uuid.UUID
	Tag        string
	Sort       string
	Limit      int
	Offset     int
}

func (s *QuestionService) Create(ctx context.Context, userID uuid.UUID, in QuestionInput) (*models.Question, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var q *models.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		q, err = createQuestion(tx, userID, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.tags.invalidate()
	s.logger.Info("question created", zap.Stringer("question_id", q.ID), zap.Stringer("user_id", userID))
	return s.Get(ctx, q.ID)
}

// createQuestion inserts the question and attaches its tags. in must be normalized.
func createQuestion(tx *gorm.DB, userID uuid.UUID, in QuestionInput) (*models.Question, error) {
	q := models.Question{
		UserID:         userID,
		CategoryID:     in.CategoryID,
		Title:          in.Title,
		Body:           in.Body,
		AttachmentRefs: datatypes.JSONSlice[string](nonNil(in.AttachmentRefs)),
	}
	if err := tx.Create(&q).Error; err != nil {
		return nil, storeErr(err, "question", nil)
	}
	if err := attachTags(tx, q.ID, in.Tags); err != nil {
		return nil, err
	}
	return &q, nil
}

// Update replaces title, body, category, attachments and the full tag list.
// Only the author may update a question.
func (s *QuestionService) Update(ctx context.Context, id, userID uuid.UUID, in QuestionInput) (*models.Question, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	fields := map[string]string{"id": id.String()}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q models.Question
		if err := tx.Where("id = ?", id).Take(&q).Error; err != nil {
			return storeErr(err, "question", fields)
		}
		if q.UserID != userID {
			return Unauthorized("only the author can edit this question")
		}
		if err := tx.Model(&q).Select("title", "body", "category_id", "attachment_refs").Updates(models.Question{
			Title:          in.Title,
			Body:           in.Body,
			CategoryID:     in.CategoryID,
			AttachmentRefs: datatypes.JSONSlice[string](nonNil(in.AttachmentRefs)),
		}).Error; err != nil {
			return storeErr(err, "question", fields)
		}
		return replaceTags(tx, id, in.Tags)
	})
	if err != nil {
		return nil, err
	}
	s.tags.invalidate()
	return s.Get(ctx, id)
}

// Delete removes a question with its answers, votes, tags links and mappings.
// Admins may delete any question.
func (s *QuestionService) Delete(ctx context.Context, id, userID uuid.UUID, isAdmin bool) error {
	fields := map[string]string{"id": id.String()}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q models.Question
		if err := tx.Where("id = ?", id).Take(&q).Error; err != nil {
			return storeErr(err, "question", fields)
		}
		if !isAdmin && q.UserID != userID {
			return Unauthorized("only the author can delete this question")
		}
		// Comments have no foreign key to their parent.
		var answerIDs []uuid.UUID
		if err := tx.Model(&models.Answer{}).Where("question_id = ?", id).Pluck("id", &answerIDs).Error; err != nil {
			return storeErr(err, "answers", fields)
		}
		if err := deleteComments(tx, models.CommentOnQuestion, id); err != nil {
			return err
		}
		for _, aid := range answerIDs {
			if err := deleteComments(tx, models.CommentOnAnswer, aid); err != nil {
				return err
			}
		}
		if err := tx.Delete(&q).Error; err != nil {
			return storeErr(err, "question", fields)
		}
		return nil
	})
}

// Get loads a question with author, category, tags and answer count.
func (s *QuestionService) Get(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	var q models.Question
	tx := s.db.WithContext(ctx)
	if err := tx.Preload("User").Preload("Category").Where("id = ?", id).Take(&q).Error; err != nil {
		return nil, storeErr(err, "question", map[string]string{"id": id.String()})
	}
	qs := []models.Question{q}
	if err := fillQuestionDetails(tx, qs); err != nil {
		return nil, err
	}
	return &qs[0], nil
}

// List returns a page of questions, newest first unless f.Sort says otherwise,
// with the total matching count.
func (s *QuestionService) List(ctx context.Context, f QuestionFilter) ([]models.Question, int64, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	tx := s.db.WithContext(ctx)
	query := tx.Model(&models.Question{})
	if f.CategoryID != nil {
		query = query.Where("questions.category_id = ?", *f.CategoryID)
	}
	if f.UserID != nil {
		query = query.Where("questions.user_id = ?", *f.UserID)
	}
	if tag := NormalizeTagName(f.Tag); tag != "" {
		query = query.Where("questions.id IN (?)",
			tx.Table("question_tags").Select("question_tags.question_id").
				Joins("JOIN tags ON tags.id = question_tags.tag_id").
				Where("tags.name = ?", tag))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storeErr(err, "questions", nil)
	}

	var qs []models.Question
	if err := query.Preload("User").Preload("Category").
		Order(questionOrder(f.Sort)).
		Limit(f.Limit).Offset(f.Offset).
		Find(&qs).Error; err != nil {
		return nil, 0, storeErr(err, "questions", nil)
	}
	if err := fillQuestionDetails(tx, qs); err != nil {
		return nil, 0, err
	}
	return qs, total, nil
}

const (
	SortNewest = "new"
	SortVotes  = "votes"
	SortHot    = "hot"
)

func questionOrder(sort string) string {
	switch sort {
	case SortVotes:
		return "questions.vote_count DESC, questions.created_at DESC"
	case SortHot:
		return "questions.hot_score DESC, questions.created_at DESC"
	}
	return "questions.created_at DESC"
}

// fillQuestionDetails 批量填充标签和回答数
func fillQuestionDetails(tx *gorm.DB, qs []models.Question) error {
	if len(qs) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(qs))
	for i := range qs {
		ids[i] = qs[i].ID
	}

	tags, err := tagsForQuestions(tx, ids)
	if err != nil {
		return err
	}

	var counts []struct {
		QuestionID uuid.UUID
		Count      int
	}
	if err := tx.Model(&models.Answer{}).
		Select("question_id, COUNT(*) AS count").
		Where("question_id IN ?", ids).
		Group("question_id").
		Scan(&counts).Error; err != nil {
		return storeErr(err, "answers", nil)
	}
	countMap := make(map[uuid.UUID]int, len(counts))
	for _, c := range counts {
		countMap[c.QuestionID] = c.Count
	}

	for i := range qs {
		qs[i].Tags = tags[qs[i].ID]
		if qs[i].Tags == nil {
			qs[i].Tags = []models.Tag{}
		}
		qs[i].AnswerCount = countMap[qs[i].ID]
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
