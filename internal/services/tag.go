package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"askhub/internal/models"
	"askhub/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	tagCachePrefix = "tags:"
	tagCacheTTL    = 5 * time.Minute
)

type TagService struct {
	db     *gorm.DB
	cache  *utils.Cache
	logger *zap.Logger
}

func NewTagService(db *gorm.DB, cache *utils.Cache, logger *zap.Logger) *TagService {
	return &TagService{db: db, cache: cache, logger: logger.Named("tag")}
}

// NormalizeTagName lowercases and trims a raw tag name.
func NormalizeTagName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// normalizeTagNames drops empty names and duplicates, keeping first-seen order.
func normalizeTagNames(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		name := NormalizeTagName(r)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// EnsureTag finds the tag case-insensitively and counts one more use of it,
// or creates it with a usage count of 1.
func (s *TagService) EnsureTag(ctx context.Context, raw string) (*models.Tag, error) {
	var tag *models.Tag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		tag, err = ensureTag(tx, raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate()
	return tag, nil
}

func ensureTag(tx *gorm.DB, raw string) (*models.Tag, error) {
	name := NormalizeTagName(raw)
	if name == "" {
		return nil, InvalidInput("tag name is required", map[string]string{"name": "required"})
	}
	fields := map[string]string{"name": name}

	var tag models.Tag
	err := tx.Where("LOWER(name) = ?", name).Take(&tag).Error
	if err == nil {
		return incrementTag(tx, tag.ID, fields)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr(err, "tag", fields)
	}

	tag = models.Tag{Name: name, UsageCount: 1}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&tag)
	if res.Error != nil {
		return nil, storeErr(res.Error, "tag", fields)
	}
	if res.RowsAffected == 0 {
		// Created concurrently by another question; count this use against it.
		var existing models.Tag
		if err := tx.Where("name = ?", name).Take(&existing).Error; err != nil {
			return nil, storeErr(err, "tag", fields)
		}
		return incrementTag(tx, existing.ID, fields)
	}
	return &tag, nil
}

func incrementTag(tx *gorm.DB, id uuid.UUID, fields map[string]string) (*models.Tag, error) {
	if err := tx.Model(&models.Tag{}).Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1)).Error; err != nil {
		return nil, storeErr(err, "tag", fields)
	}
	var tag models.Tag
	if err := tx.Where("id = ?", id).Take(&tag).Error; err != nil {
		return nil, storeErr(err, "tag", fields)
	}
	return &tag, nil
}

// AttachTagsToQuestion ensures each tag and links it to the question.
// Attaching a tag that is already linked is a no-op for the bridge row.
func (s *TagService) AttachTagsToQuestion(ctx context.Context, questionID uuid.UUID, names []string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return attachTags(tx, questionID, names)
	})
	if err == nil {
		s.invalidate()
	}
	return err
}

func attachTags(tx *gorm.DB, questionID uuid.UUID, names []string) error {
	for _, name := range normalizeTagNames(names) {
		tag, err := ensureTag(tx, name)
		if err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.QuestionTag{QuestionID: questionID, TagID: tag.ID}).Error; err != nil {
			return storeErr(err, "question tag", map[string]string{"questionId": questionID.String(), "name": name})
		}
	}
	return nil
}

// replaceTags drops every bridge row of the question and attaches names from
// scratch. Usage counts of removed tags are left as they are.
func replaceTags(tx *gorm.DB, questionID uuid.UUID, names []string) error {
	if err := tx.Where("question_id = ?", questionID).Delete(&models.QuestionTag{}).Error; err != nil {
		return storeErr(err, "question tag", map[string]string{"questionId": questionID.String()})
	}
	return attachTags(tx, questionID, names)
}

// tagsForQuestions loads the tags of every given question in one query.
func tagsForQuestions(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID][]models.Tag, error) {
	out := make(map[uuid.UUID][]models.Tag, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		models.Tag
		QuestionID uuid.UUID
	}
	err := tx.Table("tags").
		Select("tags.*, question_tags.question_id").
		Joins("JOIN question_tags ON question_tags.tag_id = tags.id").
		Where("question_tags.question_id IN ?", ids).
		Order("tags.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, storeErr(err, "tags", nil)
	}
	for _, r := range rows {
		out[r.QuestionID] = append(out[r.QuestionID], r.Tag)
	}
	return out, nil
}

// CreateTag creates a tag through tag management. Unlike EnsureTag the new
// tag starts at a usage count of 0.
func (s *TagService) CreateTag(ctx context.Context, raw string) (*models.Tag, error) {
	name := NormalizeTagName(raw)
	if name == "" {
		return nil, InvalidInput("tag name is required", map[string]string{"name": "required"})
	}
	tag := models.Tag{Name: name}
	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		return nil, storeErr(err, "tag", map[string]string{"name": name})
	}
	s.invalidate()
	return &tag, nil
}

func (s *TagService) UpdateTag(ctx context.Context, id uuid.UUID, raw string) (*models.Tag, error) {
	name := NormalizeTagName(raw)
	if name == "" {
		return nil, InvalidInput("tag name is required", map[string]string{"name": "required"})
	}
	fields := map[string]string{"id": id.String()}

	var tag models.Tag
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&tag).Error; err != nil {
		return nil, storeErr(err, "tag", fields)
	}
	if err := s.db.WithContext(ctx).Model(&tag).Update("name", name).Error; err != nil {
		return nil, storeErr(err, "tag", map[string]string{"id": id.String(), "name": name})
	}
	tag.Name = name
	s.invalidate()
	return &tag, nil
}

func (s *TagService) DeleteTag(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Tag{})
	if res.Error != nil {
		return storeErr(res.Error, "tag", nil)
	}
	if res.RowsAffected == 0 {
		return NotFound("tag not found", map[string]string{"id": id.String()})
	}
	s.invalidate()
	return nil
}

// ListTags returns all tags, most used first.
func (s *TagService) ListTags(ctx context.Context) ([]models.Tag, error) {
	const key = tagCachePrefix + "all"
	if v, ok := s.cache.Get(key); ok {
		return v.([]models.Tag), nil
	}
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("usage_count DESC, name ASC").Find(&tags).Error; err != nil {
		return nil, storeErr(err, "tags", nil)
	}
	s.cache.Set(key, tags, tagCacheTTL)
	return tags, nil
}

func (s *TagService) invalidate() {
	s.cache.DeletePrefix(tagCachePrefix)
}
