package services

import (
	"context"
	"strings"
	"time"

	"askhub/internal/models"
	"askhub/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	categoryCacheKey = "categories:all"
	categoryCacheTTL = 10 * time.Minute
)

type CategoryService struct {
	db     *gorm.DB
	cache  *utils.Cache
	logger *zap.Logger
}

func NewCategoryService(db *gorm.DB, cache *utils.Cache, logger *zap.Logger) *CategoryService {
	return &CategoryService{db: db, cache: cache, logger: logger.Named("category")}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	if v, ok := s.cache.Get(categoryCacheKey); ok {
		return v.([]models.Category), nil
	}
	var cats []models.Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&cats).Error; err != nil {
		return nil, storeErr(err, "categories", nil)
	}
	s.cache.Set(categoryCacheKey, cats, categoryCacheTTL)
	return cats, nil
}

func (s *CategoryService) Create(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, InvalidInput("category name is required", map[string]string{"name": "required"})
	}
	c := models.Category{Name: name}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, storeErr(err, "category", nil)
	}
	s.cache.Delete(categoryCacheKey)
	return &c, nil
}

func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, InvalidInput("category name is required", map[string]string{"name": "required"})
	}
	fields := map[string]string{"id": id.String()}
	var c models.Category
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&c).Error; err != nil {
		return nil, storeErr(err, "category", fields)
	}
	if err := s.db.WithContext(ctx).Model(&c).Update("name", name).Error; err != nil {
		return nil, storeErr(err, "category", fields)
	}
	c.Name = name
	s.cache.Delete(categoryCacheKey)
	return &c, nil
}

// Delete removes a category. Questions in it keep existing without one.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return storeErr(res.Error, "category", nil)
	}
	if res.RowsAffected == 0 {
		return NotFound("category not found", map[string]string{"id": id.String()})
	}
	s.cache.Delete(categoryCacheKey)
	return nil
}
