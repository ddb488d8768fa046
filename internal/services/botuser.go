package services

import (
	"context"
	"strings"

	"askhub/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BotUserService manages the links between external bot identities and
// internal users.
type BotUserService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewBotUserService(db *gorm.DB, logger *zap.Logger) *BotUserService {
	return &BotUserService{db: db, logger: logger.Named("botuser")}
}

type BotUserInput struct {
	BotAppName   string
	BotAppUserID string
	UserID       uuid.UUID
}

func (in *BotUserInput) normalize() error {
	in.BotAppName = strings.TrimSpace(in.BotAppName)
	in.BotAppUserID = strings.TrimSpace(in.BotAppUserID)
	fields := map[string]string{}
	if in.BotAppName == "" {
		fields["bot_app_name"] = "required"
	}
	if in.BotAppUserID == "" {
		fields["bot_app_user_id"] = "required"
	}
	if in.UserID == uuid.Nil {
		fields["user_id"] = "required"
	}
	if len(fields) > 0 {
		return InvalidInput("invalid bot user", fields)
	}
	return nil
}

// Create links a bot identity to a user, copying the profile's name and
// email at link time.
func (s *BotUserService) Create(ctx context.Context, in BotUserInput) (*models.BotUser, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var bu models.BotUser
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profile, err := resolveProfile(tx, in.UserID)
		if err != nil {
			return err
		}
		bu = models.BotUser{
			BotAppName:   in.BotAppName,
			BotAppUserID: in.BotAppUserID,
			UserID:       profile.ID,
			Name:         profile.DisplayName(),
			Email:        profile.Email,
		}
		return storeErr(tx.Create(&bu).Error, "bot user", map[string]string{
			"bot_app_name": in.BotAppName, "bot_app_user_id": in.BotAppUserID,
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("bot user linked", zap.String("bot_app", bu.BotAppName),
		zap.String("external_user", bu.BotAppUserID), zap.Stringer("user_id", bu.UserID))
	return &bu, nil
}

func (s *BotUserService) Update(ctx context.Context, id uuid.UUID, in BotUserInput) (*models.BotUser, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	fields := map[string]string{"id": id.String()}
	var bu models.BotUser
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&bu).Error; err != nil {
			return storeErr(err, "bot user", fields)
		}
		profile, err := resolveProfile(tx, in.UserID)
		if err != nil {
			return err
		}
		bu.BotAppName = in.BotAppName
		bu.BotAppUserID = in.BotAppUserID
		bu.UserID = profile.ID
		bu.Name = profile.DisplayName()
		bu.Email = profile.Email
		return storeErr(tx.Save(&bu).Error, "bot user", fields)
	})
	if err != nil {
		return nil, err
	}
	return &bu, nil
}

func (s *BotUserService) Get(ctx context.Context, id uuid.UUID) (*models.BotUser, error) {
	var bu models.BotUser
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&bu).Error; err != nil {
		return nil, storeErr(err, "bot user", map[string]string{"id": id.String()})
	}
	return &bu, nil
}

func (s *BotUserService) List(ctx context.Context) ([]models.BotUser, error) {
	var out []models.BotUser
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, storeErr(err, "bot users", nil)
	}
	return out, nil
}

func (s *BotUserService) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.BotUser{})
	if res.Error != nil {
		return storeErr(res.Error, "bot user", nil)
	}
	if res.RowsAffected == 0 {
		return NotFound("bot user not found", map[string]string{"id": id.String()})
	}
	return nil
}
