package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"askhub/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const apiKeyPrefix = "qak_"

// APIKeyPrincipal is what a successfully authenticated bot request carries
// downstream. Name is the bot application identifier.
type APIKeyPrincipal struct {
	KeyID uuid.UUID
	Name  string
}

type APIKeyService struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewAPIKeyService(db *gorm.DB, logger *zap.Logger) *APIKeyService {
	return &APIKeyService{db: db, logger: logger.Named("apikey"), now: time.Now}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

// Authenticate validates the Authorization header against stored keys.
// A missing or malformed header is Unauthenticated; an unknown, inactive or
// expired key is InvalidAPIKey. On success last_used_at is bumped, and a
// failure to do so is only logged.
func (s *APIKeyService) Authenticate(ctx context.Context, authHeader string) (*APIKeyPrincipal, error) {
	token, ok := BearerToken(authHeader)
	if !ok {
		return nil, Unauthenticated("Missing or invalid authorization header")
	}

	var key models.APIKey
	err := s.db.WithContext(ctx).Where(&models.APIKey{Key: token}).Take(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &Error{Kind: KindInvalidAPIKey, Message: "Invalid or expired API key"}
	}
	if err != nil {
		return nil, storeErr(err, "api key", nil)
	}

	now := s.now().UTC()
	if !key.Usable(now) {
		return nil, &Error{Kind: KindInvalidAPIKey, Message: "Invalid or expired API key"}
	}

	if err := s.db.WithContext(ctx).Model(&models.APIKey{}).Where("id = ?", key.ID).
		UpdateColumn("last_used_at", now).Error; err != nil {
		s.logger.Warn("failed to update api key last_used_at", zap.Stringer("key_id", key.ID), zap.Error(err))
	}

	return &APIKeyPrincipal{KeyID: key.ID, Name: key.Name}, nil
}

// GenerateAPIKey returns a fresh random key token.
func GenerateAPIKey() string {
	return apiKeyPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *APIKeyService) Create(ctx context.Context, name string, expiresAt *time.Time) (*models.APIKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, InvalidInput("name is required", map[string]string{"name": "required"})
	}
	key := models.APIKey{
		Name:      name,
		Key:       GenerateAPIKey(),
		IsActive:  true,
		ExpiresAt: expiresAt,
	}
	if err := s.db.WithContext(ctx).Create(&key).Error; err != nil {
		return nil, storeErr(err, "api key", map[string]string{"name": name})
	}
	s.logger.Info("api key created", zap.Stringer("key_id", key.ID), zap.String("name", name))
	return &key, nil
}

func (s *APIKeyService) List(ctx context.Context) ([]models.APIKey, error) {
	var keys []models.APIKey
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&keys).Error; err != nil {
		return nil, storeErr(err, "api keys", nil)
	}
	return keys, nil
}

func (s *APIKeyService) Get(ctx context.Context, id uuid.UUID) (*models.APIKey, error) {
	var key models.APIKey
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&key).Error; err != nil {
		return nil, storeErr(err, "api key", map[string]string{"id": id.String()})
	}
	return &key, nil
}

// APIKeyUpdate holds the optional fields of an update. ClearExpiry removes
// an expiry date.
type APIKeyUpdate struct {
	Name        *string
	IsActive    *bool
	ExpiresAt   *time.Time
	ClearExpiry bool
}

func (s *APIKeyService) Update(ctx context.Context, id uuid.UUID, in APIKeyUpdate) (*models.APIKey, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, InvalidInput("name is required", map[string]string{"name": "required"})
		}
		updates["name"] = name
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.ExpiresAt != nil {
		updates["expires_at"] = in.ExpiresAt.UTC()
	} else if in.ClearExpiry {
		updates["expires_at"] = nil
	}

	key, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return key, nil
	}
	if err := s.db.WithContext(ctx).Model(&models.APIKey{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, storeErr(err, "api key", map[string]string{"id": id.String()})
	}
	return s.Get(ctx, id)
}

func (s *APIKeyService) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.APIKey{})
	if res.Error != nil {
		return storeErr(res.Error, "api key", nil)
	}
	if res.RowsAffected == 0 {
		return NotFound("api key not found", map[string]string{"id": id.String()})
	}
	return nil
}
