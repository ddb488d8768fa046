package services

import (
	"context"
	"errors"

	"askhub/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IdentityService bridges the external system's user and entity id spaces to
// internal ones through the bot_users and mapping tables. Every miss fails
// closed with a structured error carrying the ids that were looked up.
type IdentityService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewIdentityService(db *gorm.DB, logger *zap.Logger) *IdentityService {
	return &IdentityService{db: db, logger: logger.Named("identity")}
}

// ResolveBotUser finds the bot user linked to (botAppName, externalUserID).
// Bot users are never provisioned implicitly.
func (s *IdentityService) ResolveBotUser(ctx context.Context, botAppName, externalUserID string) (*models.BotUser, error) {
	return resolveBotUser(s.db.WithContext(ctx), botAppName, externalUserID)
}

func resolveBotUser(tx *gorm.DB, botAppName, externalUserID string) (*models.BotUser, error) {
	var bu models.BotUser
	err := tx.Where("bot_app_name = ? AND bot_app_user_id = ?", botAppName, externalUserID).Take(&bu).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &Error{
			Kind:    KindBotUserNotFound,
			Message: "Bot user not found",
			Fields:  map[string]string{"botAppName": botAppName, "externalUserId": externalUserID},
		}
	}
	if err != nil {
		return nil, storeErr(err, "bot user", nil)
	}
	return &bu, nil
}

// ResolveProfile loads the internal user a bot user points at.
func (s *IdentityService) ResolveProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return resolveProfile(s.db.WithContext(ctx), userID)
}

func resolveProfile(tx *gorm.DB, userID uuid.UUID) (*models.User, error) {
	var u models.User
	err := tx.Where("id = ?", userID).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &Error{
			Kind:    KindProfileNotFound,
			Message: "User profile not found",
			Fields:  map[string]string{"userId": userID.String()},
		}
	}
	if err != nil {
		return nil, storeErr(err, "profile", nil)
	}
	return &u, nil
}

// ResolveInternalQuestion maps an external question id to the internal one.
// If several mappings share the id the earliest one wins.
func (s *IdentityService) ResolveInternalQuestion(ctx context.Context, externalQuestionID string) (uuid.UUID, error) {
	return resolveInternalQuestion(s.db.WithContext(ctx), externalQuestionID)
}

func resolveInternalQuestion(tx *gorm.DB, externalQuestionID string) (uuid.UUID, error) {
	var m models.QuestionMapping
	err := tx.Where("external_question_id = ?", externalQuestionID).
		Order("created_at ASC").First(&m).Error
	if err != nil {
		return uuid.Nil, storeErr(err, "question mapping", map[string]string{"externalQuestionId": externalQuestionID})
	}
	return m.QuestionID, nil
}

// ResolveInternalAnswer maps an external answer id to the internal one.
func (s *IdentityService) ResolveInternalAnswer(ctx context.Context, externalAnswerID string) (uuid.UUID, error) {
	return resolveInternalAnswer(s.db.WithContext(ctx), externalAnswerID)
}

func resolveInternalAnswer(tx *gorm.DB, externalAnswerID string) (uuid.UUID, error) {
	var m models.AnswerMapping
	err := tx.Where("external_answer_id = ?", externalAnswerID).
		Order("created_at ASC").First(&m).Error
	if err != nil {
		return uuid.Nil, storeErr(err, "answer mapping", map[string]string{"externalAnswerId": externalAnswerID})
	}
	return m.AnswerID, nil
}

// RecordQuestionMapping stores the link between a newly ingested question and
// its external id. Mappings are never updated afterwards.
func (s *IdentityService) RecordQuestionMapping(ctx context.Context, questionID uuid.UUID, externalQuestionID, externalUserID string) (*models.QuestionMapping, error) {
	return recordQuestionMapping(s.db.WithContext(ctx), questionID, externalQuestionID, externalUserID)
}

func recordQuestionMapping(tx *gorm.DB, questionID uuid.UUID, externalQuestionID, externalUserID string) (*models.QuestionMapping, error) {
	m := models.QuestionMapping{
		QuestionID:         questionID,
		ExternalQuestionID: externalQuestionID,
		ExternalUserID:     externalUserID,
	}
	if err := tx.Create(&m).Error; err != nil {
		return nil, storeErr(err, "question mapping", map[string]string{"externalQuestionId": externalQuestionID})
	}
	return &m, nil
}

func (s *IdentityService) RecordAnswerMapping(ctx context.Context, answerID uuid.UUID, externalAnswerID, externalUserID, externalUserName string) (*models.AnswerMapping, error) {
	return recordAnswerMapping(s.db.WithContext(ctx), answerID, externalAnswerID, externalUserID, externalUserName)
}

func recordAnswerMapping(tx *gorm.DB, answerID uuid.UUID, externalAnswerID, externalUserID, externalUserName string) (*models.AnswerMapping, error) {
	m := models.AnswerMapping{
		AnswerID:         answerID,
		ExternalAnswerID: externalAnswerID,
		ExternalUserID:   externalUserID,
		ExternalUserName: externalUserName,
	}
	if err := tx.Create(&m).Error; err != nil {
		return nil, storeErr(err, "answer mapping", map[string]string{"externalAnswerId": externalAnswerID})
	}
	return &m, nil
}

// questionMappingExists reports whether the external question id was already ingested.
func questionMappingExists(tx *gorm.DB, externalQuestionID string) (bool, error) {
	var n int64
	if err := tx.Model(&models.QuestionMapping{}).
		Where("external_question_id = ?", externalQuestionID).Count(&n).Error; err != nil {
		return false, storeErr(err, "question mapping", nil)
	}
	return n > 0, nil
}

func answerMappingExists(tx *gorm.DB, externalAnswerID string) (bool, error) {
	var n int64
	if err := tx.Model(&models.AnswerMapping{}).
		Where("external_answer_id = ?", externalAnswerID).Count(&n).Error; err != nil {
		return false, storeErr(err, "answer mapping", nil)
	}
	return n > 0, nil
}
