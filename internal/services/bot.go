package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"askhub/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BotService runs the bot ingestion flows. Each flow resolves identities
// first, failing closed on any miss, then performs the mutation and records
// the mapping inside the same transaction.
type BotService struct {
	db      *gorm.DB
	guard   IngestGuard
	tags    *TagService
	baseURL string
	logger  *zap.Logger
}

func NewBotService(db *gorm.DB, guard IngestGuard, tags *TagService, baseURL string, logger *zap.Logger) *BotService {
	if guard == nil {
		guard = NopIngestGuard{}
	}
	return &BotService{
		db:      db,
		guard:   guard,
		tags:    tags,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger.Named("bot"),
	}
}

// ExternalUser is the external system's view of the acting user.
type ExternalUser struct {
	ID   string
	Name string
}

type BotQuestionInput struct {
	ExternalID string
	Title      string
	Body       string
	User       ExternalUser
}

type BotQuestionResult struct {
	Question *models.Question
	Mapping  *models.QuestionMapping
	URL      string
}

type BotAnswerInput struct {
	ExternalID         string
	ExternalQuestionID string
	Body               string
	User               ExternalUser
}

type BotAnswerResult struct {
	Answer  *models.Answer
	Mapping *models.AnswerMapping
	URL     string
}

type BotAcceptInput struct {
	ExternalAnswerID string
	Accept           bool
	User             ExternalUser
}

type BotAcceptResult struct {
	Answer     *models.Answer
	AcceptedBy ExternalUser
	URL        string
}

func (s *BotService) QuestionURL(questionID uuid.UUID) string {
	return fmt.Sprintf("%s/qna/%s", s.baseURL, questionID)
}

func (s *BotService) AnswerURL(questionID, answerID uuid.UUID) string {
	return fmt.Sprintf("%s/qna/%s#answer-%s", s.baseURL, questionID, answerID)
}

// resolveActor maps the external user to an internal profile.
func resolveActor(tx *gorm.DB, botApp string, ext ExternalUser) (*models.BotUser, error) {
	bu, err := resolveBotUser(tx, botApp, ext.ID)
	if err != nil {
		return nil, err
	}
	if _, err := resolveProfile(tx, bu.UserID); err != nil {
		var se *Error
		if errors.As(err, &se) && se.Kind == KindProfileNotFound {
			se.Message = "Profile not found for bot user"
			se.Fields = map[string]string{
				"userId":         bu.UserID.String(),
				"botAppName":     botApp,
				"externalUserId": ext.ID,
			}
		}
		return nil, err
	}
	return bu, nil
}

// CreateQuestion ingests an external question on behalf of the mapped user.
// An external id that was already ingested is rejected with Conflict.
func (s *BotService) CreateQuestion(ctx context.Context, p APIKeyPrincipal, in BotQuestionInput) (*BotQuestionResult, error) {
	qin := QuestionInput{Title: in.Title, Body: in.Body}
	if err := qin.normalize(); err != nil {
		return nil, err
	}

	release, err := s.guard.Acquire(ctx, p.Name+":question:"+in.ExternalID)
	if err != nil {
		return nil, err
	}
	defer release()

	var res BotQuestionResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bu, err := resolveActor(tx, p.Name, in.User)
		if err != nil {
			return err
		}
		dup, err := questionMappingExists(tx, in.ExternalID)
		if err != nil {
			return err
		}
		if dup {
			return Conflict("Question already ingested", map[string]string{"externalQuestionId": in.ExternalID})
		}

		q, err := createQuestion(tx, bu.UserID, qin)
		if err != nil {
			return err
		}
		m, err := recordQuestionMapping(tx, q.ID, in.ExternalID, in.User.ID)
		if err != nil {
			return err
		}
		res = BotQuestionResult{Question: q, Mapping: m, URL: s.QuestionURL(q.ID)}
		return nil
	})
	if err != nil {
		s.logFailure("create question", p, in.User.ID, err)
		return nil, err
	}
	s.tags.invalidate()
	s.logger.Info("bot question created",
		zap.String("bot_app", p.Name),
		zap.String("external_question_id", in.ExternalID),
		zap.Stringer("question_id", res.Question.ID))
	return &res, nil
}

// CreateAnswer ingests an external answer under the question mapped from
// ExternalQuestionID.
func (s *BotService) CreateAnswer(ctx context.Context, p APIKeyPrincipal, in BotAnswerInput) (*BotAnswerResult, error) {
	ain := AnswerInput{Body: in.Body}
	if err := ain.normalize(); err != nil {
		return nil, err
	}

	release, err := s.guard.Acquire(ctx, p.Name+":answer:"+in.ExternalID)
	if err != nil {
		return nil, err
	}
	defer release()

	var res BotAnswerResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bu, err := resolveActor(tx, p.Name, in.User)
		if err != nil {
			return err
		}
		questionID, err := resolveInternalQuestion(tx, in.ExternalQuestionID)
		if err != nil {
			return err
		}
		dup, err := answerMappingExists(tx, in.ExternalID)
		if err != nil {
			return err
		}
		if dup {
			return Conflict("Answer already ingested", map[string]string{"externalAnswerId": in.ExternalID})
		}

		a, err := createAnswer(tx, questionID, bu.UserID, ain)
		if err != nil {
			return err
		}
		m, err := recordAnswerMapping(tx, a.ID, in.ExternalID, in.User.ID, in.User.Name)
		if err != nil {
			return err
		}
		res = BotAnswerResult{Answer: a, Mapping: m, URL: s.AnswerURL(questionID, a.ID)}
		return nil
	})
	if err != nil {
		s.logFailure("create answer", p, in.User.ID, err)
		return nil, err
	}
	s.logger.Info("bot answer created",
		zap.String("bot_app", p.Name),
		zap.String("external_answer_id", in.ExternalID),
		zap.Stringer("answer_id", res.Answer.ID))
	return &res, nil
}

// AcceptAnswer sets the accepted flag of the answer mapped from
// ExternalAnswerID. The answer's user_id is overwritten with the accepting
// user.
// TODO: record the accepter in its own column once the bot clients stop reading user_id as the accepter.
func (s *BotService) AcceptAnswer(ctx context.Context, p APIKeyPrincipal, in BotAcceptInput) (*BotAcceptResult, error) {
	var res BotAcceptResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bu, err := resolveActor(tx, p.Name, in.User)
		if err != nil {
			return err
		}
		answerID, err := resolveInternalAnswer(tx, in.ExternalAnswerID)
		if err != nil {
			return err
		}
		a, err := setAccepted(tx, answerID, in.Accept, &bu.UserID)
		if err != nil {
			return err
		}
		res = BotAcceptResult{Answer: a, AcceptedBy: in.User, URL: s.AnswerURL(a.QuestionID, a.ID)}
		return nil
	})
	if err != nil {
		s.logFailure("accept answer", p, in.User.ID, err)
		return nil, err
	}
	s.logger.Info("bot answer acceptance changed",
		zap.String("bot_app", p.Name),
		zap.String("external_answer_id", in.ExternalAnswerID),
		zap.Bool("accepted", in.Accept))
	return &res, nil
}

func (s *BotService) logFailure(op string, p APIKeyPrincipal, externalUserID string, err error) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("bot_app", p.Name),
		zap.String("external_user_id", externalUserID),
		zap.Error(err),
	}
	if KindOf(err) == KindInternal {
		s.logger.Error("bot request failed", fields...)
		return
	}
	s.logger.Info("bot request rejected", fields...)
}

