package services

import (
	"context"
	"sync"
	"time"

	"askhub/internal/models"
	"askhub/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	rankQueueSize = 1000
	rankBatchSize = 50
	rankWindow    = 7 * 24 * time.Hour
	rankTopN      = 30
)

// RankingService recomputes questions' hot_score in the background.
type RankingService struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time

	queue   chan uuid.UUID
	mu      sync.Mutex
	pending map[uuid.UUID]bool
}

func NewRankingService(db *gorm.DB, logger *zap.Logger) *RankingService {
	return &RankingService{
		db:      db,
		logger:  logger.Named("ranking"),
		now:     time.Now,
		queue:   make(chan uuid.UUID, rankQueueSize),
		pending: make(map[uuid.UUID]bool),
	}
}

// ScheduleUpdate queues a question for rescoring. Ids already queued are
// skipped; a full queue drops the request.
func (s *RankingService) ScheduleUpdate(questionID uuid.UUID) {
	s.mu.Lock()
	if s.pending[questionID] {
		s.mu.Unlock()
		return
	}
	s.pending[questionID] = true
	s.mu.Unlock()

	select {
	case s.queue <- questionID:
	default:
		s.mu.Lock()
		delete(s.pending, questionID)
		s.mu.Unlock()
		s.logger.Warn("ranking queue full, update skipped", zap.Stringer("question_id", questionID))
	}
}

// Run processes queued updates in batches and refreshes recent and top
// questions every refreshEvery. It returns when ctx is done.
func (s *RankingService) Run(ctx context.Context, refreshEvery time.Duration) {
	batch := make([]uuid.UUID, 0, rankBatchSize)
	flush := time.NewTicker(500 * time.Millisecond)
	defer flush.Stop()
	refresh := time.NewTicker(refreshEvery)
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case id := <-s.queue:
			batch = append(batch, id)
			if len(batch) >= rankBatchSize {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-flush.C:
			if len(batch) > 0 {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-refresh.C:
			n, err := s.RefreshHot(ctx)
			if err != nil {
				s.logger.Warn("hot score refresh failed", zap.Error(err))
				continue
			}
			s.logger.Info("hot scores refreshed", zap.Int("questions", n))
		}
	}
}

func (s *RankingService) processBatch(ctx context.Context, ids []uuid.UUID) {
	for _, id := range ids {
		if err := s.UpdateScore(ctx, id); err != nil && KindOf(err) != KindNotFound {
			s.logger.Warn("update hot score failed", zap.Stringer("question_id", id), zap.Error(err))
		}
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}
}

// UpdateScore recomputes one question's hot_score from its votes and answers.
func (s *RankingService) UpdateScore(ctx context.Context, questionID uuid.UUID) error {
	tx := s.db.WithContext(ctx)
	fields := map[string]string{"id": questionID.String()}

	var q models.Question
	if err := tx.Select("id", "created_at", "vote_count").Where("id = ?", questionID).Take(&q).Error; err != nil {
		return storeErr(err, "question", fields)
	}
	var answers int64
	if err := tx.Model(&models.Answer{}).Where("question_id = ?", questionID).Count(&answers).Error; err != nil {
		return storeErr(err, "answers", fields)
	}

	score := utils.HotScore(q.CreatedAt, q.VoteCount, int(answers), s.now())
	if err := tx.Model(&models.Question{}).Where("id = ?", questionID).UpdateColumn("hot_score", score).Error; err != nil {
		return storeErr(err, "question", fields)
	}
	return nil
}

// RefreshHot rescores questions from the last 7 days plus the current top 30,
// so that scores keep decaying without new activity.
func (s *RankingService) RefreshHot(ctx context.Context) (int, error) {
	tx := s.db.WithContext(ctx)
	var recent, top []uuid.UUID
	if err := tx.Model(&models.Question{}).Where("created_at >= ?", s.now().Add(-rankWindow)).Pluck("id", &recent).Error; err != nil {
		return 0, storeErr(err, "questions", nil)
	}
	if err := tx.Model(&models.Question{}).Order("hot_score DESC").Limit(rankTopN).Pluck("id", &top).Error; err != nil {
		return 0, storeErr(err, "questions", nil)
	}

	processed := make(map[uuid.UUID]bool, len(recent)+len(top))
	for _, id := range append(recent, top...) {
		if processed[id] {
			continue
		}
		processed[id] = true
		if err := s.UpdateScore(ctx, id); err != nil && KindOf(err) != KindNotFound {
			return len(processed), err
		}
	}
	return len(processed), nil
}
