package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diemthi/thpt-score-backend/internal/cache"
	"github.com/diemthi/thpt-score-backend/internal/config"
	"github.com/diemthi/thpt-score-backend/internal/model"
	"github.com/rs/zerolog"
)

// SubjectReader is the subject store surface SubjectService queries.
type SubjectReader interface {
	GetAll(ctx context.Context) ([]model.Subject, error)
}

// StatisticsReader is the aggregation store surface SubjectService queries.
type StatisticsReader interface {
	LevelStatistics(ctx context.Context) ([]model.ScoreLevelStat, error)
	Distribution(ctx context.Context) ([]model.ScoreDistribution, error)
}

// SubjectService serves the subject list and score statistics, cache-aside.
type SubjectService struct {
	subjects SubjectReader
	stats    StatisticsReader
	cache    cache.Store
	log      zerolog.Logger
}

// NewSubjectService creates a new SubjectService.
func NewSubjectService(subjects SubjectReader, stats StatisticsReader, cacheStore cache.Store, log zerolog.Logger) *SubjectService {
	return &SubjectService{
		subjects: subjects,
		stats:    stats,
		cache:    cacheStore,
		log:      log.With().Str("component", "subject_service").Logger(),
	}
}

// GetAll returns all subjects, ordered by code.
func (s *SubjectService) GetAll(ctx context.Context) ([]model.Subject, error) {
	key := config.CacheKey.AllSubjectsKey()

	if raw, ok := s.cache.Get(ctx, key); ok {
		var subjects []model.Subject
		if err := json.Unmarshal(raw, &subjects); err == nil {
			return subjects, nil
		}
	}

	subjects, err := s.subjects.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get subjects: %w", err)
	}
	if subjects == nil {
		subjects = []model.Subject{}
	}

	s.fill(ctx, key, subjects, config.TTLAllSubjects)
	return subjects, nil
}

// GetScoreLevelStatistics returns the per-subject 4-band counts.
func (s *SubjectService) GetScoreLevelStatistics(ctx context.Context) ([]model.ScoreLevelStat, error) {
	key := config.CacheKey.ScoreLevelsKey()

	if raw, ok := s.cache.Get(ctx, key); ok {
		var stats []model.ScoreLevelStat
		if err := json.Unmarshal(raw, &stats); err == nil {
			return stats, nil
		}
	}

	stats, err := s.stats.LevelStatistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("score level statistics: %w", err)
	}
	if stats == nil {
		stats = []model.ScoreLevelStat{}
	}

	s.fill(ctx, key, stats, config.TTLScoreLevels)
	return stats, nil
}

// GetScoreDistribution returns the per-subject half-point histogram.
func (s *SubjectService) GetScoreDistribution(ctx context.Context) ([]model.ScoreDistribution, error) {
	key := config.CacheKey.ScoreDistributionKey()

	if raw, ok := s.cache.Get(ctx, key); ok {
		var dist []model.ScoreDistribution
		if err := json.Unmarshal(raw, &dist); err == nil {
			return dist, nil
		}
	}

	dist, err := s.stats.Distribution(ctx)
	if err != nil {
		return nil, fmt.Errorf("score distribution: %w", err)
	}
	if dist == nil {
		dist = []model.ScoreDistribution{}
	}

	s.fill(ctx, key, dist, config.TTLScoreDistribution)
	return dist, nil
}

// InvalidateDerived drops every cache entry computed from score data:
// per-candidate lookups, all group rankings at every limit, and the two
// statistics keys. Called after an ingestion run changes the underlying
// tables. The subject list is not touched — it is fixed.
func (s *SubjectService) InvalidateDerived(ctx context.Context) {
	s.cache.DeletePattern(ctx, config.CacheKey.StudentScoresPattern())
	s.cache.DeletePattern(ctx, config.CacheKey.TopGroupPattern())
	s.cache.Delete(ctx, config.CacheKey.ScoreLevelsKey())
	s.cache.Delete(ctx, config.CacheKey.ScoreDistributionKey())
	s.log.Info().Msg("Score-derived cache entries invalidated")
}

// PrewarmCaches fills the slow-moving caches before traffic arrives so the
// first dashboard load does not pay the aggregation cost.
func (s *SubjectService) PrewarmCaches(ctx context.Context) error {
	if _, err := s.GetAll(ctx); err != nil {
		return err
	}
	if _, err := s.GetScoreLevelStatistics(ctx); err != nil {
		return err
	}
	return nil
}

func (s *SubjectService) fill(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to serialize cache value")
		return
	}
	s.cache.Set(ctx, key, raw, ttl)
}
