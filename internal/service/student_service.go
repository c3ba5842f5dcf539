package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/diemthi/thpt-score-backend/internal/cache"
	"github.com/diemthi/thpt-score-backend/internal/config"
	"github.com/diemthi/thpt-score-backend/internal/model"
	"github.com/diemthi/thpt-score-backend/internal/repository"
	"github.com/rs/zerolog"
)

// Domain Errors
var (
	ErrStudentNotFound = errors.New("no candidate with this sbd")
	ErrInvalidSBD      = errors.New("malformed sbd")
	ErrUnknownGroup    = errors.New("unknown subject group")
)

// Top-group limit policy.
const (
	DefaultTopLimit = 10
	MaxTopLimit     = 100
)

// StudentReader is the store surface StudentService queries on cache misses.
type StudentReader interface {
	GetScoresBySBD(ctx context.Context, sbd string) (*model.StudentScores, error)
	TopGroup(ctx context.Context, group model.SubjectGroup, limit int) ([]model.TopStudent, error)
}

// StudentService serves candidate score lookups and group rankings with a
// cache-aside layer in front of the store. Every cacheable query checks the
// cache first; on miss it queries the store, fills the cache, and returns.
// Concurrent identical misses may each hit the store — results are
// idempotent reads, so the redundant work is benign.
type StudentService struct {
	repo  StudentReader
	cache cache.Store
	log   zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(repo StudentReader, cacheStore cache.Store, log zerolog.Logger) *StudentService {
	return &StudentService{
		repo:  repo,
		cache: cacheStore,
		log:   log.With().Str("component", "student_service").Logger(),
	}
}

// cachedLookup wraps a score lookup so a not-found outcome can be cached
// distinctly from a real DTO. Negative entries get a short TTL.
type cachedLookup struct {
	Found bool                 `json:"found"`
	Data  *model.StudentScores `json:"data,omitempty"`
}

// GetScoresBySBD returns a candidate's scores by registration number.
// Returns ErrInvalidSBD on a malformed input and ErrStudentNotFound for a
// well-formed sbd with no row.
func (s *StudentService) GetScoresBySBD(ctx context.Context, sbd string) (*model.StudentScores, error) {
	if !model.ValidSBD(sbd) {
		return nil, ErrInvalidSBD
	}

	key := config.CacheKey.StudentScoresKey(sbd)

	if raw, ok := s.cache.Get(ctx, key); ok {
		var entry cachedLookup
		if err := json.Unmarshal(raw, &entry); err == nil {
			if !entry.Found {
				return nil, ErrStudentNotFound
			}
			return entry.Data, nil
		}
		// Undecodable entry is treated as a miss and overwritten below.
	}

	result, err := s.repo.GetScoresBySBD(ctx, sbd)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			s.fill(ctx, key, cachedLookup{Found: false}, config.TTLStudentNotFound)
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("get scores for %s: %w", sbd, err)
	}

	s.fill(ctx, key, cachedLookup{Found: true, Data: result}, config.TTLStudentScores)
	return result, nil
}

// GetTopGroup returns the highest-ranked candidates for a subject group.
// limit defaults to DefaultTopLimit when non-positive and is capped at
// MaxTopLimit. Only candidates with all three group subjects are ranked.
func (s *StudentService) GetTopGroup(ctx context.Context, group string, limit int) ([]model.TopStudent, error) {
	g, ok := model.SubjectGroups[group]
	if !ok {
		return nil, ErrUnknownGroup
	}

	if limit < 1 {
		limit = DefaultTopLimit
	}
	if limit > MaxTopLimit {
		limit = MaxTopLimit
	}

	key := config.CacheKey.TopGroupKey(group, limit)

	if raw, ok := s.cache.Get(ctx, key); ok {
		var top []model.TopStudent
		if err := json.Unmarshal(raw, &top); err == nil {
			return top, nil
		}
	}

	top, err := s.repo.TopGroup(ctx, g, limit)
	if err != nil {
		return nil, fmt.Errorf("top group %s: %w", g.Name, err)
	}
	if top == nil {
		top = []model.TopStudent{}
	}

	s.fill(ctx, key, top, config.TTLTopGroup)
	return top, nil
}

// fill serializes value into the cache. Serialization failures are logged
// and dropped — the caller already holds the authoritative result.
func (s *StudentService) fill(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to serialize cache value")
		return
	}
	s.cache.Set(ctx, key, raw, ttl)
}
