package config

import (
	"fmt"
	"time"
)

// Cache TTLs per key family. Each family is a separate invalidation domain.
const (
	TTLStudentScores     = time.Hour
	TTLStudentNotFound   = 5 * time.Minute // negative result, kept short
	TTLTopGroup          = 30 * time.Minute
	TTLAllSubjects       = 2 * time.Hour
	TTLScoreLevels       = time.Hour
	TTLScoreDistribution = time.Hour
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentScoresKey returns the cache key for a candidate's score lookup by
// registration number.
func (r *CacheKeyStruct) StudentScoresKey(sbd string) string {
	return fmt.Sprintf("student:scores:%s", sbd)
}

// StudentScoresPattern matches every cached score lookup.
func (r *CacheKeyStruct) StudentScoresPattern() string {
	return "student:scores:*"
}

// TopGroupKey returns the cache key for a top-N ranking of one subject group
// at one specific limit.
func (r *CacheKeyStruct) TopGroupKey(group string, limit int) string {
	return fmt.Sprintf("students:top-group-%s:%d", group, limit)
}

// TopGroupPattern matches every cached limit for every subject group.
func (r *CacheKeyStruct) TopGroupPattern() string {
	return "students:top-group-*"
}

// AllSubjectsKey returns the cache key for the full subject list.
func (r *CacheKeyStruct) AllSubjectsKey() string {
	return "subjects:all"
}

// ScoreLevelsKey returns the cache key for the per-subject 4-band statistics.
func (r *CacheKeyStruct) ScoreLevelsKey() string {
	return "statistics:score-levels"
}

// ScoreDistributionKey returns the cache key for the per-subject histogram.
func (r *CacheKeyStruct) ScoreDistributionKey() string {
	return "statistics:score-distribution"
}

var CacheKey = NewCacheKeyStruct()
