package repository

import (
	"context"

	"github.com/diemthi/thpt-score-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ScoreRepository handles exam result data access.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

// NewScoreRepository creates a new ScoreRepository.
func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

// UpsertMany bulk-inserts score rows, skipping rows that would violate the
// (student_id, subject_id) unique pair. One call per ingestion batch.
func (r *ScoreRepository) UpsertMany(ctx context.Context, scores []model.Score) error {
	if len(scores) == 0 {
		return nil
	}

	studentIDs := make([]int, len(scores))
	subjectIDs := make([]int, len(scores))
	values := make([]float64, len(scores))
	for i, s := range scores {
		studentIDs[i] = s.StudentID
		subjectIDs[i] = s.SubjectID
		values[i] = s.Score
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO scores (student_id, subject_id, score)
		 SELECT unnest($1::int[]), unnest($2::int[]), unnest($3::float8[])
		 ON CONFLICT (student_id, subject_id) DO NOTHING`,
		studentIDs, subjectIDs, values,
	)
	return err
}

// Count returns the total number of score rows.
func (r *ScoreRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM scores`).Scan(&n)
	return n, err
}

// LevelStatistics computes the 4-band candidate counts per subject in a
// single aggregation pass. The LEFT JOIN keeps subjects with no scores in
// the result with all-zero counts.
func (r *ScoreRepository) LevelStatistics(ctx context.Context) ([]model.ScoreLevelStat, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT
			sub.code,
			sub.name,
			COUNT(*) FILTER (WHERE sc.score >= 8),
			COUNT(*) FILTER (WHERE sc.score >= 6 AND sc.score < 8),
			COUNT(*) FILTER (WHERE sc.score >= 4 AND sc.score < 6),
			COUNT(*) FILTER (WHERE sc.score < 4),
			COUNT(sc.score)
		 FROM subjects sub
		 LEFT JOIN scores sc ON sc.subject_id = sub.id
		 GROUP BY sub.id, sub.code, sub.name
		 ORDER BY sub.code ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.ScoreLevelStat
	for rows.Next() {
		var s model.ScoreLevelStat
		if err := rows.Scan(&s.SubjectCode, &s.SubjectName,
			&s.LevelExcellent, &s.LevelGood, &s.LevelAverage, &s.LevelPoor,
			&s.Total); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Distribution computes the per-subject score histogram over twenty
// half-point buckets. Bucket index is FLOOR(score*2) clamped to 19 so a
// perfect 10 lands in [9.5, 10]; buckets with no scores are filled with
// zero counts in Go.
func (r *ScoreRepository) Distribution(ctx context.Context) ([]model.ScoreDistribution, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT
			sub.code,
			sub.name,
			LEAST(FLOOR(sc.score * 2)::int, 19) AS bucket_index,
			COUNT(*)
		 FROM subjects sub
		 JOIN scores sc ON sc.subject_id = sub.id
		 WHERE sc.score >= 0
		 GROUP BY sub.id, sub.code, sub.name, bucket_index
		 ORDER BY sub.code ASC, bucket_index ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.ScoreDistribution
	counts := make(map[string][20]int)
	var order []model.SubjectRef

	for rows.Next() {
		var code, name string
		var bucket, count int
		if err := rows.Scan(&code, &name, &bucket, &count); err != nil {
			return nil, err
		}
		if _, seen := counts[code]; !seen {
			order = append(order, model.SubjectRef{Code: code, Name: name})
		}
		c := counts[code]
		if bucket >= 0 && bucket < 20 {
			c[bucket] = count
		}
		counts[code] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, sub := range order {
		dist := model.ScoreDistribution{
			SubjectCode:  sub.Code,
			SubjectName:  sub.Name,
			Distribution: make([]model.DistributionBucket, 20),
		}
		c := counts[sub.Code]
		for i, label := range model.DistributionRangeLabels {
			dist.Distribution[i] = model.DistributionBucket{Range: label, Count: c[i]}
		}
		result = append(result, dist)
	}
	return result, nil
}
