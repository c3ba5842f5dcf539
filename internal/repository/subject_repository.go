package repository

import (
	"context"

	"github.com/diemthi/thpt-score-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubjectRepository handles subject data access.
type SubjectRepository struct {
	pool *pgxpool.Pool
}

// NewSubjectRepository creates a new SubjectRepository.
func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

// UpsertMany inserts subjects, skipping any whose code already exists.
// Safe to call on every ingestion run.
func (r *SubjectRepository) UpsertMany(ctx context.Context, subjects []model.Subject) error {
	if len(subjects) == 0 {
		return nil
	}

	codes := make([]string, len(subjects))
	names := make([]string, len(subjects))
	for i, s := range subjects {
		codes[i] = s.Code
		names[i] = s.Name
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO subjects (code, name)
		 SELECT unnest($1::text[]), unnest($2::text[])
		 ON CONFLICT (code) DO NOTHING`,
		codes, names,
	)
	return err
}

// GetAll retrieves all subjects ordered by code.
func (r *SubjectRepository) GetAll(ctx context.Context) ([]model.Subject, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, code, name FROM subjects ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []model.Subject
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.Code, &s.Name); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// CodeMap returns the subject code → surrogate id mapping. The ingestion
// pipeline computes this once per run and holds it for every batch.
func (r *SubjectRepository) CodeMap(ctx context.Context) (map[string]int, error) {
	subjects, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	m := make(map[string]int, len(subjects))
	for _, s := range subjects {
		m[s.Code] = s.ID
	}
	return m, nil
}
