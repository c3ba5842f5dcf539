package repository

import (
	"context"

	"github.com/diemthi/thpt-score-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StudentRepository handles candidate data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// UpsertMany inserts candidates in bulk, skipping rows whose sbd already
// exists. Duplicate sbd within one call is also absorbed by the conflict
// clause, so re-running ingestion is a no-op here.
func (r *StudentRepository) UpsertMany(ctx context.Context, students []model.Student) error {
	if len(students) == 0 {
		return nil
	}

	sbds := make([]string, len(students))
	langs := make([]*string, len(students))
	for i, s := range students {
		sbds[i] = s.SBD
		langs[i] = s.MaNgoaiNgu
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO students (sbd, ma_ngoai_ngu)
		 SELECT unnest($1::text[]), unnest($2::text[])
		 ON CONFLICT (sbd) DO NOTHING`,
		sbds, langs,
	)
	return err
}

// IDsBySBD returns the sbd → surrogate id mapping for the given set,
// covering rows inserted by this batch as well as pre-existing ones.
func (r *StudentRepository) IDsBySBD(ctx context.Context, sbds []string) (map[string]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, sbd FROM students WHERE sbd = ANY($1)`, sbds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := make(map[string]int, len(sbds))
	for rows.Next() {
		var id int
		var sbd string
		if err := rows.Scan(&id, &sbd); err != nil {
			return nil, err
		}
		m[sbd] = id
	}
	return m, rows.Err()
}

// GetScoresBySBD retrieves a candidate with all their subject scores,
// ordered by subject code. Returns pgx.ErrNoRows when the sbd is unknown.
func (r *StudentRepository) GetScoresBySBD(ctx context.Context, sbd string) (*model.StudentScores, error) {
	var id int
	result := &model.StudentScores{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, sbd, ma_ngoai_ngu FROM students WHERE sbd = $1`, sbd,
	).Scan(&id, &result.SBD, &result.MaNgoaiNgu)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT sub.code, sub.name, sc.score
		 FROM scores sc
		 JOIN subjects sub ON sub.id = sc.subject_id
		 WHERE sc.student_id = $1
		 ORDER BY sub.code ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result.Scores = []model.SubjectScore{}
	for rows.Next() {
		var s model.SubjectScore
		if err := rows.Scan(&s.Subject.Code, &s.Subject.Name, &s.Score); err != nil {
			return nil, err
		}
		result.Scores = append(result.Scores, s)
	}
	return result, rows.Err()
}

// TopGroup returns the limit highest-ranked candidates for a subject group,
// by summed score across its three subjects. The HAVING clause enforces the
// completeness rule: a candidate missing any group subject is never ranked,
// regardless of their partial sum.
func (r *StudentRepository) TopGroup(ctx context.Context, group model.SubjectGroup, limit int) ([]model.TopStudent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT
			s.sbd,
			s.ma_ngoai_ngu,
			MAX(CASE WHEN sub.code = $1 THEN sc.score END)::float8,
			MAX(CASE WHEN sub.code = $2 THEN sc.score END)::float8,
			MAX(CASE WHEN sub.code = $3 THEN sc.score END)::float8,
			SUM(sc.score)::float8 AS total_score
		 FROM students s
		 JOIN scores sc ON sc.student_id = s.id
		 JOIN subjects sub ON sub.id = sc.subject_id
		 WHERE sub.code IN ($1, $2, $3)
		 GROUP BY s.id, s.sbd, s.ma_ngoai_ngu
		 HAVING COUNT(DISTINCT sub.code) = 3
		 ORDER BY total_score DESC, s.sbd ASC
		 LIMIT $4`,
		group.Codes[0], group.Codes[1], group.Codes[2], limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var top []model.TopStudent
	for rows.Next() {
		var t model.TopStudent
		scores := make([]float64, 3)
		if err := rows.Scan(&t.SBD, &t.MaNgoaiNgu, &scores[0], &scores[1], &scores[2], &t.TotalScore); err != nil {
			return nil, err
		}
		t.Scores = make(map[string]float64, 3)
		for i, code := range group.Codes {
			t.Scores[model.ColumnName(code)] = scores[i]
		}
		top = append(top, t)
	}
	return top, rows.Err()
}

// ErrNoRows re-exported so callers don't import pgx just for the sentinel.
var ErrNoRows = pgx.ErrNoRows
