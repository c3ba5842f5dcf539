// Package ingest implements the batch CSV-to-database ingestion pipeline.
//
// The source file is streamed row by row and grouped into fixed-size
// batches; reading is effectively paused while a batch is being persisted,
// which bounds in-flight memory no matter how large the file is. Each batch
// goes through a strictly ordered two-phase write: candidate rows must be
// persisted and their surrogate ids reloaded before any score row that
// references them is built. Every insert is idempotent (skip on conflict),
// so re-running the whole ingestion over the same file is the recovery path
// for any mid-run failure.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/diemthi/thpt-score-backend/internal/model"
	"github.com/rs/zerolog"
)

// DefaultBatchSize balances memory usage against per-batch query overhead.
const DefaultBatchSize = 10000

// SubjectStore is the subject persistence surface the pipeline consumes.
type SubjectStore interface {
	UpsertMany(ctx context.Context, subjects []model.Subject) error
	CodeMap(ctx context.Context) (map[string]int, error)
}

// StudentStore is the candidate persistence surface the pipeline consumes.
type StudentStore interface {
	UpsertMany(ctx context.Context, students []model.Student) error
	IDsBySBD(ctx context.Context, sbds []string) (map[string]int, error)
}

// ScoreStore is the score persistence surface the pipeline consumes.
type ScoreStore interface {
	UpsertMany(ctx context.Context, scores []model.Score) error
}

// Stats summarizes one ingestion run.
type Stats struct {
	Rows        int // data rows read from the file
	SkippedRows int // rows dropped for a malformed sbd
	BadCells    int // unparseable numeric cells skipped
	Students    int // candidate rows submitted for upsert
	Scores      int // score rows submitted for upsert
	Batches     int
}

// Pipeline streams a delimited exam-result file into the store.
type Pipeline struct {
	subjects  SubjectStore
	students  StudentStore
	scores    ScoreStore
	batchSize int
	log       zerolog.Logger
}

// NewPipeline creates a Pipeline. batchSize values below 1 fall back to
// DefaultBatchSize.
func NewPipeline(subjects SubjectStore, students StudentStore, scores ScoreStore, batchSize int, log zerolog.Logger) *Pipeline {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Pipeline{
		subjects:  subjects,
		students:  students,
		scores:    scores,
		batchSize: batchSize,
		log:       log.With().Str("component", "ingest").Logger(),
	}
}

// row is one parsed CSV line: the candidate plus raw subject cells keyed by
// subject code. Empty cells are never stored in the map.
type row struct {
	sbd        string
	maNgoaiNgu *string
	cells      map[string]string
}

// Run executes a full ingestion: seed subjects, then stream src in batches.
// Batches are processed strictly sequentially.
func (p *Pipeline) Run(ctx context.Context, src io.Reader) (*Stats, error) {
	subjectIDs, err := p.seedSubjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed subjects: %w", err)
	}

	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	layout, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	batch := make([]row, 0, p.batchSize)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read row %d: %w", stats.Rows+1, err)
		}

		stats.Rows++
		r, ok := layout.parseRow(record)
		if !ok {
			stats.SkippedRows++
			p.log.Warn().Int("line", stats.Rows+1).Msg("Skipping row with malformed sbd")
			continue
		}
		batch = append(batch, r)

		if len(batch) >= p.batchSize {
			if err := p.processBatch(ctx, batch, subjectIDs, stats); err != nil {
				return stats, err
			}
			batch = batch[:0]
		}
	}

	// Final partial batch is flushed identically.
	if len(batch) > 0 {
		if err := p.processBatch(ctx, batch, subjectIDs, stats); err != nil {
			return stats, err
		}
	}

	p.log.Info().
		Int("rows", stats.Rows).
		Int("students", stats.Students).
		Int("scores", stats.Scores).
		Int("batches", stats.Batches).
		Int("skipped_rows", stats.SkippedRows).
		Int("bad_cells", stats.BadCells).
		Msg("Ingestion completed")

	return stats, nil
}

// seedSubjects inserts the fixed subject list idempotently and reloads the
// code → id mapping held for the entire run.
func (p *Pipeline) seedSubjects(ctx context.Context) (map[string]int, error) {
	if err := p.subjects.UpsertMany(ctx, model.SeedSubjects); err != nil {
		return nil, err
	}
	ids, err := p.subjects.CodeMap(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range model.SeedSubjects {
		if _, ok := ids[s.Code]; !ok {
			return nil, fmt.Errorf("subject %s missing after seed", s.Code)
		}
	}
	return ids, nil
}

// processBatch persists one batch in two dependent phases: candidates first,
// then the scores referencing them. Phase order is load-bearing — score rows
// need the surrogate ids that only exist after the candidate upsert.
func (p *Pipeline) processBatch(ctx context.Context, batch []row, subjectIDs map[string]int, stats *Stats) error {
	stats.Batches++
	p.log.Debug().Int("batch", stats.Batches).Int("rows", len(batch)).Msg("Processing batch")

	students := make([]model.Student, len(batch))
	sbds := make([]string, len(batch))
	for i, r := range batch {
		students[i] = model.Student{SBD: r.sbd, MaNgoaiNgu: r.maNgoaiNgu}
		sbds[i] = r.sbd
	}
	if err := p.students.UpsertMany(ctx, students); err != nil {
		return fmt.Errorf("batch %d: upsert students: %w", stats.Batches, err)
	}
	stats.Students += len(students)

	studentIDs, err := p.students.IDsBySBD(ctx, sbds)
	if err != nil {
		return fmt.Errorf("batch %d: reload student ids: %w", stats.Batches, err)
	}

	var scores []model.Score
	for _, r := range batch {
		studentID, ok := studentIDs[r.sbd]
		if !ok {
			return fmt.Errorf("batch %d: candidate %s missing after upsert", stats.Batches, r.sbd)
		}
		for _, sub := range model.SeedSubjects {
			raw, ok := r.cells[sub.Code]
			if !ok {
				continue // sparse: empty cell means no score row at all
			}
			score, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				stats.BadCells++
				p.log.Warn().Str("sbd", r.sbd).Str("subject", sub.Code).Str("value", raw).
					Msg("Skipping unparseable score cell")
				continue
			}
			scores = append(scores, model.Score{
				StudentID: studentID,
				SubjectID: subjectIDs[sub.Code],
				Score:     score,
			})
		}
	}

	if err := p.scores.UpsertMany(ctx, scores); err != nil {
		return fmt.Errorf("batch %d: upsert scores: %w", stats.Batches, err)
	}
	stats.Scores += len(scores)

	return nil
}

// fileLayout maps CSV columns to their meaning after the header is read.
type fileLayout struct {
	sbdIdx     int
	langIdx    int            // -1 when the column is absent
	subjectIdx map[string]int // subject code → column index
}

// parseHeader resolves column positions. The sbd column is mandatory;
// subject columns and ma_ngoai_ngu are matched by name and may be absent.
// Unknown columns are ignored.
func parseHeader(header []string) (*fileLayout, error) {
	layout := &fileLayout{sbdIdx: -1, langIdx: -1, subjectIdx: make(map[string]int)}

	byColumn := make(map[string]string, len(model.SeedSubjects))
	for _, s := range model.SeedSubjects {
		byColumn[model.ColumnName(s.Code)] = s.Code
	}

	for i, name := range header {
		name = strings.TrimSpace(name)
		switch {
		case name == "sbd":
			layout.sbdIdx = i
		case name == "ma_ngoai_ngu":
			layout.langIdx = i
		default:
			if code, ok := byColumn[name]; ok {
				layout.subjectIdx[code] = i
			}
		}
	}

	if layout.sbdIdx < 0 {
		return nil, fmt.Errorf("header is missing the sbd column")
	}
	return layout, nil
}

// parseRow converts one CSV record. Field values are trimmed; an empty
// foreign-language code becomes nil; rows with a malformed sbd are rejected.
func (l *fileLayout) parseRow(record []string) (row, bool) {
	field := func(idx int) string {
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	r := row{sbd: field(l.sbdIdx)}
	if !model.ValidSBD(r.sbd) {
		return row{}, false
	}

	if lang := field(l.langIdx); lang != "" {
		r.maNgoaiNgu = &lang
	}

	r.cells = make(map[string]string, len(l.subjectIdx))
	for code, idx := range l.subjectIdx {
		if v := field(idx); v != "" {
			r.cells[code] = v
		}
	}
	return r, true
}
