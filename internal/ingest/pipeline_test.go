package ingest

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/diemthi/thpt-score-backend/internal/model"
	"github.com/rs/zerolog"
)

// memStore is an in-memory stand-in for the three repositories. It mirrors
// the database's skip-on-conflict semantics so idempotence can be asserted
// without PostgreSQL.
type memStore struct {
	subjectIDs map[string]int
	subjects   map[int]model.Subject
	studentIDs map[string]int
	students   map[int]model.Student
	scores     map[[2]int]float64

	studentBatches int
	scoreBatches   int
}

func newMemStore() *memStore {
	return &memStore{
		subjectIDs: make(map[string]int),
		subjects:   make(map[int]model.Subject),
		studentIDs: make(map[string]int),
		students:   make(map[int]model.Student),
		scores:     make(map[[2]int]float64),
	}
}

func (m *memStore) UpsertMany(ctx context.Context, subjects []model.Subject) error {
	for _, s := range subjects {
		if _, exists := m.subjectIDs[s.Code]; exists {
			continue
		}
		id := len(m.subjectIDs) + 1
		s.ID = id
		m.subjectIDs[s.Code] = id
		m.subjects[id] = s
	}
	return nil
}

func (m *memStore) CodeMap(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, len(m.subjectIDs))
	for code, id := range m.subjectIDs {
		out[code] = id
	}
	return out, nil
}

type memStudents struct{ m *memStore }

func (s memStudents) UpsertMany(ctx context.Context, students []model.Student) error {
	s.m.studentBatches++
	for _, st := range students {
		if _, exists := s.m.studentIDs[st.SBD]; exists {
			continue
		}
		id := len(s.m.studentIDs) + 1
		st.ID = id
		s.m.studentIDs[st.SBD] = id
		s.m.students[id] = st
	}
	return nil
}

func (s memStudents) IDsBySBD(ctx context.Context, sbds []string) (map[string]int, error) {
	out := make(map[string]int)
	for _, sbd := range sbds {
		if id, ok := s.m.studentIDs[sbd]; ok {
			out[sbd] = id
		}
	}
	return out, nil
}

type memScores struct{ m *memStore }

func (s memScores) UpsertMany(ctx context.Context, scores []model.Score) error {
	s.m.scoreBatches++
	for _, sc := range scores {
		key := [2]int{sc.StudentID, sc.SubjectID}
		if _, exists := s.m.scores[key]; exists {
			continue
		}
		s.m.scores[key] = sc.Score
	}
	return nil
}

func newPipeline(m *memStore, batchSize int) *Pipeline {
	return NewPipeline(m, memStudents{m}, memScores{m}, batchSize, zerolog.Nop())
}

// scoreByCode resolves the stored score for (sbd, subject code).
func (m *memStore) scoreByCode(t *testing.T, sbd, code string) (float64, bool) {
	t.Helper()
	studentID, ok := m.studentIDs[sbd]
	if !ok {
		t.Fatalf("student %s not stored", sbd)
	}
	subjectID, ok := m.subjectIDs[code]
	if !ok {
		t.Fatalf("subject %s not stored", code)
	}
	score, ok := m.scores[[2]int{studentID, subjectID}]
	return score, ok
}

const header = "sbd,toan,ngu_van,ngoai_ngu,vat_li,hoa_hoc,sinh_hoc,lich_su,dia_li,gdcd,ma_ngoai_ngu"

func TestRunConcreteScenario(t *testing.T) {
	src := header + "\n" +
		"01000001,8.5,,,7.0,6.25,,,,,N1\n"

	m := newMemStore()
	stats, err := newPipeline(m, 100).Run(context.Background(), strings.NewReader(src))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(m.studentIDs) != 1 {
		t.Fatalf("expected 1 student, got %d", len(m.studentIDs))
	}
	if len(m.scores) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(m.scores))
	}

	for code, want := range map[string]float64{"TOAN": 8.5, "VAT_LI": 7.0, "HOA_HOC": 6.25} {
		got, ok := m.scoreByCode(t, "01000001", code)
		if !ok {
			t.Errorf("missing score for %s", code)
		} else if got != want {
			t.Errorf("%s = %v, want %v", code, got, want)
		}
	}

	// Empty cell must produce no row at all.
	if _, ok := m.scoreByCode(t, "01000001", "NGU_VAN"); ok {
		t.Error("NGU_VAN has a score row despite an empty cell")
	}

	student := m.students[m.studentIDs["01000001"]]
	if student.MaNgoaiNgu == nil || *student.MaNgoaiNgu != "N1" {
		t.Errorf("ma_ngoai_ngu = %v, want N1", student.MaNgoaiNgu)
	}

	if stats.Rows != 1 || stats.Scores != 3 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRunSeedsAllSubjects(t *testing.T) {
	m := newMemStore()
	if _, err := newPipeline(m, 10).Run(context.Background(), strings.NewReader(header+"\n")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(m.subjectIDs) != len(model.SeedSubjects) {
		t.Fatalf("seeded %d subjects, want %d", len(m.subjectIDs), len(model.SeedSubjects))
	}
}

func TestRunIdempotent(t *testing.T) {
	src := header + "\n" +
		"01000001,8.5,7.25,,7.0,6.25,,,,,N1\n" +
		"01000002,5.0,,,,,,8.75,9.0,9.25,\n"

	m := newMemStore()
	p := newPipeline(m, 100)

	if _, err := p.Run(context.Background(), strings.NewReader(src)); err != nil {
		t.Fatalf("first run: %v", err)
	}
	firstStudents := len(m.studentIDs)
	firstScores := make(map[[2]int]float64, len(m.scores))
	for k, v := range m.scores {
		firstScores[k] = v
	}

	if _, err := p.Run(context.Background(), strings.NewReader(src)); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(m.studentIDs) != firstStudents {
		t.Errorf("second run changed student count: %d -> %d", firstStudents, len(m.studentIDs))
	}
	if !reflect.DeepEqual(m.scores, firstScores) {
		t.Error("second run changed stored scores")
	}
}

func TestRunBatchSizeInvariance(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(header + "\n")
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&sb, "010000%02d,%0.2f,6.0,,,,,,,,\n", i, float64(i%10))
	}
	src := sb.String()

	small := newMemStore()
	if _, err := newPipeline(small, 1).Run(context.Background(), strings.NewReader(src)); err != nil {
		t.Fatalf("batch size 1: %v", err)
	}

	large := newMemStore()
	if _, err := newPipeline(large, 10000).Run(context.Background(), strings.NewReader(src)); err != nil {
		t.Fatalf("batch size 10000: %v", err)
	}

	if !reflect.DeepEqual(small.studentIDs, large.studentIDs) {
		t.Error("student sets differ across batch sizes")
	}
	if !reflect.DeepEqual(small.scores, large.scores) {
		t.Error("score sets differ across batch sizes")
	}

	if small.studentBatches != 25 {
		t.Errorf("batch size 1 ran %d student batches, want 25", small.studentBatches)
	}
	if large.studentBatches != 1 {
		t.Errorf("batch size 10000 ran %d student batches, want 1", large.studentBatches)
	}
}

func TestRunFlushesPartialFinalBatch(t *testing.T) {
	src := header + "\n" +
		"01000001,8.0,,,,,,,,,\n" +
		"01000002,7.0,,,,,,,,,\n" +
		"01000003,6.0,,,,,,,,,\n"

	m := newMemStore()
	stats, err := newPipeline(m, 2).Run(context.Background(), strings.NewReader(src))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Batches != 2 {
		t.Errorf("batches = %d, want 2 (one full, one partial)", stats.Batches)
	}
	if len(m.studentIDs) != 3 {
		t.Errorf("students = %d, want 3", len(m.studentIDs))
	}
}

func TestRunSkipsMalformedRows(t *testing.T) {
	src := header + "\n" +
		"0100001,8.0,,,,,,,,,\n" + // 7 digits
		"0100000X,8.0,,,,,,,,,\n" + // non-digit
		"01000001,abc,7.0,,,,,,,,\n" // bad cell, valid row

	m := newMemStore()
	stats, err := newPipeline(m, 10).Run(context.Background(), strings.NewReader(src))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.SkippedRows != 2 {
		t.Errorf("skipped rows = %d, want 2", stats.SkippedRows)
	}
	if stats.BadCells != 1 {
		t.Errorf("bad cells = %d, want 1", stats.BadCells)
	}

	// The bad TOAN cell is dropped but the valid NGU_VAN score survives.
	if _, ok := m.scoreByCode(t, "01000001", "TOAN"); ok {
		t.Error("unparseable TOAN cell was stored")
	}
	if got, ok := m.scoreByCode(t, "01000001", "NGU_VAN"); !ok || got != 7.0 {
		t.Errorf("NGU_VAN = %v (present=%v), want 7.0", got, ok)
	}
}

func TestRunTrimsWhitespace(t *testing.T) {
	src := header + "\n" +
		" 01000001 , 8.5 ,,,,,,,, , \n"

	m := newMemStore()
	if _, err := newPipeline(m, 10).Run(context.Background(), strings.NewReader(src)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, ok := m.studentIDs["01000001"]; !ok {
		t.Fatal("sbd was not trimmed")
	}
	if got, ok := m.scoreByCode(t, "01000001", "TOAN"); !ok || got != 8.5 {
		t.Errorf("TOAN = %v (present=%v), want 8.5", got, ok)
	}
	// Whitespace-only language code normalizes to null.
	if st := m.students[m.studentIDs["01000001"]]; st.MaNgoaiNgu != nil {
		t.Errorf("ma_ngoai_ngu = %q, want nil", *st.MaNgoaiNgu)
	}
}

func TestParseHeaderRequiresSBD(t *testing.T) {
	if _, err := parseHeader([]string{"toan", "ngu_van"}); err == nil {
		t.Fatal("expected error for header without sbd column")
	}
}

func TestParseHeaderIgnoresUnknownColumns(t *testing.T) {
	layout, err := parseHeader([]string{"sbd", "toan", "mystery_column"})
	if err != nil {
		t.Fatalf("parseHeader: %v", err)
	}
	if len(layout.subjectIdx) != 1 {
		t.Errorf("subject columns = %d, want 1", len(layout.subjectIdx))
	}
}
