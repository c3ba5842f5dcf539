package model

import (
	"encoding/json"
	"strings"
)

// Score is a single (student, subject) exam result. A candidate who did not
// sit a subject has no row for it at all.
type Score struct {
	StudentID int     `json:"studentId"`
	SubjectID int     `json:"subjectId"`
	Score     float64 `json:"score"`
}

// TopStudent is one row of a top-N group ranking. Scores holds the three
// group subjects keyed by lowercased subject code; the completeness rule
// guarantees all three are present.
type TopStudent struct {
	SBD        string             `json:"sbd"`
	MaNgoaiNgu *string            `json:"ma_ngoai_ngu"`
	Scores     map[string]float64 `json:"-"`
	TotalScore float64            `json:"totalScore"`
}

// MarshalJSON flattens Scores into top-level fields, producing e.g.
// {"sbd":...,"ma_ngoai_ngu":...,"toan":8.5,"vat_li":7,"hoa_hoc":6.25,"totalScore":21.75}
// which is the wire shape the dashboard consumes.
func (t TopStudent) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(t.Scores)+3)
	out["sbd"] = t.SBD
	out["ma_ngoai_ngu"] = t.MaNgoaiNgu
	out["totalScore"] = t.TotalScore
	for code, score := range t.Scores {
		out[code] = score
	}
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON for cache round-trips.
func (t *TopStudent) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.Scores = make(map[string]float64, len(raw))
	for key, val := range raw {
		switch key {
		case "sbd":
			if err := json.Unmarshal(val, &t.SBD); err != nil {
				return err
			}
		case "ma_ngoai_ngu":
			if err := json.Unmarshal(val, &t.MaNgoaiNgu); err != nil {
				return err
			}
		case "totalScore":
			if err := json.Unmarshal(val, &t.TotalScore); err != nil {
				return err
			}
		default:
			var score float64
			if err := json.Unmarshal(val, &score); err != nil {
				return err
			}
			t.Scores[key] = score
		}
	}
	return nil
}

// ColumnName returns the lowercase wire/CSV column for a subject code,
// e.g. "VAT_LI" → "vat_li".
func ColumnName(code string) string {
	return strings.ToLower(code)
}
