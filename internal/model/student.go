package model

// Student represents an exam candidate, identified by their registration
// number (sbd). Rows are created solely by ingestion and never mutated.
type Student struct {
	ID         int     `json:"id"`
	SBD        string  `json:"sbd"`
	MaNgoaiNgu *string `json:"ma_ngoai_ngu"`
}

// SBDLength is the canonical registration number length.
const SBDLength = 8

// ValidSBD reports whether s is a well-formed registration number:
// exactly 8 ASCII digits. The same rule applies to API validation,
// ingestion row filtering, and the database CHECK constraint.
func ValidSBD(s string) bool {
	if len(s) != SBDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// SubjectRef is the subject projection embedded in score DTOs.
type SubjectRef struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// SubjectScore pairs a subject with a candidate's score. Score is null when
// a join surfaces a subject the candidate has no row for.
type SubjectScore struct {
	Subject SubjectRef `json:"subject"`
	Score   *float64   `json:"score"`
}

// StudentScores is the DTO for the score lookup endpoint.
type StudentScores struct {
	SBD        string         `json:"sbd"`
	MaNgoaiNgu *string        `json:"ma_ngoai_ngu"`
	Scores     []SubjectScore `json:"scores"`
}
