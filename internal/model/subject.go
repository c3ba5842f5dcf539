package model

// Subject represents one of the nine fixed national exam subjects.
type Subject struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// SeedSubjects is the full fixed subject list, seeded idempotently at the
// start of every ingestion run. Codes are stable identifiers; names are the
// official Vietnamese display names.
var SeedSubjects = []Subject{
	{Code: "TOAN", Name: "Toán"},
	{Code: "NGU_VAN", Name: "Ngữ văn"},
	{Code: "NGOAI_NGU", Name: "Ngoại ngữ"},
	{Code: "VAT_LI", Name: "Vật lí"},
	{Code: "HOA_HOC", Name: "Hoá học"},
	{Code: "SINH_HOC", Name: "Sinh học"},
	{Code: "LICH_SU", Name: "Lịch sử"},
	{Code: "DIA_LI", Name: "Địa lí"},
	{Code: "GDCD", Name: "Giáo dục Công dân"},
}

// SubjectGroup is a fixed triple of subjects ranked by summed score.
type SubjectGroup struct {
	Name  string
	Codes [3]string
}

// SubjectGroups maps the public group identifier (a/b/c/d) to its triple.
var SubjectGroups = map[string]SubjectGroup{
	"a": {Name: "A", Codes: [3]string{"TOAN", "VAT_LI", "HOA_HOC"}},
	"b": {Name: "B", Codes: [3]string{"TOAN", "HOA_HOC", "SINH_HOC"}},
	"c": {Name: "C", Codes: [3]string{"NGU_VAN", "LICH_SU", "DIA_LI"}},
	"d": {Name: "D", Codes: [3]string{"TOAN", "NGU_VAN", "NGOAI_NGU"}},
}
