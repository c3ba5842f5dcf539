package model

// ScoreLevelStat is the per-subject 4-band breakdown:
// excellent ≥8, good [6,8), average [4,6), poor <4.
type ScoreLevelStat struct {
	SubjectCode    string `json:"subjectCode"`
	SubjectName    string `json:"subjectName"`
	LevelExcellent int    `json:"levelExcellent"`
	LevelGood      int    `json:"levelGood"`
	LevelAverage   int    `json:"levelAverage"`
	LevelPoor      int    `json:"levelPoor"`
	Total          int    `json:"total"`
}

// DistributionBucket is one half-point band of the score histogram.
type DistributionBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// ScoreDistribution is the per-subject histogram over twenty 0.5-wide
// buckets spanning [0, 10].
type ScoreDistribution struct {
	SubjectCode  string               `json:"subjectCode"`
	SubjectName  string               `json:"subjectName"`
	Distribution []DistributionBucket `json:"distribution"`
}

// DistributionRangeLabels are the labels for the twenty histogram buckets,
// index i covering [i*0.5, (i+1)*0.5].
var DistributionRangeLabels = [20]string{
	"[0, 0.5]", "[0.5, 1]", "[1, 1.5]", "[1.5, 2]",
	"[2, 2.5]", "[2.5, 3]", "[3, 3.5]", "[3.5, 4]",
	"[4, 4.5]", "[4.5, 5]", "[5, 5.5]", "[5.5, 6]",
	"[6, 6.5]", "[6.5, 7]", "[7, 7.5]", "[7.5, 8]",
	"[8, 8.5]", "[8.5, 9]", "[9, 9.5]", "[9.5, 10]",
}
