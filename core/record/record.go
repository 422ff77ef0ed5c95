package record

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// OverallScoreName names the aggregate entry of a score set.
	OverallScoreName = "Overall"

	// DefaultTestType is shown when a record has no test type.
	DefaultTestType = "General Training"

	MinScore = 0.0
	MaxScore = 9.0
)

// Record is one test-taker. Records are treated as immutable values once
// loaded from a directory.
type Record struct {
	Identity    string      `json:"email" yaml:"email"`
	DisplayName string      `json:"name" yaml:"name"`
	Secret      string      `json:"password" yaml:"password"`
	TestType    string      `json:"testType,omitempty" yaml:"testType,omitempty"`
	Test        TestDetails `json:"testDetails" yaml:"testDetails"`
	Scores      ScoreSet    `json:"tests" yaml:"tests"`
	ArtifactRef string      `json:"pdfFileName" yaml:"pdfFileName"`
}

// TestDetails describes the booked test sitting.
type TestDetails struct {
	Date    string `json:"date" yaml:"date"`
	Time    string `json:"time" yaml:"time"`
	Mode    string `json:"mode" yaml:"mode"`
	Center  string `json:"center" yaml:"center"`
	Address string `json:"address" yaml:"address"`
}

// Score is a named band score.
type Score struct {
	Name  string  `json:"name" yaml:"name"`
	Score float64 `json:"score" yaml:"score"`
}

// ScoreSet is the ordered list of sub-scores plus the aggregate entry named
// OverallScoreName.
type ScoreSet []Score

// Overall returns the aggregate score.
func (s ScoreSet) Overall() (float64, bool) {
	for _, sc := range s {
		if sc.Name == OverallScoreName {
			return sc.Score, true
		}
	}
	return 0, false
}

// Components returns the sub-scores in order, without the aggregate.
func (s ScoreSet) Components() []Score {
	out := make([]Score, 0, len(s))
	for _, sc := range s {
		if sc.Name != OverallScoreName {
			out = append(out, sc)
		}
	}
	return out
}

// OverallLabel renders the aggregate for display, or "N/A".
func (s ScoreSet) OverallLabel() string {
	v, ok := s.Overall()
	if !ok {
		return "N/A"
	}
	return FormatBand(v)
}

// FormatBand renders a score with one decimal place.
func FormatBand(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Category returns the test type, falling back to DefaultTestType.
func (r Record) Category() string {
	if strings.TrimSpace(r.TestType) == "" {
		return DefaultTestType
	}
	return r.TestType
}

// Initial is the upper-cased first letter of the display name, used as the
// avatar.
func (r Record) Initial() string {
	name := strings.TrimSpace(r.DisplayName)
	if name == "" {
		return ""
	}
	first, _ := utf8.DecodeRuneInString(name)
	return cases.Upper(language.Und).String(string(first))
}

// HasArtifact reports whether the record references a result document.
func (r Record) HasArtifact() bool {
	return r.ArtifactRef != ""
}

// Validate checks the invariants of a single record.
func (r Record) Validate() error {
	if r.Identity == "" {
		return ErrEmptyIdentity
	}
	overall := 0
	for _, sc := range r.Scores {
		if math.IsNaN(sc.Score) || sc.Score < MinScore || sc.Score > MaxScore {
			return fmt.Errorf("%w: %s %q = %v", ErrScoreOutOfRange, r.Identity, sc.Name, sc.Score)
		}
		if sc.Name == OverallScoreName {
			overall++
		}
	}
	if overall > 1 {
		return fmt.Errorf("%w: %s", ErrDuplicateOverall, r.Identity)
	}
	return nil
}

// Validate checks every record and the uniqueness of identities. Identity
// comparison is case-sensitive, matching login.
func Validate(recs []Record) error {
	seen := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, ok := seen[r.Identity]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateIdentity, r.Identity)
		}
		seen[r.Identity] = struct{}{}
	}
	return nil
}
