package scoring

import (
	"math"
	"testing"

	"appraisal/internal/domain/rubric"
)

func intp(v int) *int { return &v }

func staffSection(id string, weight float64, scores ...*int) ScoredSection {
	section := ScoredSection{ID: id, Weight: weight}
	for i, score := range scores {
		section.Indicators = append(section.Indicators, ScoredIndicator{ID: id + string(rune('a'+i)), StaffScore: score})
	}
	return section
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestWeightedScoreExcludesUnscoredSection(t *testing.T) {
	sections := []ScoredSection{
		staffSection("a", 60, intp(4), intp(4)),
		staffSection("b", 40, nil, nil),
	}
	score, ok := CalculateWeightedScore(sections, ActorStaff)
	if !ok {
		t.Fatal("expected a score")
	}
	if score != 4 {
		t.Fatalf("expected 4 (unscored section excluded), got %v", score)
	}
}

func TestWeightedScoreInvariantUnderEmptySection(t *testing.T) {
	base := []ScoredSection{
		staffSection("a", 30, intp(3), intp(2)),
		staffSection("b", 70, intp(1)),
	}
	before, ok := CalculateWeightedScore(base, ActorStaff)
	if !ok {
		t.Fatal("expected a score")
	}
	extended := append(append([]ScoredSection{}, base...), staffSection("c", 50, nil, nil, nil))
	after, ok := CalculateWeightedScore(extended, ActorStaff)
	if !ok {
		t.Fatal("expected a score")
	}
	if !almostEqual(before, after) {
		t.Fatalf("expected score unchanged by all-null section, got %v vs %v", before, after)
	}
	want := (2.5*30 + 1*70) / 100
	if !almostEqual(before, want) {
		t.Fatalf("expected %v, got %v", want, before)
	}
}

func TestWeightedScoreNothingScored(t *testing.T) {
	sections := []ScoredSection{staffSection("a", 50, nil), staffSection("b", 50)}
	if _, ok := CalculateWeightedScore(sections, ActorStaff); ok {
		t.Fatal("expected no score when nothing is scored")
	}
	if _, ok := CalculateWeightedScore(nil, ActorManager); ok {
		t.Fatal("expected no score for empty template")
	}
}

func TestWeightedScoreZeroWeightSectionsOnly(t *testing.T) {
	sections := []ScoredSection{staffSection("a", 0, intp(3))}
	if _, ok := CalculateWeightedScore(sections, ActorStaff); ok {
		t.Fatal("expected no score when total weight is zero")
	}
}

func TestWeightedScoreReadsSelectedActor(t *testing.T) {
	sections := []ScoredSection{{
		ID:     "s",
		Weight: 100,
		Indicators: []ScoredIndicator{
			{ID: "i1", StaffScore: intp(4), ManagerScore: intp(2)},
			{ID: "i2", StaffScore: intp(4)},
		},
	}}
	staff, _ := CalculateWeightedScore(sections, ActorStaff)
	manager, _ := CalculateWeightedScore(sections, ActorManager)
	if staff != 4 {
		t.Fatalf("expected staff score 4, got %v", staff)
	}
	if manager != 2 {
		t.Fatalf("expected manager score 2 (only one scored indicator), got %v", manager)
	}
}

func TestGradeFromScoreBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{4.0, "A+"},
		{3.72, "A+"},
		{3.71, "A"},
		{3.42, "A"},
		{3.41, "B+"},
		{3.11, "B"},
		{2.82, "B"},
		{2.81, "C+"},
		{2.51, "C"},
		{2.22, "C"},
		{2.21, "D"},
		{2.01, "D"},
		{2.00, "F"},
		{0, "F"},
	}
	for _, tc := range cases {
		if got := GradeFromScore(tc.score); got != tc.want {
			t.Fatalf("score %v: expected %s, got %s", tc.score, tc.want, got)
		}
	}
}

func TestBuildSectionsDropsInvalidEntries(t *testing.T) {
	tmpl := rubric.Template{Sections: []rubric.Section{
		{ID: "s1", Name: "Delivery", Weight: 60, Indicators: []rubric.Indicator{
			{ID: "i1"},
			{ID: "i2", ScoreOptions: []rubric.ScoreOption{{Score: 1, Enabled: true}, {Score: 3, Enabled: false}}},
		}},
		{ID: "s2", Name: "Teamwork", Weight: 40, Indicators: []rubric.Indicator{{ID: "i3"}}},
	}}
	staff := map[string]int{"i1": 4, "i2": 3, "i3": 9, "unknown": 2}

	sections := BuildSections(tmpl, staff, nil)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Indicators[1].StaffScore != nil {
		t.Fatal("expected disabled option to be dropped")
	}
	if sections[1].Indicators[0].StaffScore != nil {
		t.Fatal("expected out-of-range score to be dropped")
	}
	score, ok := CalculateWeightedScore(sections, ActorStaff)
	if !ok || score != 4 {
		t.Fatalf("expected 4 from the single valid entry, got %v (ok=%v)", score, ok)
	}
}

func TestSummarize(t *testing.T) {
	tmpl := rubric.Template{Sections: []rubric.Section{
		{ID: "s1", Name: "Delivery", Weight: 60, Indicators: []rubric.Indicator{{ID: "i1"}, {ID: "i2"}}},
		{ID: "s2", Name: "Teamwork", Weight: 40, Indicators: []rubric.Indicator{{ID: "i3"}}},
	}}
	summary := Summarize(tmpl, map[string]int{"i1": 4, "i2": 2}, map[string]int{"i3": 1})
	if summary.StaffScore == nil || *summary.StaffScore != 3 {
		t.Fatalf("expected staff score 3, got %v", summary.StaffScore)
	}
	if summary.StaffGrade != "B" {
		t.Fatalf("expected staff grade B, got %s", summary.StaffGrade)
	}
	if summary.ManagerScore == nil || *summary.ManagerScore != 1 {
		t.Fatalf("expected manager score 1, got %v", summary.ManagerScore)
	}
	if summary.Sections[0].ManagerAverage != nil {
		t.Fatal("expected no manager average for unscored section")
	}
	if summary.Sections[1].Name != "Teamwork" {
		t.Fatalf("unexpected section name %q", summary.Sections[1].Name)
	}
}
