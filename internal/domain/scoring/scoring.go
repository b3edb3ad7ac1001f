// Package scoring computes weighted rubric scores and maps them to letter grades.
package scoring

type Actor string

const (
	ActorStaff   Actor = "staff"
	ActorManager Actor = "manager"
)

type ScoredIndicator struct {
	ID           string
	StaffScore   *int
	ManagerScore *int
}

type ScoredSection struct {
	ID         string
	Weight     float64
	Indicators []ScoredIndicator
}

func (i ScoredIndicator) score(actor Actor) *int {
	if actor == ActorManager {
		return i.ManagerScore
	}
	return i.StaffScore
}

// CalculateWeightedScore averages each section's scored indicators and weights
// the averages by section weight. Sections without any score for actor are
// left out of both the weighted sum and the total weight. The second return
// value is false when nothing was scored at all.
func CalculateWeightedScore(sections []ScoredSection, actor Actor) (float64, bool) {
	weightedSum := 0.0
	totalWeight := 0.0
	for _, section := range sections {
		avg, ok := SectionAverage(section, actor)
		if !ok {
			continue
		}
		weightedSum += avg * section.Weight
		totalWeight += section.Weight
	}
	if totalWeight == 0 {
		return 0, false
	}
	return weightedSum / totalWeight, true
}

// SectionAverage is the unweighted mean of the section's scored indicators.
func SectionAverage(section ScoredSection, actor Actor) (float64, bool) {
	sum := 0
	count := 0
	for _, indicator := range section.Indicators {
		value := indicator.score(actor)
		if value == nil {
			continue
		}
		sum += *value
		count++
	}
	if count == 0 {
		return 0, false
	}
	return float64(sum) / float64(count), true
}

var gradeThresholds = []struct {
	min   float64
	grade string
}{
	{3.71, "A+"},
	{3.41, "A"},
	{3.11, "B+"},
	{2.81, "B"},
	{2.51, "C+"},
	{2.21, "C"},
	{2.00, "D"},
}

// GradeFromScore buckets a score; each threshold is an exclusive lower bound.
func GradeFromScore(score float64) string {
	for _, t := range gradeThresholds {
		if score > t.min {
			return t.grade
		}
	}
	return "F"
}
