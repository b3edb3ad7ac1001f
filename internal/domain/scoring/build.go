package scoring

import "appraisal/internal/domain/rubric"

// BuildSections projects sparse score maps onto the template. Scores for
// unknown indicators are ignored and values the indicator does not allow are
// dropped, so malformed input only shrinks the scored set.
func BuildSections(tmpl rubric.Template, staff, manager map[string]int) []ScoredSection {
	sections := make([]ScoredSection, 0, len(tmpl.Sections))
	for _, section := range tmpl.Sections {
		scored := ScoredSection{ID: section.ID, Weight: section.Weight}
		for _, indicator := range section.Indicators {
			scored.Indicators = append(scored.Indicators, ScoredIndicator{
				ID:           indicator.ID,
				StaffScore:   allowedScore(indicator, staff),
				ManagerScore: allowedScore(indicator, manager),
			})
		}
		sections = append(sections, scored)
	}
	return sections
}

func allowedScore(indicator rubric.Indicator, scores map[string]int) *int {
	value, ok := scores[indicator.ID]
	if !ok || !indicator.Allows(value) {
		return nil
	}
	return &value
}

type SectionSummary struct {
	SectionID      string   `json:"sectionId"`
	Name           string   `json:"name"`
	Weight         float64  `json:"weight"`
	StaffAverage   *float64 `json:"staffAverage"`
	ManagerAverage *float64 `json:"managerAverage"`
}

type Summary struct {
	Sections     []SectionSummary `json:"sections"`
	StaffScore   *float64         `json:"staffScore"`
	StaffGrade   string           `json:"staffGrade,omitempty"`
	ManagerScore *float64         `json:"managerScore"`
	ManagerGrade string           `json:"managerGrade,omitempty"`
}

func Summarize(tmpl rubric.Template, staff, manager map[string]int) Summary {
	sections := BuildSections(tmpl, staff, manager)
	summary := Summary{Sections: make([]SectionSummary, 0, len(sections))}
	for i, section := range sections {
		item := SectionSummary{SectionID: section.ID, Name: tmpl.Sections[i].Name, Weight: section.Weight}
		if avg, ok := SectionAverage(section, ActorStaff); ok {
			item.StaffAverage = &avg
		}
		if avg, ok := SectionAverage(section, ActorManager); ok {
			item.ManagerAverage = &avg
		}
		summary.Sections = append(summary.Sections, item)
	}
	if score, ok := CalculateWeightedScore(sections, ActorStaff); ok {
		summary.StaffScore = &score
		summary.StaffGrade = GradeFromScore(score)
	}
	if score, ok := CalculateWeightedScore(sections, ActorManager); ok {
		summary.ManagerScore = &score
		summary.ManagerGrade = GradeFromScore(score)
	}
	return summary
}
