package rubric

import "time"

const (
	MinScore = 0
	MaxScore = 4
)

type ScoreOption struct {
	Score   int    `json:"score"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

type Indicator struct {
	ID               string        `json:"id"`
	SectionID        string        `json:"sectionId"`
	Name             string        `json:"name"`
	EvidenceGuidance string        `json:"evidenceGuidance"`
	Position         int           `json:"position"`
	ScoreOptions     []ScoreOption `json:"scoreOptions"`
}

type Section struct {
	ID         string      `json:"id"`
	TemplateID string      `json:"templateId"`
	Name       string      `json:"name"`
	Weight     float64     `json:"weight"`
	Position   int         `json:"position"`
	Indicators []Indicator `json:"indicators"`
}

type Template struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	Sections    []Section `json:"sections"`
}

type TemplateSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	IsActive     bool      `json:"isActive"`
	SectionCount int       `json:"sectionCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DefaultScoreOptions is the 0..4 scale applied to indicators that carry no
// configured options.
func DefaultScoreOptions() []ScoreOption {
	return []ScoreOption{
		{Score: 0, Label: "Not demonstrated", Enabled: true},
		{Score: 1, Label: "Developing", Enabled: true},
		{Score: 2, Label: "Meets some expectations", Enabled: true},
		{Score: 3, Label: "Meets expectations", Enabled: true},
		{Score: 4, Label: "Exceeds expectations", Enabled: true},
	}
}

// Allows reports whether score is one of the indicator's enabled options.
func (i Indicator) Allows(score int) bool {
	if score < MinScore || score > MaxScore {
		return false
	}
	if len(i.ScoreOptions) == 0 {
		return true
	}
	for _, opt := range i.ScoreOptions {
		if opt.Score == score {
			return opt.Enabled
		}
	}
	return false
}

func (t Template) Indicator(id string) (Indicator, bool) {
	for _, section := range t.Sections {
		for _, indicator := range section.Indicators {
			if indicator.ID == id {
				return indicator, true
			}
		}
	}
	return Indicator{}, false
}

// NewTemplate is the nested payload accepted by CreateTemplate.
type NewTemplate struct {
	Name        string       `json:"name" validate:"required,max=200"`
	Description string       `json:"description" validate:"max=2000"`
	Sections    []NewSection `json:"sections" validate:"required,min=1,dive"`
}

type NewSection struct {
	Name       string         `json:"name" validate:"required,max=200"`
	Weight     float64        `json:"weight" validate:"gte=0,lte=100"`
	Indicators []NewIndicator `json:"indicators" validate:"required,min=1,dive"`
}

type NewIndicator struct {
	Name             string        `json:"name" validate:"required,max=300"`
	EvidenceGuidance string        `json:"evidenceGuidance"`
	ScoreOptions     []ScoreOption `json:"scoreOptions" validate:"omitempty,dive"`
}
