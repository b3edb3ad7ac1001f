package rubric

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (s *Store) ListTemplates(ctx context.Context, activeOnly bool) ([]TemplateSummary, error) {
	query := `
    SELECT t.id, t.name, t.description, t.is_active, t.created_at, COUNT(s.id)
    FROM rubric_templates t
    LEFT JOIN rubric_sections s ON s.template_id = t.id
  `
	if activeOnly {
		query += " WHERE t.is_active"
	}
	query += " GROUP BY t.id ORDER BY t.created_at DESC"

	rows, err := s.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TemplateSummary
	for rows.Next() {
		var tmpl TemplateSummary
		if err := rows.Scan(&tmpl.ID, &tmpl.Name, &tmpl.Description, &tmpl.IsActive, &tmpl.CreatedAt, &tmpl.SectionCount); err != nil {
			return nil, err
		}
		out = append(out, tmpl)
	}
	return out, rows.Err()
}

func (s *Store) GetTemplate(ctx context.Context, templateID string) (Template, error) {
	if _, err := uuid.Parse(templateID); err != nil {
		return Template{}, ErrTemplateNotFound
	}
	var tmpl Template
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, description, is_active, created_at
    FROM rubric_templates
    WHERE id = $1
  `, templateID).Scan(&tmpl.ID, &tmpl.Name, &tmpl.Description, &tmpl.IsActive, &tmpl.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Template{}, ErrTemplateNotFound
	}
	if err != nil {
		return Template{}, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT s.id, s.name, s.weight, s.position,
           i.id, i.name, i.evidence_guidance, i.position, i.score_options_json
    FROM rubric_sections s
    LEFT JOIN rubric_indicators i ON i.section_id = s.id
    WHERE s.template_id = $1
    ORDER BY s.position, s.id, i.position, i.id
  `, templateID)
	if err != nil {
		return Template{}, err
	}
	defer rows.Close()

	index := map[string]int{}
	for rows.Next() {
		var section Section
		var indicatorID, indicatorName, guidance *string
		var indicatorPos *int
		var optionsJSON []byte
		if err := rows.Scan(&section.ID, &section.Name, &section.Weight, &section.Position,
			&indicatorID, &indicatorName, &guidance, &indicatorPos, &optionsJSON); err != nil {
			return Template{}, err
		}
		pos, seen := index[section.ID]
		if !seen {
			section.TemplateID = tmpl.ID
			tmpl.Sections = append(tmpl.Sections, section)
			pos = len(tmpl.Sections) - 1
			index[section.ID] = pos
		}
		if indicatorID == nil {
			continue
		}
		indicator := Indicator{ID: *indicatorID, SectionID: section.ID}
		if indicatorName != nil {
			indicator.Name = *indicatorName
		}
		if guidance != nil {
			indicator.EvidenceGuidance = *guidance
		}
		if indicatorPos != nil {
			indicator.Position = *indicatorPos
		}
		if len(optionsJSON) > 0 {
			if err := json.Unmarshal(optionsJSON, &indicator.ScoreOptions); err != nil {
				return Template{}, fmt.Errorf("indicator %s score options: %w", indicator.ID, err)
			}
		}
		tmpl.Sections[pos].Indicators = append(tmpl.Sections[pos].Indicators, indicator)
	}
	return tmpl, rows.Err()
}

func (s *Store) CreateTemplate(ctx context.Context, input NewTemplate) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var templateID string
	if err := tx.QueryRow(ctx, `
    INSERT INTO rubric_templates (name, description)
    VALUES ($1,$2)
    RETURNING id
  `, input.Name, input.Description).Scan(&templateID); err != nil {
		return "", err
	}

	for sectionPos, section := range input.Sections {
		var sectionID string
		if err := tx.QueryRow(ctx, `
      INSERT INTO rubric_sections (template_id, name, weight, position)
      VALUES ($1,$2,$3,$4)
      RETURNING id
    `, templateID, section.Name, section.Weight, sectionPos).Scan(&sectionID); err != nil {
			return "", err
		}
		for indicatorPos, indicator := range section.Indicators {
			options := indicator.ScoreOptions
			if len(options) == 0 {
				options = DefaultScoreOptions()
			}
			optionsJSON, err := json.Marshal(options)
			if err != nil {
				return "", err
			}
			if _, err := tx.Exec(ctx, `
        INSERT INTO rubric_indicators (section_id, name, evidence_guidance, position, score_options_json)
        VALUES ($1,$2,$3,$4,$5)
      `, sectionID, indicator.Name, indicator.EvidenceGuidance, indicatorPos, optionsJSON); err != nil {
				return "", err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return templateID, nil
}
