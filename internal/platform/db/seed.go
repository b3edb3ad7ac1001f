package db

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/rubric"
	"appraisal/internal/platform/config"
)

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	roleIDs, err := ensureRoles(ctx, pool)
	if err != nil {
		return err
	}
	if err := ensureAdminUser(ctx, pool, roleIDs[auth.RoleAdmin], cfg.SeedAdminEmail, cfg.SeedAdminPassword, cfg.SeedAdminName); err != nil {
		return err
	}
	return ensureDefaultTemplate(ctx, rubric.NewStore(pool))
}

func ensureRoles(ctx context.Context, pool *pgxpool.Pool) (map[string]string, error) {
	roleIDs := map[string]string{}
	for _, roleName := range auth.Roles {
		var id string
		err := pool.QueryRow(ctx, `
      INSERT INTO roles (name) VALUES ($1)
      ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
      RETURNING id::text
    `, roleName).Scan(&id)
		if err != nil {
			return nil, err
		}
		roleIDs[roleName] = id
	}
	return roleIDs, nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, roleID, email, password, name string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE lower(email) = $1", email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, `
    INSERT INTO users (email, full_name, password_hash, role_id)
    VALUES ($1, $2, $3, $4)
  `, email, name, hash, roleID); err != nil {
		return err
	}
	slog.Info("seeded admin user", "email", email)
	return nil
}

func ensureDefaultTemplate(ctx context.Context, store *rubric.Store) error {
	existing, err := store.ListTemplates(ctx, false)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	id, err := store.CreateTemplate(ctx, DefaultTemplate())
	if err != nil {
		return err
	}
	slog.Info("seeded default rubric template", "templateId", id)
	return nil
}

// DefaultTemplate is the rubric installed on an empty database.
func DefaultTemplate() rubric.NewTemplate {
	return rubric.NewTemplate{
		Name:        "General Staff Appraisal",
		Description: "Default rubric covering delivery, collaboration and growth.",
		Sections: []rubric.NewSection{
			{
				Name:   "Job Knowledge and Delivery",
				Weight: 40,
				Indicators: []rubric.NewIndicator{
					{Name: "Quality of work", EvidenceGuidance: "Examples of work products and the feedback they received."},
					{Name: "Productivity and timeliness", EvidenceGuidance: "Deadlines met, throughput, and how blockers were handled."},
					{Name: "Technical and domain knowledge", EvidenceGuidance: "Problems solved that required specialist knowledge."},
				},
			},
			{
				Name:   "Collaboration and Communication",
				Weight: 30,
				Indicators: []rubric.NewIndicator{
					{Name: "Teamwork", EvidenceGuidance: "Cross-team work, support given to colleagues."},
					{Name: "Communication", EvidenceGuidance: "Written and verbal communication with stakeholders."},
				},
			},
			{
				Name:   "Growth and Initiative",
				Weight: 30,
				Indicators: []rubric.NewIndicator{
					{Name: "Learning and development", EvidenceGuidance: "Courses, certifications or new skills applied at work."},
					{Name: "Initiative", EvidenceGuidance: "Improvements proposed or delivered without being asked."},
				},
			},
		},
	}
}
