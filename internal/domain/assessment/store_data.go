package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const assessmentColumns = `
    a.id, a.staff_id, COALESCE(a.manager_id::text, ''), COALESCE(a.director_id::text, ''),
    a.template_id, a.period, a.status,
    a.staff_scores, a.staff_evidence, a.manager_scores, a.manager_evidence,
    a.manager_notes, a.director_comments, COALESCE(a.returned_by::text, ''),
    a.final_score, a.final_grade,
    a.staff_submitted_at, a.manager_reviewed_at, a.director_reviewed_at,
    a.released_at, a.acknowledged_at, a.created_at, a.updated_at`

const detailColumns = assessmentColumns + `,
    su.full_name, COALESCE(su.email, ''), COALESCE(mu.full_name, ''), COALESCE(du.full_name, ''),
    t.name, COALESCE(dep.name, '')`

const detailJoins = `
    FROM assessments a
    JOIN users su ON su.id = a.staff_id
    JOIN rubric_templates t ON t.id = a.template_id
    LEFT JOIN users mu ON mu.id = a.manager_id
    LEFT JOIN users du ON du.id = a.director_id
    LEFT JOIN departments dep ON dep.id = su.department_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner, extra ...any) (Assessment, error) {
	var a Assessment
	var status string
	var staffScores, staffEvidence, managerScores, managerEvidence []byte
	var grade *string
	dest := []any{
		&a.ID, &a.StaffID, &a.ManagerID, &a.DirectorID,
		&a.TemplateID, &a.Period, &status,
		&staffScores, &staffEvidence, &managerScores, &managerEvidence,
		&a.ManagerNotes, &a.DirectorComments, &a.ReturnedBy,
		&a.FinalScore, &grade,
		&a.StaffSubmittedAt, &a.ManagerReviewedAt, &a.DirectorReviewedAt,
		&a.ReleasedAt, &a.AcknowledgedAt, &a.CreatedAt, &a.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Assessment{}, err
	}
	a.Status = Status(status)
	if grade != nil {
		a.FinalGrade = *grade
	}
	if err := decodeMaps(&a, staffScores, staffEvidence, managerScores, managerEvidence); err != nil {
		return Assessment{}, err
	}
	return a, nil
}

func decodeMaps(a *Assessment, staffScores, staffEvidence, managerScores, managerEvidence []byte) error {
	a.StaffScores = map[string]int{}
	a.ManagerScores = map[string]int{}
	a.StaffEvidence = map[string]string{}
	a.ManagerEvidence = map[string]string{}
	pairs := []struct {
		raw []byte
		dst any
	}{
		{staffScores, &a.StaffScores},
		{staffEvidence, &a.StaffEvidence},
		{managerScores, &a.ManagerScores},
		{managerEvidence, &a.ManagerEvidence},
	}
	for _, p := range pairs {
		if len(p.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(p.raw, p.dst); err != nil {
			return fmt.Errorf("decode assessment %s: %w", a.ID, err)
		}
	}
	return nil
}

func scanDetail(row rowScanner) (Detail, error) {
	var d Detail
	a, err := scanAssessment(row, &d.StaffName, &d.StaffEmail, &d.ManagerName, &d.DirectorName, &d.TemplateName, &d.Department)
	if err != nil {
		return Detail{}, err
	}
	d.Assessment = a
	return d, nil
}

func (s *Store) Create(ctx context.Context, staffID string, reviewers Reviewers, in NewAssessment) (Assessment, error) {
	row := s.DB.QueryRow(ctx, `
    WITH inserted AS (
      INSERT INTO assessments (staff_id, manager_id, director_id, template_id, period, status)
      VALUES ($1, NULLIF($2, '')::uuid, NULLIF($3, '')::uuid, $4, $5, $6)
      RETURNING *
    )
    SELECT `+assessmentColumns+` FROM inserted a
  `, staffID, reviewers.ManagerID, reviewers.DirectorID, in.TemplateID, in.Period, string(StatusDraft))
	return scanAssessment(row)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *Store) Get(ctx context.Context, id string) (Assessment, error) {
	if !validID(id) {
		return Assessment{}, ErrNotFound
	}
	a, err := scanAssessment(s.DB.QueryRow(ctx, `SELECT `+assessmentColumns+` FROM assessments a WHERE a.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Assessment{}, ErrNotFound
	}
	return a, err
}

func (s *Store) GetDetail(ctx context.Context, id string) (Detail, error) {
	if !validID(id) {
		return Detail{}, ErrNotFound
	}
	d, err := scanDetail(s.DB.QueryRow(ctx, `SELECT `+detailColumns+detailJoins+` WHERE a.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Detail{}, ErrNotFound
	}
	return d, err
}

func buildFilter(filter Filter) (string, []any) {
	var where []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.StaffID != "" {
		add("a.staff_id = $%d", filter.StaffID)
	}
	if filter.ManagerID != "" {
		if filter.IncludeUnassigned {
			add("(a.manager_id = $%d OR a.manager_id IS NULL)", filter.ManagerID)
		} else {
			add("a.manager_id = $%d", filter.ManagerID)
		}
	}
	if filter.DirectorID != "" {
		if filter.IncludeUnassigned {
			add("(a.director_id = $%d OR a.director_id IS NULL)", filter.DirectorID)
		} else {
			add("a.director_id = $%d", filter.DirectorID)
		}
	}
	if filter.Status != "" {
		add("a.status = $%d", string(filter.Status))
	}
	if filter.Period != "" {
		add("a.period = $%d", filter.Period)
	}
	if filter.TemplateID != "" {
		add("a.template_id = $%d", filter.TemplateID)
	}
	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (s *Store) List(ctx context.Context, filter Filter, limit, offset int) ([]Detail, error) {
	where, args := buildFilter(filter)
	args = append(args, limit, offset)
	query := `SELECT ` + detailColumns + detailJoins + where +
		fmt.Sprintf(" ORDER BY a.updated_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Detail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) Count(ctx context.Context, filter Filter) (int, error) {
	where, args := buildFilter(filter)
	var total int
	err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM assessments a`+where, args...).Scan(&total)
	return total, err
}

func (s *Store) Mutate(ctx context.Context, id string, fn func(a *Assessment) error) (Assessment, error) {
	if !validID(id) {
		return Assessment{}, ErrNotFound
	}
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Assessment{}, err
	}
	defer tx.Rollback(ctx)

	a, err := scanAssessment(tx.QueryRow(ctx, `SELECT `+assessmentColumns+` FROM assessments a WHERE a.id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Assessment{}, ErrNotFound
	}
	if err != nil {
		return Assessment{}, err
	}
	if err := fn(&a); err != nil {
		return Assessment{}, err
	}

	payload, err := encodeMaps(a)
	if err != nil {
		return Assessment{}, err
	}
	var grade any
	if a.FinalGrade != "" {
		grade = a.FinalGrade
	}
	if _, err := tx.Exec(ctx, `
    UPDATE assessments SET
      manager_id = NULLIF($2, '')::uuid,
      director_id = NULLIF($3, '')::uuid,
      status = $4,
      staff_scores = $5,
      staff_evidence = $6,
      manager_scores = $7,
      manager_evidence = $8,
      manager_notes = $9,
      director_comments = $10,
      returned_by = NULLIF($11, '')::uuid,
      final_score = $12,
      final_grade = $13,
      staff_submitted_at = $14,
      manager_reviewed_at = $15,
      director_reviewed_at = $16,
      released_at = $17,
      acknowledged_at = $18,
      updated_at = now()
    WHERE id = $1
  `, a.ID, a.ManagerID, a.DirectorID, string(a.Status),
		payload[0], payload[1], payload[2], payload[3],
		a.ManagerNotes, a.DirectorComments, a.ReturnedBy,
		a.FinalScore, grade,
		a.StaffSubmittedAt, a.ManagerReviewedAt, a.DirectorReviewedAt,
		a.ReleasedAt, a.AcknowledgedAt); err != nil {
		return Assessment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Assessment{}, err
	}
	return a, nil
}

func encodeMaps(a Assessment) ([4][]byte, error) {
	var out [4][]byte
	values := []any{nonNil(a.StaffScores), nonNil(a.StaffEvidence), nonNil(a.ManagerScores), nonNil(a.ManagerEvidence)}
	for i, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return out, err
		}
		out[i] = raw
	}
	return out, nil
}

func nonNil[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}

func (s *Store) Delete(ctx context.Context, id string, check func(a Assessment) error) (Assessment, error) {
	if !validID(id) {
		return Assessment{}, ErrNotFound
	}
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Assessment{}, err
	}
	defer tx.Rollback(ctx)

	a, err := scanAssessment(tx.QueryRow(ctx, `SELECT `+assessmentColumns+` FROM assessments a WHERE a.id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Assessment{}, ErrNotFound
	}
	if err != nil {
		return Assessment{}, err
	}
	if err := check(a); err != nil {
		return Assessment{}, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM notifications WHERE assessment_id = $1`, id); err != nil {
		return Assessment{}, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM assessments WHERE id = $1`, id); err != nil {
		return Assessment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Assessment{}, err
	}
	return a, nil
}

func (s *Store) ReleaseAll(ctx context.Context, releasedAt time.Time) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    UPDATE assessments
    SET status = $1, released_at = $2, updated_at = $2
    WHERE status = $3
    RETURNING id::text
  `, string(StatusAdminReviewed), releasedAt, string(StatusDirectorApproved))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ResolveReviewers(ctx context.Context, staffID string) (Reviewers, error) {
	var managerID, directorID *string
	err := s.DB.QueryRow(ctx, `
    SELECT u.manager_id::text, d.director_id::text
    FROM users u
    LEFT JOIN departments d ON d.id = u.department_id
    WHERE u.id = $1
  `, staffID).Scan(&managerID, &directorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Reviewers{}, fmt.Errorf("%w: staff member %s not found", ErrValidation, staffID)
	}
	if err != nil {
		return Reviewers{}, err
	}
	var r Reviewers
	if managerID != nil {
		r.ManagerID = *managerID
	}
	if directorID != nil && *directorID != staffID {
		r.DirectorID = *directorID
	}
	return r, nil
}
