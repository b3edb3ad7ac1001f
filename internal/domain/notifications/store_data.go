package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (s *Store) GetPreference(ctx context.Context, userID string) (Preference, bool, error) {
	var p Preference
	err := s.DB.QueryRow(ctx, `
		SELECT email_enabled, assessment_submitted, manager_review_completed,
		       director_approved, admin_released, assessment_returned, assessment_acknowledged
		FROM notification_preferences
		WHERE user_id = $1
	`, userID).Scan(&p.EmailEnabled, &p.AssessmentSubmitted, &p.ManagerReviewCompleted,
		&p.DirectorApproved, &p.AdminReleased, &p.AssessmentReturned, &p.AssessmentAcknowledged)
	if errors.Is(err, pgx.ErrNoRows) {
		return Preference{}, false, nil
	}
	if err != nil {
		return Preference{}, false, err
	}
	return p, true, nil
}

func (s *Store) UpsertPreference(ctx context.Context, userID string, p Preference) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO notification_preferences (
			user_id, email_enabled, assessment_submitted, manager_review_completed,
			director_approved, admin_released, assessment_returned, assessment_acknowledged, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
		ON CONFLICT (user_id) DO UPDATE SET
			email_enabled = EXCLUDED.email_enabled,
			assessment_submitted = EXCLUDED.assessment_submitted,
			manager_review_completed = EXCLUDED.manager_review_completed,
			director_approved = EXCLUDED.director_approved,
			admin_released = EXCLUDED.admin_released,
			assessment_returned = EXCLUDED.assessment_returned,
			assessment_acknowledged = EXCLUDED.assessment_acknowledged,
			updated_at = now()
	`, userID, p.EmailEnabled, p.AssessmentSubmitted, p.ManagerReviewCompleted,
		p.DirectorApproved, p.AdminReleased, p.AssessmentReturned, p.AssessmentAcknowledged)
	return err
}

func (s *Store) CreateLog(ctx context.Context, entry LogEntry) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
		INSERT INTO notifications (assessment_id, user_id, type, status)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`, entry.AssessmentID, entry.UserID, string(entry.Type), StatusPending).Scan(&id)
	return id, err
}

func (s *Store) MarkSent(ctx context.Context, id, messageID string, sentAt time.Time) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE notifications
		SET status = $1, message_id = NULLIF($2, ''), sent_at = $3, error = NULL
		WHERE id = $4
	`, StatusSent, messageID, sentAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification %s not found", id)
	}
	return nil
}

func (s *Store) MarkFailed(ctx context.Context, id, errMsg string) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE notifications
		SET status = $1, error = $2
		WHERE id = $3
	`, StatusFailed, errMsg, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification %s not found", id)
	}
	return nil
}

func (s *Store) DeleteLog(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	return err
}

func buildLogQuery(filter LogFilter) (string, []any) {
	var where []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Status != "" {
		add("n.status = $%d", filter.Status)
	}
	if filter.Type != "" {
		add("n.type = $%d", string(filter.Type))
	}
	if filter.AssessmentID != "" {
		add("n.assessment_id = $%d", filter.AssessmentID)
	}
	if filter.UserID != "" {
		add("n.user_id = $%d", filter.UserID)
	}
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}
	return clause, args
}

func (s *Store) ListLog(ctx context.Context, filter LogFilter, limit, offset int) ([]LogEntry, error) {
	where, args := buildLogQuery(filter)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT n.id, n.assessment_id, n.user_id, COALESCE(u.full_name, ''), COALESCE(u.email, ''),
		       COALESCE(a.period, ''), n.type, n.status, n.error, COALESCE(n.message_id, ''),
		       n.created_at, n.sent_at
		FROM notifications n
		LEFT JOIN users u ON u.id = n.user_id
		LEFT JOIN assessments a ON a.id = n.assessment_id
		%s
		ORDER BY n.created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LogEntry
	for rows.Next() {
		var e LogEntry
		var typ string
		if err := rows.Scan(&e.ID, &e.AssessmentID, &e.UserID, &e.RecipientName, &e.RecipientEmail,
			&e.Period, &typ, &e.Status, &e.Error, &e.MessageID, &e.CreatedAt, &e.SentAt); err != nil {
			return nil, err
		}
		e.Type = Type(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) CountLog(ctx context.Context, filter LogFilter) (int, error) {
	where, args := buildLogQuery(filter)
	var total int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM notifications n "+where, args...).Scan(&total)
	return total, err
}

func (s *Store) AssessmentView(ctx context.Context, assessmentID string) (View, error) {
	if _, err := uuid.Parse(assessmentID); err != nil {
		return View{}, ErrAssessmentNotFound
	}
	var v View
	var managerID, managerName, managerEmail *string
	var directorID, directorName, directorEmail *string
	var returnedBy, comments, grade *string
	err := s.DB.QueryRow(ctx, `
		SELECT a.id::text, a.period, t.name, a.status,
		       su.id::text, su.full_name, COALESCE(su.email, ''),
		       mu.id::text, mu.full_name, mu.email,
		       du.id::text, du.full_name, du.email,
		       a.final_score, a.final_grade, ru.full_name, a.director_comments
		FROM assessments a
		JOIN rubric_templates t ON t.id = a.template_id
		JOIN users su ON su.id = a.staff_id
		LEFT JOIN users mu ON mu.id = a.manager_id
		LEFT JOIN users du ON du.id = a.director_id
		LEFT JOIN users ru ON ru.id = a.returned_by
		WHERE a.id = $1
	`, assessmentID).Scan(&v.AssessmentID, &v.Period, &v.TemplateName, &v.Status,
		&v.Staff.ID, &v.Staff.Name, &v.Staff.Email,
		&managerID, &managerName, &managerEmail,
		&directorID, &directorName, &directorEmail,
		&v.FinalScore, &grade, &returnedBy, &comments)
	if errors.Is(err, pgx.ErrNoRows) {
		return View{}, ErrAssessmentNotFound
	}
	if err != nil {
		return View{}, err
	}
	v.Manager = Person{ID: deref(managerID), Name: deref(managerName), Email: deref(managerEmail)}
	v.Director = Person{ID: deref(directorID), Name: deref(directorName), Email: deref(directorEmail)}
	v.FinalGrade = deref(grade)
	v.ReturnedBy = deref(returnedBy)
	v.DirectorComments = deref(comments)
	return v, nil
}

func (s *Store) ActiveAdmins(ctx context.Context) ([]Recipient, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT u.id::text, u.full_name, COALESCE(u.email, '')
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE r.name = 'admin' AND u.is_active
		ORDER BY u.created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Recipient
	for rows.Next() {
		var r Recipient
		if err := rows.Scan(&r.UserID, &r.Name, &r.Email); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
