package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"appraisal/internal/domain/audit"
	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/notifications"
	"appraisal/internal/domain/rubric"
	"appraisal/internal/domain/scoring"
	"appraisal/internal/platform/metrics"
)

type Notifier interface {
	Trigger(ctx context.Context, assessmentID string, t notifications.Type)
	TriggerMany(ctx context.Context, assessmentIDs []string, t notifications.Type)
}

type TemplateSource interface {
	Get(ctx context.Context, templateID string) (rubric.Template, error)
}

type Recorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

type Service struct {
	store     StoreAPI
	templates TemplateSource
	notifier  Notifier
	audit     Recorder
	now       func() time.Time
}

func NewService(store StoreAPI, templates TemplateSource, notifier Notifier, recorder Recorder) *Service {
	return &Service{
		store:     store,
		templates: templates,
		notifier:  notifier,
		audit:     recorder,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// View is the assessment detail together with its rubric and computed scores.
type View struct {
	Assessment Detail          `json:"assessment"`
	Template   rubric.Template `json:"template"`
	Summary    scoring.Summary `json:"summary"`
}

func (s *Service) Create(ctx context.Context, user auth.UserContext, in NewAssessment) (Assessment, error) {
	if err := auth.Authorize(user, auth.AnyRole(auth.RoleStaff, auth.RoleManager, auth.RoleDirector)); err != nil {
		return Assessment{}, err
	}
	in.Period = strings.TrimSpace(in.Period)
	if in.Period == "" {
		return Assessment{}, fieldError("period", "is required")
	}
	tmpl, err := s.templates.Get(ctx, in.TemplateID)
	if errors.Is(err, rubric.ErrTemplateNotFound) {
		return Assessment{}, fieldError("templateId", "template not found")
	}
	if err != nil {
		return Assessment{}, err
	}
	if !tmpl.IsActive {
		return Assessment{}, fieldError("templateId", "template is not active")
	}

	reviewers, err := s.store.ResolveReviewers(ctx, user.UserID)
	if err != nil {
		return Assessment{}, err
	}
	created, err := s.store.Create(ctx, user.UserID, reviewers, in)
	if err != nil {
		return Assessment{}, err
	}
	s.record(ctx, user, "assessment.create", created.ID, nil, created)
	return created, nil
}

func (s *Service) Get(ctx context.Context, user auth.UserContext, id string) (View, error) {
	detail, err := s.store.GetDetail(ctx, id)
	if err != nil {
		return View{}, err
	}
	if err := CanView(user, detail.Assessment); err != nil {
		return View{}, err
	}
	tmpl, err := s.templates.Get(ctx, detail.TemplateID)
	if err != nil {
		return View{}, fmt.Errorf("load template: %w", err)
	}
	return View{
		Assessment: detail,
		Template:   tmpl,
		Summary:    scoring.Summarize(tmpl, detail.StaffScores, detail.ManagerScores),
	}, nil
}

// List scopes the filter to what the caller may see.
func (s *Service) List(ctx context.Context, user auth.UserContext, filter Filter, limit, offset int) ([]Detail, int, error) {
	switch user.RoleName {
	case auth.RoleAdmin:
	case auth.RoleManager:
		filter.StaffID = ""
		filter.ManagerID = user.UserID
		filter.DirectorID = ""
		filter.IncludeUnassigned = true
	case auth.RoleDirector:
		filter.StaffID = ""
		filter.ManagerID = ""
		filter.DirectorID = user.UserID
		filter.IncludeUnassigned = true
	case auth.RoleStaff:
		filter.StaffID = user.UserID
		filter.ManagerID = ""
		filter.DirectorID = ""
	default:
		return nil, 0, ErrForbidden
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, fieldError("status", "unknown status")
	}
	items, err := s.store.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Mine lists the caller's own assessments regardless of role.
func (s *Service) Mine(ctx context.Context, user auth.UserContext, limit, offset int) ([]Detail, int, error) {
	if user.UserID == "" {
		return nil, 0, ErrForbidden
	}
	filter := Filter{StaffID: user.UserID}
	items, err := s.store.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) SaveSelf(ctx context.Context, user auth.UserContext, id string, patch SelfAssessmentPatch) (Assessment, error) {
	return s.edit(ctx, user, id, auth.RoleStaff, "assessment.save_self", func(a *Assessment, tmpl rubric.Template) error {
		if err := applyScores(tmpl, "scores", a.StaffScores, patch.Scores); err != nil {
			return err
		}
		return applyEvidence(tmpl, "evidence", a.StaffEvidence, patch.Evidence)
	})
}

func (s *Service) SaveReview(ctx context.Context, user auth.UserContext, id string, patch ManagerReviewPatch) (Assessment, error) {
	return s.edit(ctx, user, id, auth.RoleManager, "assessment.save_review", func(a *Assessment, tmpl rubric.Template) error {
		if err := applyScores(tmpl, "scores", a.ManagerScores, patch.Scores); err != nil {
			return err
		}
		if err := applyEvidence(tmpl, "evidence", a.ManagerEvidence, patch.Evidence); err != nil {
			return err
		}
		if patch.Notes != nil {
			a.ManagerNotes = *patch.Notes
		}
		if a.ManagerID == "" {
			a.ManagerID = user.UserID
		}
		return nil
	})
}

func (s *Service) SaveDirector(ctx context.Context, user auth.UserContext, id string, patch DirectorPatch) (Assessment, error) {
	return s.edit(ctx, user, id, auth.RoleDirector, "assessment.save_director", func(a *Assessment, _ rubric.Template) error {
		if patch.Comments != nil {
			a.DirectorComments = *patch.Comments
		}
		if a.DirectorID == "" {
			a.DirectorID = user.UserID
		}
		return nil
	})
}

func (s *Service) edit(ctx context.Context, user auth.UserContext, id, slot, action string, apply func(a *Assessment, tmpl rubric.Template) error) (Assessment, error) {
	tmpl, err := s.templateFor(ctx, id)
	if err != nil {
		return Assessment{}, err
	}
	var before Assessment
	updated, err := s.store.Mutate(ctx, id, func(a *Assessment) error {
		if err := auth.Authorize(user, roleSlot(slot, *a)); err != nil {
			return err
		}
		if !Editable(slot, a.Status) {
			return fmt.Errorf("%w: %s cannot edit while %s", ErrInvalidTransition, slot, a.Status)
		}
		before = a.clone()
		ensureMaps(a)
		if err := apply(a, tmpl); err != nil {
			return err
		}
		a.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return Assessment{}, err
	}
	s.record(ctx, user, action, id, before, updated)
	return updated, nil
}

// templateFor loads the rubric of an assessment. It must run before Mutate
// so no pool connection is requested while the row lock is held.
func (s *Service) templateFor(ctx context.Context, id string) (rubric.Template, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return rubric.Template{}, err
	}
	tmpl, err := s.templates.Get(ctx, current.TemplateID)
	if err != nil {
		return rubric.Template{}, fmt.Errorf("load template: %w", err)
	}
	return tmpl, nil
}

func (s *Service) Submit(ctx context.Context, user auth.UserContext, id string) (Assessment, error) {
	return s.transition(ctx, user, id, ActionSubmit, func(a *Assessment, now time.Time) error {
		if len(a.StaffScores) == 0 {
			return fieldError("staffScores", "at least one indicator must be scored")
		}
		a.StaffSubmittedAt = &now
		return nil
	})
}

func (s *Service) SubmitReview(ctx context.Context, user auth.UserContext, id string) (Assessment, error) {
	tmpl, err := s.templateFor(ctx, id)
	if err != nil {
		return Assessment{}, err
	}
	return s.transition(ctx, user, id, ActionSubmitReview, func(a *Assessment, now time.Time) error {
		a.FinalScore = nil
		a.FinalGrade = ""
		sections := scoring.BuildSections(tmpl, a.StaffScores, a.ManagerScores)
		if score, ok := scoring.CalculateWeightedScore(sections, scoring.ActorManager); ok {
			a.FinalScore = &score
			a.FinalGrade = scoring.GradeFromScore(score)
		}
		if a.ManagerID == "" {
			a.ManagerID = user.UserID
		}
		a.ManagerReviewedAt = &now
		return nil
	})
}

func (s *Service) Approve(ctx context.Context, user auth.UserContext, id string) (Assessment, error) {
	return s.transition(ctx, user, id, ActionApprove, func(a *Assessment, now time.Time) error {
		if a.DirectorID == "" {
			a.DirectorID = user.UserID
		}
		a.DirectorReviewedAt = &now
		return nil
	})
}

// Reject returns the assessment to its owner. A non-nil comments value
// replaces the director comments.
func (s *Service) Reject(ctx context.Context, user auth.UserContext, id string, comments *string) (Assessment, error) {
	return s.transition(ctx, user, id, ActionReject, func(a *Assessment, now time.Time) error {
		if a.DirectorID == "" {
			a.DirectorID = user.UserID
		}
		if comments != nil {
			a.DirectorComments = *comments
		}
		a.ReturnedBy = user.UserID
		a.DirectorReviewedAt = &now
		return nil
	})
}

func (s *Service) Release(ctx context.Context, user auth.UserContext, id string) (Assessment, error) {
	return s.transition(ctx, user, id, ActionRelease, func(a *Assessment, now time.Time) error {
		a.ReleasedAt = &now
		return nil
	})
}

func (s *Service) Acknowledge(ctx context.Context, user auth.UserContext, id string) (Assessment, error) {
	return s.transition(ctx, user, id, ActionAcknowledge, func(a *Assessment, now time.Time) error {
		a.AcknowledgedAt = &now
		return nil
	})
}

func (s *Service) transition(ctx context.Context, user auth.UserContext, id string, action Action, apply func(a *Assessment, now time.Time) error) (Assessment, error) {
	t, ok := LookupTransition(action)
	if !ok {
		return Assessment{}, fmt.Errorf("%w: unknown action %s", ErrInvalidTransition, action)
	}
	var before Status
	updated, err := s.store.Mutate(ctx, id, func(a *Assessment) error {
		if err := auth.Authorize(user, t.Policy(*a)); err != nil {
			return err
		}
		if !t.AllowsFrom(a.Status) {
			return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, action, a.Status)
		}
		before = a.Status
		now := s.now()
		ensureMaps(a)
		if apply != nil {
			if err := apply(a, now); err != nil {
				return err
			}
		}
		a.Status = t.To
		a.UpdatedAt = now
		return nil
	})
	metrics.Transitions.WithLabelValues(string(action), transitionResult(err)).Inc()
	if err != nil {
		return Assessment{}, err
	}

	s.record(ctx, user, "assessment."+string(action), id,
		map[string]any{"status": before},
		map[string]any{"status": updated.Status, "finalScore": updated.FinalScore, "finalGrade": updated.FinalGrade})
	if s.notifier != nil {
		s.notifier.Trigger(ctx, id, t.Notify)
	}
	return updated, nil
}

// ReleaseAll releases every director-approved assessment at once and
// notifies each released staff member.
func (s *Service) ReleaseAll(ctx context.Context, user auth.UserContext) (ReleaseResult, error) {
	if err := auth.Authorize(user, auth.AnyRole(auth.RoleAdmin)); err != nil {
		return ReleaseResult{}, err
	}
	ids, err := s.store.ReleaseAll(ctx, s.now())
	metrics.Transitions.WithLabelValues("release_all", transitionResult(err)).Inc()
	if err != nil {
		return ReleaseResult{}, err
	}
	if ids == nil {
		ids = []string{}
	}
	s.record(ctx, user, "assessment.release_all", "", nil, map[string]any{"released": ids})
	if s.notifier != nil && len(ids) > 0 {
		s.notifier.TriggerMany(ctx, ids, notifications.TypeAdminReleased)
	}
	return ReleaseResult{Released: ids, Count: len(ids)}, nil
}

func (s *Service) Delete(ctx context.Context, user auth.UserContext, id string) error {
	deleted, err := s.store.Delete(ctx, id, func(a Assessment) error {
		return CanDelete(user, a)
	})
	if err != nil {
		return err
	}
	s.record(ctx, user, "assessment.delete", id, deleted, nil)
	return nil
}

func (s *Service) record(ctx context.Context, user auth.UserContext, action, id string, before, after any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, audit.Entry{
		ActorID:    user.UserID,
		Action:     action,
		EntityType: audit.EntityAssessment,
		EntityID:   id,
		Before:     before,
		After:      after,
	}); err != nil {
		slog.Warn("audit record failed", "action", action, "assessmentId", id, "err", err)
	}
}

func ensureMaps(a *Assessment) {
	if a.StaffScores == nil {
		a.StaffScores = map[string]int{}
	}
	if a.ManagerScores == nil {
		a.ManagerScores = map[string]int{}
	}
	if a.StaffEvidence == nil {
		a.StaffEvidence = map[string]string{}
	}
	if a.ManagerEvidence == nil {
		a.ManagerEvidence = map[string]string{}
	}
}

func transitionResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
		return "rejected"
	default:
		return "error"
	}
}
