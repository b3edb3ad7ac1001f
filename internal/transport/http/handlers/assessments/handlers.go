package assessmentshandler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"appraisal/internal/domain/assessment"
	"appraisal/internal/domain/auth"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Service interface {
	Create(ctx context.Context, user auth.UserContext, in assessment.NewAssessment) (assessment.Assessment, error)
	Get(ctx context.Context, user auth.UserContext, id string) (assessment.View, error)
	List(ctx context.Context, user auth.UserContext, filter assessment.Filter, limit, offset int) ([]assessment.Detail, int, error)
	Mine(ctx context.Context, user auth.UserContext, limit, offset int) ([]assessment.Detail, int, error)
	SaveSelf(ctx context.Context, user auth.UserContext, id string, patch assessment.SelfAssessmentPatch) (assessment.Assessment, error)
	SaveReview(ctx context.Context, user auth.UserContext, id string, patch assessment.ManagerReviewPatch) (assessment.Assessment, error)
	SaveDirector(ctx context.Context, user auth.UserContext, id string, patch assessment.DirectorPatch) (assessment.Assessment, error)
	Submit(ctx context.Context, user auth.UserContext, id string) (assessment.Assessment, error)
	SubmitReview(ctx context.Context, user auth.UserContext, id string) (assessment.Assessment, error)
	Approve(ctx context.Context, user auth.UserContext, id string) (assessment.Assessment, error)
	Reject(ctx context.Context, user auth.UserContext, id string, comments *string) (assessment.Assessment, error)
	Release(ctx context.Context, user auth.UserContext, id string) (assessment.Assessment, error)
	Acknowledge(ctx context.Context, user auth.UserContext, id string) (assessment.Assessment, error)
	ReleaseAll(ctx context.Context, user auth.UserContext) (assessment.ReleaseResult, error)
	Delete(ctx context.Context, user auth.UserContext, id string) error
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

// filterIssues rejects query ids that could never match a row.
func filterIssues(filter assessment.Filter) []shared.ValidationIssue {
	var issues []shared.ValidationIssue
	for _, f := range []struct{ field, value string }{
		{"staffId", filter.StaffID},
		{"managerId", filter.ManagerID},
		{"directorId", filter.DirectorID},
		{"templateId", filter.TemplateID},
	} {
		if f.value == "" {
			continue
		}
		if _, err := uuid.Parse(f.value); err != nil {
			issues = append(issues, shared.ValidationIssue{Field: f.field, Reason: "must be a valid id"})
		}
	}
	return issues
}

type rejectRequest struct {
	Comments *string `json:"comments" validate:"omitempty,max=10000"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/assessments", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermAssessmentsRead))
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermAssessmentsRelease)).Post("/release-all", h.handleReleaseAll)

		r.Route("/{assessmentID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Delete("/", h.handleDelete)
			r.Get("/report.pdf", h.handleReport)
			r.Patch("/self", h.handleSaveSelf)
			r.Patch("/review", h.handleSaveReview)
			r.Patch("/director", h.handleSaveDirector)
			r.Post("/submit", h.transition(Service.Submit))
			r.Post("/submit-review", h.transition(Service.SubmitReview))
			r.Post("/approve", h.transition(Service.Approve))
			r.Post("/reject", h.handleReject)
			r.Post("/release", h.transition(Service.Release))
			r.Post("/acknowledge", h.transition(Service.Acknowledge))
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 100, 500)
	q := r.URL.Query()

	var (
		items []assessment.Detail
		total int
		err   error
	)
	if q.Get("scope") == "mine" {
		items, total, err = h.Service.Mine(r.Context(), user, page.Limit, page.Offset)
	} else {
		filter := assessment.Filter{
			StaffID:    q.Get("staffId"),
			ManagerID:  q.Get("managerId"),
			DirectorID: q.Get("directorId"),
			Status:     assessment.Status(q.Get("status")),
			Period:     q.Get("period"),
			TemplateID: q.Get("templateId"),
		}
		if issues := filterIssues(filter); len(issues) > 0 {
			shared.FailValidation(w, middleware.GetRequestID(r.Context()), issues)
			return
		}
		items, total, err = h.Service.List(r.Context(), user, filter, page.Limit, page.Offset)
	}
	if err != nil {
		writeError(w, r, err, "assessment_list_failed")
		return
	}
	if items == nil {
		items = []assessment.Detail{}
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload assessment.NewAssessment
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}

	created, err := h.Service.Create(r.Context(), user, payload)
	if err != nil {
		writeError(w, r, err, "assessment_create_failed")
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	view, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "assessmentID"))
	if err != nil {
		writeError(w, r, err, "assessment_load_failed")
		return
	}
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "assessmentID")
	view, err := h.Service.Get(r.Context(), user, id)
	if err != nil {
		writeError(w, r, err, "assessment_report_failed")
		return
	}

	var buf bytes.Buffer
	if err := assessment.WriteReport(&buf, view); err != nil {
		writeError(w, r, err, "assessment_report_failed")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="assessment-`+id+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("report write failed", "assessmentId", id, "err", err)
	}
}

func (h *Handler) handleSaveSelf(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var patch assessment.SelfAssessmentPatch
	if !shared.DecodeAndValidate(w, r, &patch) {
		return
	}
	updated, err := h.Service.SaveSelf(r.Context(), user, chi.URLParam(r, "assessmentID"), patch)
	if err != nil {
		writeError(w, r, err, "assessment_update_failed")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSaveReview(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var patch assessment.ManagerReviewPatch
	if !shared.DecodeAndValidate(w, r, &patch) {
		return
	}
	updated, err := h.Service.SaveReview(r.Context(), user, chi.URLParam(r, "assessmentID"), patch)
	if err != nil {
		writeError(w, r, err, "assessment_update_failed")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSaveDirector(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var patch assessment.DirectorPatch
	if !shared.DecodeAndValidate(w, r, &patch) {
		return
	}
	updated, err := h.Service.SaveDirector(r.Context(), user, chi.URLParam(r, "assessmentID"), patch)
	if err != nil {
		writeError(w, r, err, "assessment_update_failed")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload rejectRequest
	if shared.HasBody(r) && !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	updated, err := h.Service.Reject(r.Context(), user, chi.URLParam(r, "assessmentID"), payload.Comments)
	if err != nil {
		writeError(w, r, err, "assessment_transition_failed")
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

type transitionFunc func(s Service, ctx context.Context, user auth.UserContext, id string) (assessment.Assessment, error)

func (h *Handler) transition(fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.GetUser(r.Context())
		updated, err := fn(h.Service, r.Context(), user, chi.URLParam(r, "assessmentID"))
		if err != nil {
			writeError(w, r, err, "assessment_transition_failed")
			return
		}
		api.Success(w, updated, middleware.GetRequestID(r.Context()))
	}
}

func (h *Handler) handleReleaseAll(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	result, err := h.Service.ReleaseAll(r.Context(), user)
	if err != nil {
		writeError(w, r, err, "assessment_release_failed")
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.Delete(r.Context(), user, chi.URLParam(r, "assessmentID")); err != nil {
		writeError(w, r, err, "assessment_delete_failed")
		return
	}
	api.NoContent(w)
}
