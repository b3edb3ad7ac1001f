package rubricshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/rubric"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, activeOnly bool) ([]rubric.TemplateSummary, error)
	Get(ctx context.Context, templateID string) (rubric.Template, error)
	Create(ctx context.Context, tmpl rubric.NewTemplate) (string, error)
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/templates", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTemplatesRead)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermTemplatesWrite)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermTemplatesRead)).Get("/{templateID}", h.handleGet)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	items, err := h.Service.List(r.Context(), activeOnly)
	if err != nil {
		slog.Error("template list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "template_list_failed", "failed to list templates", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	tmpl, err := h.Service.Get(r.Context(), chi.URLParam(r, "templateID"))
	if errors.Is(err, rubric.ErrTemplateNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "template not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		slog.Error("template load failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "template_load_failed", "failed to load template", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, tmpl, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload rubric.NewTemplate
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}

	id, err := h.Service.Create(r.Context(), payload)
	if err != nil {
		slog.Error("template create failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "template_create_failed", "failed to create template", middleware.GetRequestID(r.Context()))
		return
	}
	tmpl, err := h.Service.Get(r.Context(), id)
	if err != nil {
		slog.Warn("created template reload failed", "templateId", id, "err", err)
		api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, tmpl, middleware.GetRequestID(r.Context()))
}
