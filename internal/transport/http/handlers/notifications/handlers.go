package notificationshandler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/notifications"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Service interface {
	Preference(ctx context.Context, userID string) (notifications.Preference, error)
	UpdatePreference(ctx context.Context, userID string, patch notifications.PreferencePatch) (notifications.Preference, error)
	ListLog(ctx context.Context, filter notifications.LogFilter, limit, offset int) ([]notifications.LogEntry, error)
	CountLog(ctx context.Context, filter notifications.LogFilter) (int, error)
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermNotificationsAdmin)).Get("/", h.handleList)
		r.Get("/preferences", h.handlePreferences)
		r.Put("/preferences", h.handleUpdatePreferences)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := notifications.LogFilter{
		Status:       q.Get("status"),
		Type:         notifications.Type(q.Get("type")),
		AssessmentID: q.Get("assessmentId"),
		UserID:       q.Get("userId"),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "type", Reason: "unknown notification type"}})
		return
	}
	switch filter.Status {
	case "", notifications.StatusPending, notifications.StatusSent, notifications.StatusFailed:
	default:
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "status", Reason: "unknown status"}})
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	total, err := h.Service.CountLog(r.Context(), filter)
	if err != nil {
		slog.Warn("notification count failed", "err", err)
	}

	items, err := h.Service.ListLog(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		slog.Error("notification list failed", "err", err, "requestId", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusInternalServerError, "notification_list_failed", "failed to list notifications", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePreferences(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	pref, err := h.Service.Preference(r.Context(), user.UserID)
	if err != nil {
		slog.Error("notification preference load failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "preference_load_failed", "failed to load notification preferences", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, pref, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var patch notifications.PreferencePatch
	if !shared.DecodeJSON(w, r, &patch) {
		return
	}
	pref, err := h.Service.UpdatePreference(r.Context(), user.UserID, patch)
	if err != nil {
		slog.Error("notification preference update failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "preference_update_failed", "failed to update notification preferences", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, pref, middleware.GetRequestID(r.Context()))
}
