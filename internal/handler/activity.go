package handler

import (
	"log/slog"
	"net/http"

	"meritboard/internal/model"
	"meritboard/internal/regiontime"
	"meritboard/internal/store"
)

// ActivityHandler serves the read-only audit trail.
type ActivityHandler struct {
	activity *store.ActivityStore
	logger   *slog.Logger
}

func NewActivityHandler(activity *store.ActivityStore, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{
		activity: activity,
		logger:   logger.With("component", "activity"),
	}
}

type activityJSON struct {
	model.ActivityLog
	CreatedAtDisplay string `json:"created_at_display"`
}

// List returns a page of log entries filtered by action, target, and window.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	actionType := q.Get("action_type")
	if actionType != "" && !model.ValidActionType(actionType) {
		writeError(w, http.StatusBadRequest, "invalid action_type")
		return
	}
	targetType := q.Get("target_type")
	if targetType != "" && !model.ValidTargetType(targetType) {
		writeError(w, http.StatusBadRequest, "invalid target_type")
		return
	}

	filter := store.ActivityFilter{
		ActionType: actionType,
		TargetType: targetType,
		Window:     windowFromQuery(r),
		Page:       queryInt(r, "page"),
		PerPage:    queryInt(r, "per_page"),
	}
	logs, pagination, err := h.activity.List(filter)
	if err != nil {
		h.logger.Error("list activity failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load activity log")
		return
	}

	out := make([]activityJSON, 0, len(logs))
	for _, entry := range logs {
		out = append(out, activityJSON{
			ActivityLog:      entry,
			CreatedAtDisplay: regiontime.FormatDateTime(entry.CreatedAt),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"logs":       out,
		"pagination": pagination,
	})
}
