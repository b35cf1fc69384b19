package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"meritboard/internal/auth"
	"meritboard/internal/model"
	"meritboard/internal/regiontime"
	"meritboard/internal/store"
	"meritboard/internal/websocket"
)

const maxNameLength = 100

// MemberHandler serves the member roster and per-member detail views.
type MemberHandler struct {
	members  *store.MemberStore
	points   *store.PointStore
	activity *store.ActivityStore
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewMemberHandler(members *store.MemberStore, points *store.PointStore, activity *store.ActivityStore, hub *websocket.Hub, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{
		members:  members,
		points:   points,
		activity: activity,
		hub:      hub,
		logger:   logger.With("component", "members"),
	}
}

// windowFromQuery resolves the shared date-filter contract. period selects a
// preset range (today, week, month) or "custom" with start_date/end_date;
// anything else means unrestricted.
func windowFromQuery(r *http.Request) *regiontime.Window {
	q := r.URL.Query()
	return regiontime.Range(q.Get("period"), q.Get("start_date"), q.Get("end_date"))
}

// List returns active members ordered by total points, with counts aggregated
// over the requested window.
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	window := windowFromQuery(r)
	summaries, err := h.members.ListSummaries(window)
	if err != nil {
		h.logger.Error("list members failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load members")
		return
	}
	if summaries == nil {
		summaries = []model.MemberSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": summaries})
}

type memberRequest struct {
	Name string `json:"name"`
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Name) > maxNameLength {
		writeError(w, http.StatusBadRequest, "name is too long")
		return
	}

	exists, err := h.members.NameExists(req.Name, 0)
	if err != nil {
		h.logger.Error("name check failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create member")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "a member with this name already exists")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	member, err := h.members.Create(req.Name, ac.UserID)
	if err != nil {
		h.logger.Error("create member failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create member")
		return
	}

	if err := h.activity.Record(model.ActionCreate, model.TargetMember, &member.ID, "added member "+member.Name, &ac.UserID); err != nil {
		h.logger.Error("record member create failed", "error", err)
	}
	h.hub.Broadcast(websocket.NewEvent(websocket.EntityMember, "created", member.ID))

	writeJSON(w, http.StatusCreated, member)
}

// Get returns a member with statistics and the filtered notes panel. note_type
// selects positive or negative notes and defaults to positive.
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	member, err := h.members.GetActive(id)
	if err != nil {
		h.logger.Error("get member failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load member")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	window := windowFromQuery(r)
	stats, err := h.members.Stats(id, window)
	if err != nil {
		h.logger.Error("member stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load member")
		return
	}

	noteType := r.URL.Query().Get("note_type")
	if !model.ValidPointType(noteType) {
		noteType = model.PointPositive
	}
	notes, err := h.points.ListForMember(id, noteType, window)
	if err != nil {
		h.logger.Error("member notes failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load member")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"member":    member,
		"stats":     stats,
		"note_type": noteType,
		"notes":     pointsJSON(notes),
	})
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Name) > maxNameLength {
		writeError(w, http.StatusBadRequest, "name is too long")
		return
	}

	member, err := h.members.GetActive(id)
	if err != nil {
		h.logger.Error("get member failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	exists, err := h.members.NameExists(req.Name, id)
	if err != nil {
		h.logger.Error("name check failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "a member with this name already exists")
		return
	}

	updated, err := h.members.UpdateName(id, req.Name)
	if err != nil {
		h.logger.Error("update member failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	if err := h.activity.Record(model.ActionUpdate, model.TargetMember, &id, "renamed member "+member.Name+" to "+req.Name, &ac.UserID); err != nil {
		h.logger.Error("record member update failed", "error", err)
	}
	h.hub.Broadcast(websocket.NewEvent(websocket.EntityMember, "updated", id))

	writeJSON(w, http.StatusOK, updated)
}

// Delete soft-deletes a member and all their points.
func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	member, err := h.members.GetActive(id)
	if err != nil {
		h.logger.Error("get member failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete member")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	if err := h.members.SoftDelete(id); err != nil {
		h.logger.Error("delete member failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete member")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	if err := h.activity.Record(model.ActionDelete, model.TargetMember, &id, "removed member "+member.Name, &ac.UserID); err != nil {
		h.logger.Error("record member delete failed", "error", err)
	}
	h.hub.Broadcast(websocket.NewEvent(websocket.EntityMember, "deleted", id))

	writeJSON(w, http.StatusOK, map[string]string{"message": "member deleted"})
}
