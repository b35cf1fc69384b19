package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"meritboard/internal/auth"
	"meritboard/internal/model"
	"meritboard/internal/regiontime"
	"meritboard/internal/store"
	"meritboard/internal/websocket"
)

const maxDescriptionLength = 500

// pointJSON wraps a Point with a regional display timestamp so clients never
// do their own timezone math.
type pointJSON struct {
	model.Point
	CreatedAtDisplay string `json:"created_at_display"`
}

func toPointJSON(p model.Point) pointJSON {
	return pointJSON{Point: p, CreatedAtDisplay: regiontime.FormatDateTime(p.CreatedAt)}
}

func pointsJSON(points []model.Point) []pointJSON {
	out := make([]pointJSON, 0, len(points))
	for _, p := range points {
		out = append(out, toPointJSON(p))
	}
	return out
}

// PointHandler serves point CRUD.
type PointHandler struct {
	points   *store.PointStore
	members  *store.MemberStore
	activity *store.ActivityStore
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewPointHandler(points *store.PointStore, members *store.MemberStore, activity *store.ActivityStore, hub *websocket.Hub, logger *slog.Logger) *PointHandler {
	return &PointHandler{
		points:   points,
		members:  members,
		activity: activity,
		hub:      hub,
		logger:   logger.With("component", "points"),
	}
}

type createPointRequest struct {
	MemberID    int64  `json:"member_id"`
	PointType   string `json:"point_type"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

func (h *PointHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPointRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Description = strings.TrimSpace(req.Description)

	if !model.ValidPointType(req.PointType) {
		writeError(w, http.StatusBadRequest, "point_type must be positive or negative")
		return
	}
	if !model.ValidCategory(req.PointType, req.Category) {
		writeError(w, http.StatusBadRequest, "invalid category for point type")
		return
	}
	if len(req.Description) > maxDescriptionLength {
		writeError(w, http.StatusBadRequest, "description is too long")
		return
	}

	member, err := h.members.GetActive(req.MemberID)
	if err != nil {
		h.logger.Error("get member failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create point")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	point, err := h.points.Create(req.MemberID, req.PointType, req.Category, req.Description, ac.UserID)
	if err != nil {
		h.logger.Error("create point failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create point")
		return
	}

	details := fmt.Sprintf("added %s point (%s) for %s", point.PointType, point.Category, member.Name)
	if err := h.activity.Record(model.ActionCreate, model.TargetPoint, &point.ID, details, &ac.UserID); err != nil {
		h.logger.Error("record point create failed", "error", err)
	}
	h.hub.Broadcast(websocket.NewEvent(websocket.EntityPoint, "created", point.ID))

	writeJSON(w, http.StatusCreated, toPointJSON(*point))
}

// List returns a page of points, optionally filtered by member and type.
func (h *PointHandler) List(w http.ResponseWriter, r *http.Request) {
	pointType := r.URL.Query().Get("point_type")
	if pointType != "" && !model.ValidPointType(pointType) {
		writeError(w, http.StatusBadRequest, "point_type must be positive or negative")
		return
	}

	filter := store.PointFilter{
		MemberID:  int64(queryInt(r, "member_id")),
		PointType: pointType,
		Page:      queryInt(r, "page"),
		PerPage:   queryInt(r, "per_page"),
	}
	points, pagination, err := h.points.List(filter)
	if err != nil {
		h.logger.Error("list points failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load points")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"points":     pointsJSON(points),
		"pagination": pagination,
	})
}

type updatePointRequest struct {
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Update changes a point's category or description. Co-leaders may only edit
// points they created; leaders may edit any.
func (h *PointHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req updatePointRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Description = strings.TrimSpace(req.Description)

	point, err := h.points.GetByID(id)
	if err != nil {
		h.logger.Error("get point failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update point")
		return
	}
	if point == nil {
		writeError(w, http.StatusNotFound, "point not found")
		return
	}

	if !h.canModify(r, point) {
		writeError(w, http.StatusForbidden, "you can only modify points you created")
		return
	}

	if !model.ValidCategory(point.PointType, req.Category) {
		writeError(w, http.StatusBadRequest, "invalid category for point type")
		return
	}
	if len(req.Description) > maxDescriptionLength {
		writeError(w, http.StatusBadRequest, "description is too long")
		return
	}

	updated, err := h.points.Update(id, req.Category, req.Description)
	if err != nil {
		h.logger.Error("update point failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update point")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	details := fmt.Sprintf("updated %s point for %s", point.PointType, point.MemberName)
	if err := h.activity.Record(model.ActionUpdate, model.TargetPoint, &id, details, &ac.UserID); err != nil {
		h.logger.Error("record point update failed", "error", err)
	}
	h.hub.Broadcast(websocket.NewEvent(websocket.EntityPoint, "updated", id))

	writeJSON(w, http.StatusOK, toPointJSON(*updated))
}

func (h *PointHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	point, err := h.points.GetByID(id)
	if err != nil {
		h.logger.Error("get point failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete point")
		return
	}
	if point == nil {
		writeError(w, http.StatusNotFound, "point not found")
		return
	}

	if !h.canModify(r, point) {
		writeError(w, http.StatusForbidden, "you can only delete points you created")
		return
	}

	if err := h.points.SoftDelete(id); err != nil {
		h.logger.Error("delete point failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete point")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	details := fmt.Sprintf("removed %s point for %s", point.PointType, point.MemberName)
	if err := h.activity.Record(model.ActionDelete, model.TargetPoint, &id, details, &ac.UserID); err != nil {
		h.logger.Error("record point delete failed", "error", err)
	}
	h.hub.Broadcast(websocket.NewEvent(websocket.EntityPoint, "deleted", id))

	writeJSON(w, http.StatusOK, map[string]string{"message": "point deleted"})
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// BulkDelete soft-deletes a batch of points in one call. Leaders only; the
// per-creator rule does not apply here.
func (h *PointHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return
	}

	deleted, err := h.points.BulkSoftDelete(req.IDs)
	if err != nil {
		h.logger.Error("bulk delete failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete points")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	for _, p := range deleted {
		details := fmt.Sprintf("removed %s point for %s", p.PointType, p.MemberName)
		if err := h.activity.Record(model.ActionDelete, model.TargetPoint, &p.ID, details, &ac.UserID); err != nil {
			h.logger.Error("record point delete failed", "error", err)
		}
		h.hub.Broadcast(websocket.NewEvent(websocket.EntityPoint, "deleted", p.ID))
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": len(deleted)})
}

// canModify enforces the ownership rule: leaders may touch any point, other
// roles only their own.
func (h *PointHandler) canModify(r *http.Request, p *model.Point) bool {
	if auth.IsLeader(r.Context()) {
		return true
	}
	return auth.UserID(r.Context()) == p.CreatedBy
}
