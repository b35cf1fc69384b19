package handler

import (
	"net/http"

	"meritboard/internal/model"
)

// Categories returns the fixed category lists. List order is significant: the
// negative list is a priority ranking and clients must render it as given.
func Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"positive": model.PositiveCategories,
		"negative": model.NegativeCategories,
	})
}

// Roles returns the assignable roles in permission order.
func Roles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"roles": model.Roles})
}
