package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rfosterdev/chorebank/internal/auth"
	"github.com/rfosterdev/chorebank/internal/store"
)

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeEngineError maps the error taxonomy onto HTTP responses. Insufficient
// balance is an expected, frequent outcome and gets a friendly rejection;
// not-found on approve/reject is a benign race and reads as already handled.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInsufficientBalance):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "not enough points"})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, auth.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
