package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/atendimento/crm-dashboard/internal/service"
)

// degradedHeader is set on list responses served empty because the store
// failed. Clients should treat such a response as "try again".
const degradedHeader = "X-Store-Degraded"

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeServiceError maps a service error onto its status code.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeList writes a list result, flagging it when the store degraded.
func writeList(w http.ResponseWriter, v interface{}, outcome service.Outcome) {
	if outcome == service.Unavailable {
		w.Header().Set(degradedHeader, "true")
	}
	writeJSON(w, http.StatusOK, v)
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func queryInt(r *http.Request, key string) int {
	if v := r.URL.Query().Get(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return 0
}
