package controllers

import (
	"errors"
	json "github.com/goccy/go-json"
	"net/http"
	"statpulse/internal/models"
	"statpulse/internal/session"
)

const maxProtocolBodySize = 8 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, gson)
}

func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError maps protocol errors to their status codes.
func writeError(w http.ResponseWriter, err error) {
	var conflict *session.ConflictError
	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: err.Error(), CurrentSessionID: conflict.CurrentID})
	case errors.Is(err, session.ErrMissingID):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: session.ErrMissingID.Error()})
	case errors.Is(err, session.ErrUnrecognized):
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: session.ErrUnrecognized.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal Server Error"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return json.NewDecoder(r.Body).Decode(v)
}
