package webhook

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}

// internalError logs the full error and sends only publicMsg to the
// caller.
func internalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, publicMsg string) {
	logger.Error(publicMsg,
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", requestID(r),
	)
	writeError(w, http.StatusInternalServerError, publicMsg)
}
