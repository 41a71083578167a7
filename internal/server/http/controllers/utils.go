package controllers

import (
	"encoding/json"
	"net/http"

	logpkg "github.com/rzbill/logship/pkg/log"
)

type errorResp struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes {"error": message} with the request id when one is set.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := errorResp{Error: message}
	if id, ok := r.Context().Value(logpkg.RequestIDKey).(string); ok {
		resp.RequestID = id
	}
	writeStatusJSON(w, status, resp)
}

// writeJSON writes a 200 JSON response.
func writeJSON(w http.ResponseWriter, data any) {
	writeStatusJSON(w, http.StatusOK, data)
}

func writeStatusJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeAccepted writes a 202 with no body.
func writeAccepted(w http.ResponseWriter) {
	w.WriteHeader(http.StatusAccepted)
}

// writeNoContent writes a 204 No Content response.
func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
