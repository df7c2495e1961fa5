// Package handlers exposes the hospital booking API over HTTP. Handlers are
// thin: they decode, call a store or service, and encode the response
// envelope. Business rules live in the service packages.
package handlers

import (
	"encoding/json"
	"net/http"
)

// envelope is the response shape every endpoint returns.
type envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Status: "success", Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Status: "error", Data: map[string]string{"message": message}})
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
