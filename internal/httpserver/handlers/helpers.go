package handlers

import (
	"encoding/json"
	"net/http"
)

// maxBodyBytes caps request bodies. Archives carry inline images, so the
// limit is generous relative to the 10 MiB storage quota.
const maxBodyBytes = 32 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
