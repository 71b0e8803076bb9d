package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jwaldner/bsmpricer/internal/logger"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// writeJSON pre-encodes the response so an encoding failure can still become a 500
func writeJSON(w http.ResponseWriter, status int, response interface{}) {
	jsonBytes, err := json.Marshal(response)
	if err != nil {
		logger.WithComponent("handlers").Errorf("JSON encoding failed: %v", err)
		http.Error(w, "JSON encoding failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(jsonBytes)))
	w.WriteHeader(status)
	if _, err := w.Write(jsonBytes); err != nil {
		logger.WithComponent("handlers").Errorf("Failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Status: "error", Message: message})
}
