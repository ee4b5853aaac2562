package utils

import (
	"net/http"

	"github.com/goccy/go-json"
)

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// ErrorResponse is the failure body of the order endpoints. ResponseBody
// carries the commerce platform's raw reply when one was received.
type ErrorResponse struct {
	Error        string `json:"error"`
	ResponseBody string `json:"response_body,omitempty"`
}

func WriteErrorBody(w http.ResponseWriter, status int, message, responseBody string) {
	WriteJSON(w, status, ErrorResponse{Error: message, ResponseBody: responseBody})
}
