package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON shape of every error returned by the API.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorResponse writes an ErrorBody with statusCode and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	return WriteJSON(w, statusCode, ErrorBody{Error: errorCode, Message: message})
}

// WriteJSON writes data as JSON with statusCode and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}
