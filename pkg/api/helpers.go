// Package api holds the JSON response envelope the loopback facade
// speaks to the app shell.
package api

import (
	"encoding/json"
	"net/http"
)

// Success writes the status code and, when data is non-nil, its JSON
// encoding. Callers pass nil data for 204-style responses.
func Success(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes the status code and an {"error": message} body. Every
// failure the facade reports goes through this one shape so the app
// shell has a single error contract to parse.
func Error(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
