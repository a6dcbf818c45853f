package api

import (
	"encoding/json"
	"net/http"
)

// Test reports that the server is up
func Test(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Server is running!"})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondJSONError writes the {"error": ...} envelope the payment routes use
func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondJSONDetails writes {"error": ..., "details": ...}
func respondJSONDetails(w http.ResponseWriter, message, details string, status int) {
	respondJSON(w, status, map[string]string{"error": message, "details": details})
}

// respondMessage writes the {"message": ...} envelope the auth routes use
func respondMessage(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"message": message})
}
