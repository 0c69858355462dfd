package common

import (
	"encoding/json"
	"net/http"
)

// StatusSuccess is the status field of every successful response
const StatusSuccess = "success"

// Envelope is the JSON body of an API response: a status field plus
// endpoint-specific fields at the top level.
type Envelope map[string]interface{}

// Success builds a success envelope with an optional message
func Success(message string) Envelope {
	env := Envelope{"status": StatusSuccess}
	if message != "" {
		env["message"] = message
	}
	return env
}

// With adds a field and returns the envelope for chaining
func (e Envelope) With(key string, value interface{}) Envelope {
	e[key] = value
	return e
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, body interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}
