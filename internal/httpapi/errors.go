package httpapi

import (
	"encoding/json"
	"net/http"

	"koboldd/pkg/types"
)

// KoboldAI error types carried in detail.type.
const (
	errTypeUnavailable = "service_unavailable"
	errTypeServer      = "server_error"
	errTypeValidation  = "validation_error"
	errTypeNotFound    = "not_found"
)

// Client-facing messages. Runner stderr and exit codes never reach the body.
const (
	msgBusy       = "Server is busy; please try again later."
	msgGenerate   = "Error generating response."
	msgTimeout    = "Generation timed out."
	msgBadJSON    = "Invalid request body."
	msgTooLarge   = "Request body too large."
	msgNotJSON    = "Content-Type must be application/json"
	msgNotFound   = "Not found."
	msgNotAllowed = "Method not allowed."
)

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeKoboldError writes a KoboldAI style {"detail":{"msg","type"}} payload.
func writeKoboldError(w http.ResponseWriter, status int, msg, typ string) {
	writeJSON(w, status, types.ErrorResponse{Detail: types.ErrorDetail{Msg: msg, Type: typ}})
}
