package handlers

import (
	"encoding/json"
	"net/http"

	"billbridge/internal/provider"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps a provider error code onto an HTTP status. Anything
// unrecognized is treated as an upstream failure.
func statusFor(e *provider.ProviderError) int {
	if e == nil {
		return http.StatusOK
	}
	switch e.Code {
	case provider.ErrNotFound:
		return http.StatusNotFound
	case provider.ErrValidationFailed, provider.ErrInvalidCategory:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
