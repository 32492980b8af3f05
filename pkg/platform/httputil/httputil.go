// Package httputil maps domain errors onto HTTP responses so handlers stay
// free of status-code bookkeeping.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	derrors "entgate/pkg/domain-errors"
)

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func statusFor(code derrors.Code) int {
	switch code {
	case derrors.CodeValidation, derrors.CodeInvalidInput, derrors.CodeBadRequest:
		return http.StatusBadRequest
	case derrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case derrors.CodeForbidden:
		return http.StatusForbidden
	case derrors.CodeNotFound:
		return http.StatusNotFound
	case derrors.CodeConflict, derrors.CodeInvariantViolation:
		return http.StatusConflict
	case derrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders a coded error as JSON. Internal errors omit the
// description so storage details never leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)
	body := errorBody{Error: string(code)}
	var de *derrors.Error
	if code != derrors.CodeInternal && errors.As(err, &de) {
		body.Description = de.Message()
	}
	WriteJSON(w, statusFor(code), body)
}

// WriteJSON renders v with the given status. Encoding failures are dropped;
// by then the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
