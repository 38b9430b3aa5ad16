// Package httputil holds the JSON response helpers shared by every handler.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "enroll/pkg/domain-errors"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error               string `json:"error"`
	ErrorDescription    string `json:"error_description,omitempty"`
	UpstreamStatus      int    `json:"upstream_status,omitempty"`
	UpstreamDescription string `json:"upstream_description,omitempty"`
}

// Validatable is implemented by request DTOs that check their own fields.
type Validatable interface {
	Validate() error
}

// Preparable is implemented by request DTOs that normalize input before validation.
type Preparable interface {
	Normalize()
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to its HTTP status and JSON body.
// Errors without a domain code are reported as internal errors.
func WriteError(w http.ResponseWriter, err error) {
	de, ok := dErrors.As(err)
	if !ok {
		de = dErrors.New(dErrors.CodeInternal, "internal server error")
	}

	resp := ErrorResponse{Error: string(de.Code)}
	if de.Code != dErrors.CodeInternal {
		resp.ErrorDescription = de.Message
	}
	if de.Upstream != nil {
		resp.UpstreamStatus = de.Upstream.Status
		resp.UpstreamDescription = de.Upstream.Description
	}
	WriteJSON(w, StatusFor(de), resp)
}

// StatusFor returns the HTTP status for a domain error.
func StatusFor(de *dErrors.Error) int {
	switch de.Code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeUpstreamGateway:
		if de.Upstream != nil && de.Upstream.Status >= 400 && de.Upstream.Status <= 599 {
			return de.Upstream.Status
		}
		return http.StatusBadGateway
	case dErrors.CodeUpstreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DecodeAndPrepare decodes a JSON body into T, normalizes and validates it.
// Decoding failures are reported as bad_request; validation failures keep their code.
func DecodeAndPrepare[T any](r *http.Request) (*T, error) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	if p, ok := any(&req).(Preparable); ok {
		p.Normalize()
	}
	if v, ok := any(&req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return &req, nil
}
