// Package transport contains the HTTP router, middleware chain, and the
// request handlers of the dealdesk API.
package transport

import (
	"encoding/json"
	"net/http"

	"github.com/latmedia/dealdesk/model"
)

// statusForCode maps error codes to HTTP status codes.
var statusForCode = map[string]int{
	model.ErrBadRequest:         http.StatusBadRequest,
	model.ErrNotFound:           http.StatusNotFound,
	model.ErrConflict:           http.StatusConflict,
	model.ErrValidationError:    http.StatusUnprocessableEntity,
	model.ErrInternalError:      http.StatusInternalServerError,
	model.ErrBackendUnavailable: http.StatusBadGateway,
	model.ErrBackendTimeout:     http.StatusGatewayTimeout,
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// WriteResult writes an OperationResult. The body always carries the
// operation envelope; the HTTP status mirrors the originating error code,
// or 200 on success.
func WriteResult(w http.ResponseWriter, result model.OperationResult) {
	status := http.StatusOK
	if !result.Succeeded() {
		status = statusForCode[result.Code]
		if status == 0 {
			status = http.StatusInternalServerError
		}
	}
	WriteJSON(w, status, result)
}

// WriteError writes an error as an ERROR operation envelope.
func WriteError(w http.ResponseWriter, err error) {
	WriteResult(w, model.ErrorResult(err))
}
