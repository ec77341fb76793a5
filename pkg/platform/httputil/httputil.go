// Package httputil centralizes JSON encoding and domain error translation so
// every handler serves the same envelope shape.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "carbonregistry/pkg/domain-errors"
)

// WriteJSON serves v with the given status. Encoding failures are swallowed;
// by the time they can occur the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a coded domain error to its HTTP status and a small
// JSON envelope. Uncoded errors surface as internal.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	message := "internal error"
	var de *dErrors.Error
	if errors.As(err, &de) {
		code = de.Code
		message = de.Message
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":   string(code),
		"message": message,
	})
}

// Decode parses a JSON request body into T. On failure it writes a validation
// envelope and reports false so handlers can return immediately.
func Decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "malformed JSON body"))
		return v, false
	}
	return v, true
}
