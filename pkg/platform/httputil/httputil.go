package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "market/pkg/domain-errors"
)

// externalizer is implemented by errors whose internal detail differs from
// what a client may see. WriteError renders the external form only.
type externalizer interface {
	External() error
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError is the single translation point from errors to HTTP responses.
// Uncoded errors become a bare 500 so internals never reach the client.
func WriteError(w http.ResponseWriter, err error) {
	var ext externalizer
	if errors.As(err, &ext) {
		err = ext.External()
	}

	code, ok := dErrors.CodeOf(err)
	if !ok {
		code = dErrors.CodeInternal
	}
	status := dErrors.ToHTTPStatus(code)

	body := errorBody{Error: string(code)}
	if status != http.StatusInternalServerError {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body.ErrorDescription = de.Message
		}
	} else {
		body.Error = string(dErrors.CodeInternal)
	}
	WriteJSON(w, status, body)
}

// DecodeJSON decodes the request body into dst. An empty or malformed body is
// a bad request; a body cut off by http.MaxBytesReader is too large.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return dErrors.New(dErrors.CodePayloadTooLarge, "request body too large")
		}
		if errors.Is(err, io.EOF) {
			return dErrors.New(dErrors.CodeBadRequest, "request body is required")
		}
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
