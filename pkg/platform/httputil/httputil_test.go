package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "market/pkg/domain-errors"
)

type hiddenErr struct{ internal string }

func (e hiddenErr) Error() string { return e.internal }
func (e hiddenErr) External() error {
	return dErrors.New(dErrors.CodeInvalidCredential, "invalid credential")
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
		body := decode(t, w)
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("uncoded error becomes a bare 500", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("pq: relation accounts does not exist"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
		if strings.Contains(w.Body.String(), "relation") {
			t.Fatalf("internal detail leaked: %s", w.Body.String())
		}
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
		body := decode(t, w)
		if body["error"] != "bad_request" {
			t.Fatalf("expected error code bad_request, got %q", body["error"])
		}
		if body["error_description"] != "invalid input" {
			t.Fatalf("expected error_description to be returned for bad request")
		}
	})

	t.Run("externalizer renders only the external form", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, hiddenErr{internal: "subject_not_found"})

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
		body := decode(t, w)
		if body["error"] != "invalid_credential" {
			t.Fatalf("expected invalid_credential, got %q", body["error"])
		}
		if strings.Contains(w.Body.String(), "subject_not_found") {
			t.Fatalf("internal kind leaked: %s", w.Body.String())
		}
	})
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ann"}`))
	if err := DecodeJSON(r, &dst); err != nil || dst.Name != "Ann" {
		t.Fatalf("expected decode to succeed, got %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := DecodeJSON(r, &dst); !dErrors.HasCode(err, dErrors.CodeBadRequest) {
		t.Fatalf("expected bad_request for empty body, got %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{bad"))
	if err := DecodeJSON(r, &dst); !dErrors.HasCode(err, dErrors.CodeBadRequest) {
		t.Fatalf("expected bad_request for malformed body, got %v", err)
	}
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("a", 256)+`"}`))
	r.Body = http.MaxBytesReader(httptest.NewRecorder(), r.Body, 32)
	err := DecodeJSON(r, &dst)
	if !dErrors.HasCode(err, dErrors.CodePayloadTooLarge) {
		t.Fatalf("expected payload_too_large for oversized body, got %v", err)
	}
	if got := dErrors.ToHTTPStatus(dErrors.CodePayloadTooLarge); got != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", got)
	}
}
