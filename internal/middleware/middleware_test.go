package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "groupagg/internal/errors"
	"groupagg/internal/infrastructure"
	"groupagg/internal/shared/testutil"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func newErrorHandler(t *testing.T) *apierrors.ErrorHandler {
	logger, _ := testutil.NewTestLogger(t)
	return apierrors.NewErrorHandler(logger, false)
}

func TestRequestID(t *testing.T) {
	var seen, traceID string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		traceID = infrastructure.GetTraceID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		id := w.Header().Get(RequestIDHeader)
		require.NotEmpty(t, id)
		assert.Equal(t, id, seen)
		assert.Equal(t, id, traceID)
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "req-42", seen)
	})
}

func TestRateLimiter(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	rl := NewRateLimiter(0.001, 1, logger, apierrors.NewErrorHandler(logger, false))
	h := rl.Handler(http.HandlerFunc(okHandler))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.True(t, handler.ContainsMessage("rate limit exceeded"))
}

func TestTimeout(t *testing.T) {
	tests := []struct {
		name         string
		timeout      time.Duration
		wantDeadline bool
	}{
		{"bounded", time.Second, true},
		{"disabled", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hasDeadline bool
			h := Timeout(tt.timeout)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, hasDeadline = r.Context().Deadline()
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.wantDeadline, hasDeadline)
		})
	}
}

func TestBodyLimit(t *testing.T) {
	var readErr error
	h := BodyLimit(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))

	var maxErr *http.MaxBytesError
	require.True(t, errors.As(readErr, &maxErr))
	assert.Equal(t, int64(4), maxErr.Limit)
}

func TestCORS(t *testing.T) {
	h := CORS(CORSConfig{AllowedOrigins: []string{"https://app.example.com"}})(http.HandlerFunc(okHandler))

	tests := []struct {
		name       string
		method     string
		origin     string
		wantOrigin string
		wantCode   int
	}{
		{"allowed origin", http.MethodPost, "https://app.example.com", "https://app.example.com", http.StatusOK},
		{"foreign origin", http.MethodPost, "https://evil.example.com", "", http.StatusOK},
		{"preflight", http.MethodOptions, "https://app.example.com", "https://app.example.com", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "300", w.Header().Get("Access-Control-Max-Age"))
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(okHandler)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

type aggregateBody struct {
	GroupBy  []string `json:"group_by" validate:"required,min=1,dive,required"`
	Compute  []string `json:"compute" validate:"required,min=1,dive,computespec"`
	Ordering string   `json:"ordering" validate:"omitempty,ordering"`
	Format   string   `json:"format" validate:"omitempty,format"`
}

func TestValidator_ValidateStruct(t *testing.T) {
	v := NewValidator(nil)

	tests := []struct {
		name      string
		body      aggregateBody
		wantField string
	}{
		{"valid", aggregateBody{GroupBy: []string{"continent"}, Compute: []string{"max:lifeExp"}, Ordering: "levels", Format: "csv"}, ""},
		{"linear fit with shift", aggregateBody{GroupBy: []string{"country"}, Compute: []string{"linfit:lifeExp:year:1952"}}, ""},
		{"missing group", aggregateBody{Compute: []string{"count"}}, "group_by"},
		{"bad compute", aggregateBody{GroupBy: []string{"g"}, Compute: []string{"mode:x"}}, "compute[0]"},
		{"bad ordering", aggregateBody{GroupBy: []string{"g"}, Compute: []string{"count"}, Ordering: "random"}, "ordering"},
		{"bad format", aggregateBody{GroupBy: []string{"g"}, Compute: []string{"count"}, Format: "pdf"}, "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(&tt.body)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

			fields, ok := apiErr.Details.([]apierrors.ValidationError)
			require.True(t, ok)
			require.NotEmpty(t, fields)
			assert.Equal(t, tt.wantField, fields[0].Field)
		})
	}
}

func TestContentTypeValidator(t *testing.T) {
	h := ContentTypeValidator(newErrorHandler(t), "application/json")(http.HandlerFunc(okHandler))

	tests := []struct {
		name        string
		method      string
		contentType string
		wantCode    int
	}{
		{"json", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"missing", http.MethodPost, "", http.StatusBadRequest},
		{"unsupported", http.MethodPost, "text/plain", http.StatusUnsupportedMediaType},
		{"get skips check", http.MethodGet, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestQueryParamValidator(t *testing.T) {
	q := NewQueryParamValidator(newErrorHandler(t))

	tests := []struct {
		query  string
		want   int
		wantOK bool
	}{
		{"", -1, true},
		{"precision=3", 3, true},
		{"precision=16", 0, false},
		{"precision=x", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			got, ok := q.ValidateInt(w, httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil), "precision", -1, 15, -1)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			} else {
				assert.Equal(t, http.StatusBadRequest, w.Code)
			}
		})
	}

	w := httptest.NewRecorder()
	got, ok := q.ValidateEnum(w, httptest.NewRequest(http.MethodGet, "/?ordering=sorted", nil),
		"ordering", []string{"appearance", "sorted", "levels"}, "appearance")
	assert.True(t, ok)
	assert.Equal(t, "sorted", got)
}

func TestOTelMiddleware(t *testing.T) {
	m, err := NewOTelMiddleware(nil)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/7", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
