package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fyerfyer/motorsport-site/internal/content"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRedactBody(t *testing.T) {
	got := redactBody([]byte(`{"firstName":"Jane","email":"jane@example.com","phone":"555","recaptchaToken":"tok"}`))
	assert.Contains(t, got, `"firstName":"Jane"`)
	assert.Contains(t, got, `"email":"[redacted]"`)
	assert.Contains(t, got, `"phone":"[redacted]"`)
	assert.Contains(t, got, `"recaptchaToken":"[redacted]"`)
	assert.NotContains(t, got, "jane@example.com")

	assert.Equal(t, "<8 bytes>", redactBody([]byte("not json")))
}

func TestSetTraceID(t *testing.T) {
	r := gin.New()
	r.Use(SetTraceID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, TraceID(c))
	})

	t.Run("keeps incoming id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Trace-ID", "abc-123")
		r.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Body.String())
		assert.Equal(t, "abc-123", w.Header().Get("X-Trace-ID"))
	})

	t.Run("generates when missing or too long", func(t *testing.T) {
		for _, incoming := range []string{"", strings.Repeat("x", 100)} {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Trace-ID", incoming)
			r.ServeHTTP(w, req)
			assert.Len(t, w.Body.String(), 36)
			assert.Equal(t, w.Body.String(), w.Header().Get("X-Trace-ID"))
		}
	})
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		typ  string
		code int
	}{
		{"app error", NewValidationError("bad"), ErrorTypeValidation, http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("legal page: %w", content.ErrNotFound), ErrorTypeNotFound, http.StatusNotFound},
		{"content api", &content.APIError{StatusCode: 500, Type: "x", Description: "y"}, ErrorTypeUpstream, http.StatusBadGateway},
		{"other", errors.New("boom"), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			assert.Equal(t, tt.typ, got.Type)
			assert.Equal(t, tt.code, got.Code)
		})
	}
}

func TestErrorMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(SetTraceID(), ErrorMiddleware())
	r.GET("/missing", func(c *gin.Context) {
		HandleError(c, content.ErrNotFound)
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Content not found")
	assert.Contains(t, w.Body.String(), w.Header().Get("X-Trace-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "An unexpected error occurred")
}
