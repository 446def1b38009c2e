package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestValidate(t *testing.T) {
	svc := NewService("secret")
	if !svc.Enabled() {
		t.Fatalf("expected service to be enabled")
	}
	if err := svc.Validate("secret"); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if err := svc.Validate(""); err != ErrMissingKey {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
	if err := svc.Validate("secreT"); err != ErrInvalidKey {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestDisabledServiceAcceptsAnything(t *testing.T) {
	svc := NewService("  ")
	if svc.Enabled() {
		t.Fatalf("blank key should disable auth")
	}
	if err := svc.Validate(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewService("secret").Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	cases := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"no key", nil, http.StatusUnauthorized},
		{"bearer", map[string]string{"Authorization": "Bearer secret"}, http.StatusNoContent},
		{"lowercase bearer", map[string]string{"Authorization": "bearer secret"}, http.StatusNoContent},
		{"api key header", map[string]string{"X-API-Key": "secret"}, http.StatusNoContent},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"basic auth", map[string]string{"Authorization": "Basic c2VjcmV0"}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}
