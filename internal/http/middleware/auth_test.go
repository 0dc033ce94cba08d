package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/club-portal-backend/internal/auth"
)

func authRouter(t *testing.T, mw func(TokenParser) gin.HandlerFunc) (*gin.Engine, *auth.TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tm := auth.NewTokenManager("test-secret", "club-portal", time.Hour)
	r := gin.New()
	r.Use(RequestID())
	r.Use(mw(tm))
	r.GET("/who", func(c *gin.Context) {
		uid, _ := UserIDFrom(c)
		c.String(http.StatusOK, uid)
	})
	return r, tm
}

func TestAuthenticate(t *testing.T) {
	r, tm := authRouter(t, Authenticate)
	tok, err := tm.Issue("athlete-1", "Ana")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := []struct {
		name   string
		prep   func(*http.Request)
		status int
		body   string
	}{
		{"no token", func(*http.Request) {}, http.StatusUnauthorized, ""},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, ""},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+tok) }, http.StatusUnauthorized, ""},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "bearer "+tok) }, http.StatusOK, "athlete-1"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tok}) }, http.StatusOK, "athlete-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			tc.prep(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("status = %d; want %d", w.Code, tc.status)
			}
			if tc.status == http.StatusOK && w.Body.String() != tc.body {
				t.Fatalf("body = %q; want %q", w.Body.String(), tc.body)
			}
			if tc.status == http.StatusUnauthorized && !strings.Contains(w.Body.String(), codeAuthRequired) {
				t.Fatalf("missing code in %s", w.Body.String())
			}
		})
	}
}

func TestIdentify_AnonymousPassesThrough(t *testing.T) {
	r, _ := authRouter(t, Identify)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/who", nil))
	if w.Code != http.StatusOK || w.Body.String() != "" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}

func TestBearerToken(t *testing.T) {
	if bearerToken("Bearer  abc ") != "abc" {
		t.Fatal("expected trimmed token")
	}
	if bearerToken("Bearer") != "" || bearerToken("") != "" {
		t.Fatal("expected empty token")
	}
}
