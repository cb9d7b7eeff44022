package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveSecured(opt SecurityOptions, prep func(*gin.Context), mutate func(*http.Request)) http.Header {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if prep != nil {
		r.Use(func(c *gin.Context) { prep(c); c.Next() })
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/movies", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/movies", nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	h := serveSecured(SecurityOptions{}, nil, nil)
	if h.Get("X-Content-Type-Options") != "nosniff" ||
		h.Get("X-Frame-Options") != "DENY" ||
		h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("baseline headers missing: %#v", h)
	}
	for _, k := range []string{"Permissions-Policy", "Cache-Control", "Strict-Transport-Security", "Access-Control-Expose-Headers"} {
		if h.Get(k) != "" {
			t.Fatalf("unexpected %s: %q", k, h.Get(k))
		}
	}
}

func TestSecurityHeaders_ExposeRequestID(t *testing.T) {
	cases := []struct {
		name, existing, want string
	}{
		{"added", "", requestIDHeader},
		{"appended", "ETag", "ETag, " + requestIDHeader},
		{"not duplicated", requestIDHeader + ", ETag", requestIDHeader + ", ETag"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := serveSecured(SecurityOptions{}, func(c *gin.Context) {
				c.Header(requestIDHeader, "rid-1")
				if tc.existing != "" {
					c.Header("Access-Control-Expose-Headers", tc.existing)
				}
			}, nil)
			if got := h.Get("Access-Control-Expose-Headers"); got != tc.want {
				t.Fatalf("expose = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestSecurityHeaders_NoStoreAndPolicy(t *testing.T) {
	h := serveSecured(SecurityOptions{NoStore: true, EnablePolicy: true}, nil, nil)
	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Fatalf("missing cache headers: %#v", h)
	}
	if h.Get("Permissions-Policy") == "" || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("missing policy headers: %#v", h)
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	viaTLS := func(r *http.Request) { r.TLS = &tls.ConnectionState{} }
	viaProxy := func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "HTTPS") }

	if got := serveSecured(SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour}, nil, viaTLS).
		Get("Strict-Transport-Security"); got != "max-age=86400; includeSubDomains; preload" {
		t.Fatalf("HSTS over TLS = %q", got)
	}
	if got := serveSecured(SecurityOptions{EnableHSTS: true}, nil, viaProxy).
		Get("Strict-Transport-Security"); got != "max-age=15552000; includeSubDomains; preload" {
		t.Fatalf("HSTS default max-age via proxy = %q", got)
	}
	if got := serveSecured(SecurityOptions{EnableHSTS: true}, nil, nil).Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("HSTS must not be sent over plain HTTP, got %q", got)
	}
}
