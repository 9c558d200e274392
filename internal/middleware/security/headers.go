package security

import (
	"net/http"
	"strconv"
	"strings"
)

// HeadersConfig lists the response headers set on every page. Empty
// values are left out.
type HeadersConfig struct {
	ContentSecurityPolicy []string
	FrameOptions          string
	ReferrerPolicy        string
	PermissionsPolicy     string
	CrossOriginPolicy     string

	// HSTSMaxAge is only sent on TLS connections; zero disables it.
	HSTSMaxAge int
}

// DefaultHeadersConfig allows htmx from unpkg and the inline SVG charts.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		ContentSecurityPolicy: []string{
			"default-src 'self'",
			"script-src 'self' https://unpkg.com",
			"style-src 'self' 'unsafe-inline'",
			"img-src 'self' data:",
			"object-src 'none'",
			"frame-ancestors 'none'",
			"base-uri 'self'",
			"form-action 'self'",
		},
		FrameOptions:      "DENY",
		ReferrerPolicy:    "same-origin",
		PermissionsPolicy: "camera=(), geolocation=(), microphone=(), payment=()",
		CrossOriginPolicy: "same-origin",
		HSTSMaxAge:        365 * 24 * 60 * 60,
	}
}

type HeadersMiddleware struct {
	static http.Header
	hsts   string
}

func NewHeadersMiddleware(cfg HeadersConfig) *HeadersMiddleware {
	h := http.Header{}
	set := func(name, value string) {
		if value != "" {
			h.Set(name, value)
		}
	}
	set("X-Content-Type-Options", "nosniff")
	set("X-Frame-Options", cfg.FrameOptions)
	set("Content-Security-Policy", strings.Join(cfg.ContentSecurityPolicy, "; "))
	set("Referrer-Policy", cfg.ReferrerPolicy)
	set("Permissions-Policy", cfg.PermissionsPolicy)
	set("Cross-Origin-Opener-Policy", cfg.CrossOriginPolicy)
	set("Cross-Origin-Resource-Policy", cfg.CrossOriginPolicy)

	m := &HeadersMiddleware{static: h}
	if cfg.HSTSMaxAge > 0 {
		m.hsts = "max-age=" + strconv.Itoa(cfg.HSTSMaxAge) + "; includeSubDomains"
	}
	return m
}

func (m *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := w.Header()
		for name, values := range m.static {
			out[name] = append([]string(nil), values...)
		}
		if r.TLS != nil && m.hsts != "" {
			out.Set("Strict-Transport-Security", m.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// NoStore keeps per-user pages out of shared and browser caches.
func NoStore(next http.Handler) http.Handler {
	return withCacheControl("no-store", next)
}

// StaticAssetMiddleware lets browsers keep embedded assets for maxAge seconds.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxAge <= 0 {
			return next
		}
		return withCacheControl("public, max-age="+strconv.Itoa(maxAge), next)
	}
}

func withCacheControl(value string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", value)
		next.ServeHTTP(w, r)
	})
}
