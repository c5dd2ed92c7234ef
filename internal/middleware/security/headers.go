package security

import (
	"net/http"

	"github.com/unrolled/secure"

	applog "madrassa/internal/log"
)

// HeadersConfig holds the security header settings for the JSON API.
type HeadersConfig struct {
	// HSTS is only sent on TLS requests.
	HSTSMaxAge            int64
	HSTSIncludeSubdomains bool
	SSLRedirect           bool
	IsDevelopment         bool
}

func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
	}
}

// Headers returns middleware that applies the security headers.
func Headers(cfg HeadersConfig) func(http.Handler) http.Handler {
	sec := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), payment=()",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		STSSeconds:            cfg.HSTSMaxAge,
		STSIncludeSubdomains:  cfg.HSTSIncludeSubdomains,
		SSLRedirect:           cfg.SSLRedirect,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         cfg.IsDevelopment,
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sec.Process(w, r); err != nil {
				applog.FromContext(r.Context()).WarnContext(r.Context(), "Secure headers blocked request",
					applog.FieldError, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
