package server

import (
	"net/http"
	"strings"
)

// SecurityConfig controls the security middleware: response hardening headers
// and cross-origin access.
type SecurityConfig struct {
	// EnableCORS toggles cross-origin response headers.
	EnableCORS bool
	// AllowedOrigins lists the origins granted access. "*" matches any.
	AllowedOrigins []string
	// AllowedMethods lists the methods advertised in CORS responses.
	AllowedMethods []string
}

// DefaultSecurityConfig returns the default security posture: CORS open to
// any origin, restricted to the methods the API actually serves.
//
// Returns:
//   - SecurityConfig: The default configuration.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}
}

// SecurityMiddleware wraps next with hardening headers, CORS handling and
// OPTIONS preflight short-circuiting.
//
// Parameters:
//   - config: The security configuration.
//   - next: The handler to wrap.
//
// Returns:
//   - http.HandlerFunc: The wrapped handler.
func SecurityMiddleware(config SecurityConfig, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if config.EnableCORS {
			if origin := allowedOrigin(config.AllowedOrigins, r.Header.Get("Origin")); origin != "" {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				h.Set("Access-Control-Allow-Headers", "Content-Type")
				h.Set("Access-Control-Max-Age", "86400")
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// allowedOrigin resolves the Access-Control-Allow-Origin value for a request
// origin, or "" when access is not granted. The wildcard matches even when
// the request carries no Origin header.
func allowedOrigin(allowed []string, origin string) string {
	for _, candidate := range allowed {
		if candidate == "*" {
			return "*"
		}
		if origin != "" && candidate == origin {
			return origin
		}
	}
	return ""
}
