package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

const corsMaxAge = 300

// CORS allows the listed origins. "*" admits any origin but never with
// credentials.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := make([]string, 0, len(allowedOrigins))
	wildcard := false
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if o == "*" {
			wildcard = true
		}
		origins = append(origins, o)
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: !wildcard,
		MaxAge:           corsMaxAge,
	})
}
