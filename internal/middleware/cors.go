package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the dashboard frontends in origins.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Correlation-ID"},
		ExposedHeaders:   []string{"X-Correlation-ID", "X-Store-Degraded"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
