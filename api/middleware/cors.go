package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var devCORSOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
}

// CORS returns middleware that applies the API's allowed origin policy. The
// configured client origin is appended to the local dev defaults.
func CORS(clientOrigin string) func(http.Handler) http.Handler {
	origins := append([]string{}, devCORSOrigins...)
	if clientOrigin != "" {
		origins = append(origins, clientOrigin)
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Production-Id", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
