package middleware

import (
	"github.com/go-chi/cors"
)

// CORS returns cors.Options for the patient-facing clients. If "*" is
// present, AllowCredentials is set to false (browsers reject
// Access-Control-Allow-Credentials: true with a wildcard origin).
func CORS(allowedOrigins []string) cors.Options {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	allowCreds := true
	for _, o := range allowedOrigins {
		if o == "*" {
			allowCreds = false
			break
		}
	}

	return cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "Retry-After"},
		AllowCredentials: allowCreds,
		MaxAge:           300,
	}
}
