package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the back-office frontends listed in ALLOWED_ORIGINS.
// A "*" entry allows any origin without credentials.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	for _, o := range allowedOrigins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cors.New(cfg)
		}
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cors.New(cfg)
	}

	cfg.AllowOrigins = allowedOrigins
	return cors.New(cfg)
}
