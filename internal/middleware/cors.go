package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS allows cross-origin requests from the given origins; "*" allows any origin.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowAny := false
	allowed := make(map[string]struct{}, len(allowedOrigins))

	for _, o := range allowedOrigins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAny = true
		}

		allowed[o] = struct{}{}
	}

	return func(gctx *gin.Context) {
		origin := gctx.GetHeader("Origin")
		if origin != "" {
			_, ok := allowed[origin]
			if allowAny || ok {
				gctx.Header("Access-Control-Allow-Origin", origin)
				gctx.Header("Vary", "Origin")
				gctx.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				gctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
				gctx.Header("Access-Control-Expose-Headers", RequestIDHeader)
			}
		}

		if gctx.Request.Method == http.MethodOptions {
			gctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		gctx.Next()
	}
}
