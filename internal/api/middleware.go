package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"recipebox/internal/apperr"
	"recipebox/internal/logger"
	"recipebox/internal/metrics"
)

const authUIDKey = "auth_uid"

// TokenVerifier verifies Firebase ID tokens; *auth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Recovery turns panics into a generic 500 response.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("Panic recovered", "panic", recovered, "method", c.Request.Method, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	})
}

// RequestMetrics records request counts and latencies by route.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordAPIRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// FirebaseAuth requires a valid "Authorization: Bearer <ID token>" header and stores the
// verified uid for ownership checks.
func FirebaseAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		idToken, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(idToken) == "" {
			respondError(c, apperr.ErrUnauthorized)
			c.Abort()
			return
		}

		token, err := verifier.VerifyIDToken(c.Request.Context(), strings.TrimSpace(idToken))
		if err != nil {
			logger.Warn("ID token rejected", "path", c.FullPath(), "error", err)
			respondError(c, apperr.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(authUIDKey, token.UID)
		c.Next()
	}
}

// checkOwner fails with 403 when the request is authenticated as someone other than uid.
// Without authentication every uid is accepted.
func checkOwner(c *gin.Context, uid string) error {
	if authUID := c.GetString(authUIDKey); authUID != "" && authUID != uid {
		return apperr.ErrForbidden
	}
	return nil
}
