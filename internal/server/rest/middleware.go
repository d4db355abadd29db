package rest

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/moodjournal/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ctxRequestID = "request_id"
	ctxUserID    = "userID"
	ctxUserName  = "userName"

	requestIDHeader = "X-Request-ID"
)

// requestID tags every request with an id, reusing a sane inbound one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *RESTServer) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(ctxRequestID),
			"user_id", c.GetString(ctxUserID),
		)
	}
}

// bearerAuth answers 401 when no token is presented and 403 when the token
// is invalid or expired. The reason is logged, never returned.
func (s *RESTServer) bearerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			abortWithError(c, http.StatusUnauthorized, "access denied, no token provided")
			return
		}

		claims, err := s.verifier.Verify(token)
		if err != nil {
			reason := "invalid"
			if errors.Is(err, common.ErrTokenExpired) {
				reason = "expired"
			}
			s.logger.Warn(c.Request.Context(), "token rejected", "reason", reason, "request_id", c.GetString(ctxRequestID))
			abortWithError(c, http.StatusForbidden, "invalid or expired token")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserName, claims.UserName)
		c.Next()
	}
}
