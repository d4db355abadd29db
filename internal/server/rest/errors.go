package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/moodjournal/internal/common"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

// writeError maps service errors onto status codes. Anything unrecognised is
// logged and returned as an opaque 500.
func (s *RESTServer) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		abortWithError(c, http.StatusBadRequest, "invalid request")
	case errors.Is(err, common.ErrorUnauthorized):
		abortWithError(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, common.ErrorAlreadyExists):
		abortWithError(c, http.StatusConflict, "username already exists")
	case errors.Is(err, common.ErrorRateLimited):
		abortWithError(c, http.StatusTooManyRequests, "too many requests")
	case errors.Is(err, common.ErrorNotConfigured):
		abortWithError(c, http.StatusNotImplemented, "not available")
	default:
		s.logger.Error(c.Request.Context(), "request failed",
			"path", c.Request.URL.Path,
			"request_id", c.GetString(ctxRequestID),
			"error", err,
		)
		abortWithError(c, http.StatusInternalServerError, "internal server error")
	}
}
