package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mindhaven/internal/completion"
	"mindhaven/internal/service/conversation"
)

// errorResponse maps service and completion errors onto a status and a
// message that is safe to return to the browser.
func errorResponse(err error) (int, string) {
	var cfgErr *completion.ConfigError
	var gwErr *completion.GatewayError
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError, "API key not configured"
	case errors.As(err, &gwErr):
		return gwErr.HTTPStatus(), "upstream API error: " + gwErr.Message
	case errors.Is(err, completion.ErrInvalidUpstreamFormat):
		return http.StatusInternalServerError, "Invalid response format from upstream - missing response field"
	case errors.Is(err, completion.ErrUnknownKind):
		return http.StatusBadRequest, "type must be reply or summary"
	case errors.Is(err, conversation.ErrEmptyMessage),
		errors.Is(err, conversation.ErrMissingCredentials):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, conversation.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, conversation.ErrUsernameTaken):
		return http.StatusConflict, err.Error()
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (h *Handler) writeError(c *gin.Context, err error, extra gin.H) {
	status, msg := errorResponse(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	body := gin.H{"error": msg}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}
