package helpers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"barter-exchange/internal/bartererrors"
	model "barter-exchange/internal/models"
	"barter-exchange/utils"

	"github.com/gin-gonic/gin"
)

// sessionKey is the gin context key holding the authenticated model.Session
const sessionKey = "barter.session"

// SetSession stores the authenticated session on the request context
func SetSession(c *gin.Context, s model.Session) {
	c.Set(sessionKey, s)
}

// SessionFromContext returns the authenticated session, or the zero Session
func SessionFromContext(c *gin.Context) model.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return model.Session{}
	}
	s, _ := v.(model.Session)
	return s
}

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, bartererrors.ErrSelfTrade):
		return http.StatusBadRequest, "self-trade is not allowed"
	case errors.Is(err, bartererrors.ErrEmptySelection):
		return http.StatusBadRequest, "both sides of a trade need at least one item"
	case errors.Is(err, bartererrors.ErrItemUnavailable):
		return http.StatusBadRequest, "item unavailable"
	case errors.Is(err, bartererrors.ErrValidation):
		return http.StatusBadRequest, "invalid barter request"
	case errors.Is(err, bartererrors.ErrEquityThreshold):
		return http.StatusUnprocessableEntity, "trade is too unbalanced"
	case errors.Is(err, bartererrors.ErrNoSession):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, bartererrors.ErrUnauthorized):
		return http.StatusForbidden, "not allowed to perform this action"
	case errors.Is(err, bartererrors.ErrStateConflict):
		return http.StatusConflict, "proposal state does not allow this action"
	case errors.Is(err, bartererrors.ErrProposalNotFound):
		return http.StatusNotFound, "proposal not found"
	case errors.Is(err, bartererrors.ErrProductNotFound):
		return http.StatusNotFound, "product not found"
	case errors.Is(err, bartererrors.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, bartererrors.ErrUpstream):
		return http.StatusBadGateway, "upstream service failure"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// HandleServiceError maps err, sends the error envelope and logs it
func HandleServiceError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["status"] = status
	fields["error"] = err.Error()

	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": "+message, fields)
		return
	}
	utils.Warn(handlerName+": "+message, fields)
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
