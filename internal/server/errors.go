package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/localrivet/reporeader/internal/errortypes"
)

// ErrorResponse represents the structure of error responses sent by the API
type ErrorResponse struct {
	Status  string                 `json:"status"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Common error codes
const (
	// ErrorCodeInvalidRequest indicates the client sent an invalid request
	ErrorCodeInvalidRequest = "INVALID_REQUEST"

	// ErrorCodeInternalError indicates an internal server error
	ErrorCodeInternalError = "INTERNAL_ERROR"

	// ErrorCodeResourceNotFound indicates a requested resource was not found
	ErrorCodeResourceNotFound = "RESOURCE_NOT_FOUND"

	// ErrorCodeRateLimited indicates the upstream quota is exhausted
	ErrorCodeRateLimited = "RATE_LIMITED"

	// ErrorCodeBadGateway indicates a failure in an upstream service
	ErrorCodeBadGateway = "BAD_GATEWAY"
)

// writeErrorResponse writes a structured error response and aborts the request.
func writeErrorResponse(c *gin.Context, status int, code, message string, err error) {
	errResp := ErrorResponse{
		Status:  "error",
		Code:    code,
		Message: message,
	}

	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
		var appErr *errortypes.AppError
		if errors.As(err, &appErr) {
			errResp.Details["type"] = string(appErr.Type)
			for k, v := range appErr.Fields {
				errResp.Details[k] = v
			}
		}

		logErr := errortypes.APIError(err, fmt.Sprintf("API Error (%s)", code)).
			WithField("status_code", status).
			WithField("error_code", code).
			WithField("client_message", message).
			WithField("path", c.Request.URL.Path)

		errortypes.LogError(nil, logErr)
		_ = c.Error(err)
	}

	c.AbortWithStatusJSON(status, errResp)
}

// HandleBadRequest handles 400 Bad Request errors
func HandleBadRequest(c *gin.Context, message string, err error) {
	writeErrorResponse(c, http.StatusBadRequest, ErrorCodeInvalidRequest, message, err)
}

// HandleNotFound handles 404 Not Found errors
func HandleNotFound(c *gin.Context, message string, err error) {
	writeErrorResponse(c, http.StatusNotFound, ErrorCodeResourceNotFound, message, err)
}

// HandleRateLimited handles 429 Too Many Requests errors
func HandleRateLimited(c *gin.Context, message string, err error) {
	writeErrorResponse(c, http.StatusTooManyRequests, ErrorCodeRateLimited, message, err)
}

// HandleInternalError handles 500 Internal Server Error errors
func HandleInternalError(c *gin.Context, message string, err error) {
	writeErrorResponse(c, http.StatusInternalServerError, ErrorCodeInternalError, message, err)
}

// HandleBadGateway handles 502 Bad Gateway errors
func HandleBadGateway(c *gin.Context, message string, err error) {
	writeErrorResponse(c, http.StatusBadGateway, ErrorCodeBadGateway, message, err)
}

// clientMessage is the AppError message, or fallback for other errors.
func clientMessage(err error, fallback string) string {
	var appErr *errortypes.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// HandleError inspects the error type to choose the HTTP response.
func HandleError(c *gin.Context, err error) {
	switch errortypes.TypeOf(err) {
	case errortypes.ErrorTypeValidation:
		HandleBadRequest(c, clientMessage(err, "Invalid request parameters"), err)
	case errortypes.ErrorTypeNotFound:
		HandleNotFound(c, clientMessage(err, "Resource not found"), err)
	case errortypes.ErrorTypeRateLimit:
		HandleRateLimited(c, clientMessage(err, "Rate limit exceeded"), err)
	case errortypes.ErrorTypeNetwork:
		HandleBadGateway(c, "Network error", err)
	case errortypes.ErrorTypeAPI, errortypes.ErrorTypeExternal:
		HandleBadGateway(c, "Downstream service error", err)
	default:
		HandleInternalError(c, "An unexpected error occurred", err)
	}
}
