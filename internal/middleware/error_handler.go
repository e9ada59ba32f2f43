package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hazard-service/internal/services"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

// ErrorDetails contains the error information
type ErrorDetails struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	TraceID   string                 `json:"trace_id"`
}

// CustomError represents a custom application error
type CustomError struct {
	Code       string
	Message    string
	StatusCode int
	Details    map[string]interface{}
}

func (e CustomError) Error() string {
	return e.Message
}

// Common error codes
const (
	ErrCodeInternalServer   = "INTERNAL_SERVER_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeInvalidState     = "INVALID_STATE"
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"
)

// ErrorHandler is a middleware that handles errors in a consistent way
func ErrorHandler(logger *logrus.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = logrus.New()
	}
	log := logger.WithField("component", "error-handler")

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			handleError(c, log, err.Err)
		}
	}
}

// Respond maps err to a status code and writes the error body
func Respond(c *gin.Context, err error) {
	handleError(c, logrus.WithField("component", "error-handler"), err)
}

// handleError processes the error and sends appropriate response
func handleError(c *gin.Context, log *logrus.Entry, err error) {
	traceID := TraceID(c)
	if traceID == "" {
		traceID = uuid.New().String()
	}

	customErr := toCustomError(err)
	response := ErrorResponse{
		Error: ErrorDetails{
			Code:      customErr.Code,
			Message:   customErr.Message,
			Details:   customErr.Details,
			Timestamp: time.Now().UTC(),
			TraceID:   traceID,
		},
	}

	entry := log.WithFields(logrus.Fields{
		"trace_id": traceID,
		"code":     customErr.Code,
		"path":     c.Request.URL.Path,
		"method":   c.Request.Method,
	}).WithError(err)
	if customErr.StatusCode >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	c.AbortWithStatusJSON(customErr.StatusCode, response)
}

// toCustomError classifies service errors by kind
func toCustomError(err error) CustomError {
	var customErr CustomError
	if errors.As(err, &customErr) {
		return customErr
	}

	if errors.Is(err, services.ErrInvalidCredentials) {
		return NewUnauthorizedError(err.Error())
	}

	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		var details map[string]interface{}
		if len(svcErr.Fields) > 0 {
			details = map[string]interface{}{"fields": svcErr.Fields}
		}
		switch svcErr.Kind {
		case services.KindValidation:
			return CustomError{Code: ErrCodeValidationFailed, Message: svcErr.Error(), StatusCode: http.StatusBadRequest, Details: details}
		case services.KindForbidden:
			return NewForbiddenError(svcErr.Error())
		case services.KindNotFound:
			return CustomError{Code: ErrCodeNotFound, Message: svcErr.Error(), StatusCode: http.StatusNotFound}
		case services.KindState:
			return CustomError{Code: ErrCodeInvalidState, Message: svcErr.Error(), StatusCode: http.StatusConflict}
		}
	}

	return CustomError{
		Code:       ErrCodeInternalServer,
		Message:    "An unexpected error occurred",
		StatusCode: http.StatusInternalServerError,
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string, details map[string]interface{}) CustomError {
	return CustomError{
		Code:       ErrCodeBadRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) CustomError {
	return CustomError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) CustomError {
	return CustomError{
		Code:       ErrCodeUnauthorized,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string) CustomError {
	return CustomError{
		Code:       ErrCodeForbidden,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewTooManyRequestsError creates a new rate limit error
func NewTooManyRequestsError(message string) CustomError {
	return CustomError{
		Code:       ErrCodeTooManyRequests,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}
