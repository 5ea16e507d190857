// internal/api/response.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/corphon/novelgraph/internal/errors"
)

// APIResponse is the standard envelope for every JSON response.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError is the user-visible error shape: {kind, stage?, message}. No
// stack traces or internal error chains leak outward.
type APIError struct {
	Kind    string `json:"kind"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

// ResponseHelper centralizes response construction so handlers stay thin.
type ResponseHelper struct{}

// NewResponseHelper builds a ResponseHelper.
func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{}
}

// Success writes a 200 with data as the payload.
func (rh *ResponseHelper) Success(c *gin.Context, data interface{}, message ...string) {
	resp := &APIResponse{Success: true, Data: data, Timestamp: time.Now()}
	if len(message) > 0 {
		resp.Message = message[0]
	}
	c.JSON(http.StatusOK, resp)
}

// Accepted writes a 202, for an analysis that was queued but has not
// finished.
func (rh *ResponseHelper) Accepted(c *gin.Context, data interface{}, message ...string) {
	resp := &APIResponse{Success: true, Data: data, Timestamp: time.Now()}
	if len(message) > 0 {
		resp.Message = message[0]
	}
	c.JSON(http.StatusAccepted, resp)
}

// AppError maps an *errors.AppError onto the matching HTTP status and the
// {kind, stage?, message} error envelope used across this API.
func (rh *ResponseHelper) AppError(c *gin.Context, err *appErrors.AppError) {
	status := http.StatusInternalServerError
	switch err.Kind {
	case appErrors.KindInvalidInput:
		status = http.StatusBadRequest
	case appErrors.KindNoEntitiesFound:
		status = http.StatusOK
	case appErrors.KindLexiconMissing:
		status = http.StatusInternalServerError
	case appErrors.KindStageFailure:
		status = http.StatusUnprocessableEntity
	case appErrors.KindGraphStoreError:
		status = http.StatusInternalServerError
	case appErrors.KindCancelled:
		status = http.StatusRequestTimeout
	}

	c.JSON(status, &APIResponse{
		Success: err.Kind == appErrors.KindNoEntitiesFound,
		Error: &APIError{
			Kind:    string(err.Kind),
			Stage:   err.Stage,
			Message: err.Message,
		},
		Timestamp: time.Now(),
	})
}

// BadRequest writes a generic 400 for request-shape problems that never
// reach the analysis core.
func (rh *ResponseHelper) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, &APIResponse{
		Success:   false,
		Error:     &APIError{Kind: string(appErrors.KindInvalidInput), Message: message},
		Timestamp: time.Now(),
	})
}

// NotFound writes a generic 404.
func (rh *ResponseHelper) NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, &APIResponse{
		Success:   false,
		Error:     &APIError{Kind: "not_found", Message: message},
		Timestamp: time.Now(),
	})
}
