package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openslot/booking-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Pagination represents pagination metadata
type Pagination struct {
	Page      int `json:"page"`
	PerPage   int `json:"per_page"`
	Total     int `json:"total"`
	TotalPage int `json:"total_pages"`
}

// PaginatedResponse wraps paginated data
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// statusFor maps the error taxonomy to HTTP status codes. SlotConflict and
// InvalidTransition are expected caller-recoverable outcomes, not server
// faults.
func statusFor(kind errors.Kind) int {
	switch kind {
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindServiceInactive, errors.KindSelfBooking:
		return http.StatusUnprocessableEntity
	case errors.KindSlotConflict, errors.KindInvalidTransition:
		return http.StatusConflict
	case errors.KindForbidden:
		return http.StatusForbidden
	case errors.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, err error) {
	kind := errors.KindOf(err)

	message := "internal server error"
	if appErr, ok := err.(*errors.AppError); ok {
		message = appErr.Message
	}

	c.JSON(statusFor(kind), Response{
		Success: false,
		Error: &Error{
			Kind:      kind.String(),
			Message:   message,
			Retryable: errors.Retryable(err),
		},
	})
}

// RespondWithValidationError sends a 400 for malformed request payloads.
func RespondWithValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error: &Error{
			Kind:    errors.KindValidation.String(),
			Message: err.Error(),
		},
	})
}

// RespondWithPagination sends a paginated response
func RespondWithPagination(c *gin.Context, data interface{}, page, perPage, total int) {
	totalPages := (total + perPage - 1) / perPage

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: PaginatedResponse{
			Data: data,
			Pagination: Pagination{
				Page:      page,
				PerPage:   perPage,
				Total:     total,
				TotalPage: totalPages,
			},
		},
	})
}
