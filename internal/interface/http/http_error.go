package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openbites/bitefinder/internal/domain/places"
	apperrors "github.com/openbites/bitefinder/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

// statusForDomainError maps shared error codes onto HTTP statuses. Registry
// failures surface as bad gateway since the upstream place registry is the
// party at fault.
func statusForDomainError(err error, fallbackCode string) (int, string) {
	var staleErr *places.StaleIdentifierError
	switch {
	case apperrors.IsCode(err, apperrors.CodeInvalidInput):
		return http.StatusBadRequest, "invalid_request"
	case apperrors.IsCode(err, apperrors.CodeNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &staleErr):
		return http.StatusBadGateway, "stale_identifier"
	case apperrors.IsCode(err, apperrors.CodeRegistryError):
		return http.StatusBadGateway, "registry_error"
	default:
		return http.StatusInternalServerError, fallbackCode
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
