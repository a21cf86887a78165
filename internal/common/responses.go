package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendValidationError sends a validation error response
func SendValidationError(c echo.Context, verr *ValidationError) error {
	details := make(map[string]string, len(verr.Fields))
	for _, f := range verr.Fields {
		details[f.Path] = f.Message
	}
	return c.JSON(http.StatusBadRequest, CreateErrorResponse(CodeValidation, verr.Message, details))
}

// SendClientError sends a client error response
func SendClientError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("CLIENT_ERROR", message, nil))
}

// SendServerError sends a server error response
func SendServerError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, CreateErrorResponse(CodeServerError, message, nil))
}

func domainStatus(code string) int {
	switch code {
	case CodeOrderNotFound, CodeProductNotFound, CodeCustomerNotFound:
		return http.StatusNotFound
	case CodeDuplicateRecord:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

// SendError maps an error from the service layer onto the response envelope.
// Infrastructure failures are logged in full and reported generically.
func SendError(c echo.Context, logger zerolog.Logger, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return SendValidationError(c, verr)
	}
	var derr *DomainError
	if errors.As(err, &derr) {
		return c.JSON(domainStatus(derr.Code), CreateErrorResponse(derr.Code, derr.Message, nil))
	}
	var herr *echo.HTTPError
	if errors.As(err, &herr) {
		return c.JSON(herr.Code, CreateErrorResponse("CLIENT_ERROR", fmt.Sprint(herr.Message), nil))
	}

	logger.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("request failed")
	return SendServerError(c, "The operation could not be completed")
}

// HTTPErrorHandler returns an echo error handler using the same envelope.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if sendErr := SendError(c, logger, err); sendErr != nil {
			logger.Error().Err(sendErr).Msg("failed to write error response")
		}
	}
}
