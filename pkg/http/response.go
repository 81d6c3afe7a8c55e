package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// DataResponse writes data as JSON with the given status code.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, data)
}

// SuccessResponse writes a 200 response.
func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// FailResponse writes a FailureResponse with the given status.
func FailResponse(c echo.Context, statusCode int, message string, details interface{}) error {
	return DataResponse(c, statusCode, FailureResponse{
		Success:   false,
		Error:     message,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Details:   details,
	})
}

// InternalServerErrorResponse writes a 500 failure carrying the error text.
func InternalServerErrorResponse(c echo.Context, err error) error {
	msg := "Something went wrong"
	if err != nil {
		msg = err.Error()
	}
	return FailResponse(c, http.StatusInternalServerError, msg, nil)
}

// AppErrorResponse writes application error response.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return FailResponse(c, appErr.Status, appErr.Message, appErr.Details)
	}
	return InternalServerErrorResponse(c, err)
}
