package apperrors

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the JSON envelope every error leaves the service in.
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// HTTPErrorHandler maps service errors onto transport status codes. Handlers
// return errors instead of writing status codes themselves; this is the one
// place the taxonomy meets HTTP.
func HTTPErrorHandler(debug bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		appErr, ok := As(err)
		if !ok {
			if httpErr, isHTTP := err.(*echo.HTTPError); isHTTP {
				// Router-level errors (404 on unknown path, 405, bad bind).
				msg, _ := httpErr.Message.(string)
				if msg == "" {
					msg = http.StatusText(httpErr.Code)
				}
				appErr = New(codeForStatus(httpErr.Code), msg, httpErr.Code)
			} else {
				appErr = Internal(err)
			}
		}

		if appErr.HTTPCode >= http.StatusInternalServerError {
			slog.Error("request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"err", appErr.Unwrap(),
			)
			if !debug {
				appErr = New(CodeInternalError, "internal server error", appErr.HTTPCode)
			}
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(appErr.HTTPCode)
			return
		}
		_ = c.JSON(appErr.HTTPCode, ErrorResponse{Error: appErr})
	}
}

func codeForStatus(status int) ErrorCode {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusUnprocessableEntity:
		return CodeValidationFailed
	case http.StatusConflict:
		return CodeAlreadyExists
	case http.StatusBadRequest, http.StatusMethodNotAllowed:
		return CodeBadRequest
	default:
		return CodeInternalError
	}
}
