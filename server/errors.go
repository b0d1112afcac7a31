package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/Skryldev/webtools/errors"
)

// User-facing messages returned in {"error": ...} bodies.
const (
	MsgTooLarge         = "File too large. Please use images smaller than 20MB."
	MsgNoImage          = "No image file provided"
	MsgInvalidFileType  = "Invalid file type. Please upload an image file."
	MsgUnsupportedImage = "Unsupported image format. Please use JPEG, PNG, WebP, or AVIF."
	MsgCorruptImage     = "Invalid or corrupted image file."
	MsgProcessingFailed = "Failed to process image. Please try again with a different image."
	MsgNothingToHash    = "Provide a file or text to hash"
	MsgTooManyRequests  = "Too many requests. Please slow down."
	msgInternal         = "An unexpected error occurred. Please try again later."
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// httpError builds an echo.HTTPError that keeps cause for logging only.
func httpError(code int, msg string, cause error) *echo.HTTPError {
	he := echo.NewHTTPError(code, msg)
	if cause != nil {
		he = he.WithInternal(cause)
	}
	return he
}

// optimizeError maps a failure from Optimizer.Optimize onto a status and
// message. Only the two closed decode categories become client errors.
func optimizeError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, apperrors.ErrPayloadTooLarge):
		return httpError(http.StatusRequestEntityTooLarge, MsgTooLarge, err)
	case errors.Is(err, apperrors.ErrInvalidFileType):
		return httpError(http.StatusBadRequest, MsgInvalidFileType, err)
	case apperrors.IsCategory(err, apperrors.CategoryDecode) && errors.Is(err, apperrors.ErrUnsupportedFormat):
		return httpError(http.StatusBadRequest, MsgUnsupportedImage, err)
	case apperrors.IsCategory(err, apperrors.CategoryDecode) && errors.Is(err, apperrors.ErrCorruptImage):
		return httpError(http.StatusBadRequest, MsgCorruptImage, err)
	}
	return httpError(http.StatusInternalServerError, MsgProcessingFailed, err)
}

// ErrorHandler renders every error as {"error": message}. Messages of
// non-HTTP errors never reach the client.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		msg := msgInternal
		cause := err

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(status)
			}
			if he.Internal != nil {
				cause = he.Internal
			}
		}

		attrs := []any{
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", status,
			"error", cause.Error(),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", attrs...)
		} else {
			logger.Warn("request rejected", attrs...)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, errorBody{Error: msg})
		}
		if err != nil {
			logger.Error("write error response", "error", err)
		}
	}
}
