package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rzeZenphrix/miku-interviewer/internal/adapter/metrics"
	"github.com/rzeZenphrix/miku-interviewer/internal/platform/correlation"
	apperrors "github.com/rzeZenphrix/miku-interviewer/internal/platform/errors"
)

const signatureHeader = "X-Relay-Signature"

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := correlation.WithID(c.Request().Context(), correlation.NewID())
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// ErrorHandlingMiddleware converts errors returned by handlers into
// structured JSON responses, recording metrics and logging along the way.
func ErrorHandlingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				// Echo middleware errors keep their status codes.
				return err
			}

			structuredErr := apperrors.FromDomain(err)
			metrics.HTTPErrorsTotal.WithLabelValues(string(structuredErr.Type)).Inc()
			logError(c, structuredErr)

			if err := c.JSON(structuredErr.HTTPStatus(), structuredErr.ToResponse()); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

func logError(c echo.Context, err *apperrors.Error) {
	ctx := c.Request().Context()
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}

	switch err.Type {
	case apperrors.TypeValidation, apperrors.TypeNotFound:
		slog.InfoContext(ctx, "Request rejected", attrs...)
	case apperrors.TypeForbidden, apperrors.TypeStale:
		slog.WarnContext(ctx, "Request rejected", attrs...)
	default:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.ErrorContext(ctx, "Request failed", attrs...)
	}
}

// verifySignatureMiddleware checks the HMAC-SHA256 signature the platform
// relay attaches to interaction deliveries. The body is re-buffered so the
// handler can still read it.
func (s *Server) verifySignatureMiddleware() echo.MiddlewareFunc {
	secret := []byte(s.config.InteractionSecret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			body, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
			}
			_ = c.Request().Body.Close()

			signature := c.Request().Header.Get(signatureHeader)
			if !validSignature(secret, body, signature) {
				slog.WarnContext(c.Request().Context(), "Rejected interaction with bad signature", "remote_ip", c.RealIP())
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
			}

			c.Set(rawBodyKey, body)
			return next(c)
		}
	}
}

func validSignature(secret, body []byte, signature string) bool {
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), provided)
}
