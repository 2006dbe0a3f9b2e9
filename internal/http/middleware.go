package http

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/fyrsmithlabs/middleout/internal/logging"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// requestID accepts a well-formed X-Request-ID from the client and
// otherwise generates one. The ID is echoed in the response and stored in
// the request context together with the logger.
func requestID(logger *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if !logging.ValidRequestID(id) {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			ctx := logging.WithRequestID(req.Context(), id)
			ctx = logging.WithLogger(ctx, logger)
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

// requestLogger logs one line per request after it completes. Request
// bodies are never logged.
func requestLogger(logger *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := responseStatus(c, err)
			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", routePath(c)),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			}
			ctx := c.Request().Context()
			switch {
			case status >= http.StatusInternalServerError:
				logger.Error(ctx, "http request", append(fields, zap.Error(err))...)
			case status >= http.StatusBadRequest:
				logger.Warn(ctx, "http request", fields...)
			default:
				logger.Info(ctx, "http request", fields...)
			}
			return err
		}
	}
}

// recoverer turns handler panics into 500s and logs the stack.
func recoverer(logger *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					if r == http.ErrAbortHandler {
						panic(r)
					}
					logger.Error(c.Request().Context(), "handler panic",
						zap.Any("panic", r),
						zap.ByteString("stack", debug.Stack()),
					)
					err = echo.NewHTTPError(http.StatusInternalServerError, "internal error")
				}
			}()
			return next(c)
		}
	}
}
