package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/travel-reservation/internal/logger"
)

// HeaderCorrelationID carries the correlation id in requests and responses.
const HeaderCorrelationID = "Correlation-ID"

// RequestLog assigns a correlation id, stores a request-scoped logrus entry
// on the request context and logs one line per completed request.
func RequestLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			correlationID := req.Header.Get(HeaderCorrelationID)
			if correlationID == "" {
				correlationID = "gen_" + shortuuid.New()
			}
			c.Response().Header().Set(HeaderCorrelationID, correlationID)

			entry := logrus.WithFields(logrus.Fields{
				"correlation_id": correlationID,
				"method":         req.Method,
				"path":           req.URL.Path,
			})
			ctx := logger.ContextWithCorrelationID(req.Context(), correlationID)
			ctx = logger.ToContext(ctx, entry)
			c.SetRequest(req.WithContext(ctx))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			fields := logrus.Fields{
				"status":      c.Response().Status,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if uid, ok := UserID(c); ok {
				fields["user_id"] = uid
			}
			entry.WithFields(fields).Info("request handled")
			return nil
		}
	}
}
