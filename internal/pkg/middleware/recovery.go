package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/piresc/tirtha/internal/pkg/logger"
	"github.com/piresc/tirtha/internal/utils"
)

// PanicRecoveryWithZapMiddleware recovers from handler panics, logs them and answers 500
func PanicRecoveryWithZapMiddleware(zapLogger *logger.ZapLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				userID := "anonymous"
				if uid := c.Get("user_id"); uid != nil {
					userID = fmt.Sprintf("%v", uid)
				}
				requestID := c.Response().Header().Get(echo.HeaderXRequestID)
				panicMsg := fmt.Sprintf("Panic recovered: %v", r)

				txn := newrelic.FromContext(c.Request().Context())
				if txn != nil {
					txn.NoticeError(newrelic.Error{Message: panicMsg, Class: "PanicError"})
					txn.AddAttribute("panic.recovered", true)
				}

				zapLogger.WithNewRelicContext(txn).Error("Panic recovered during request processing",
					logger.String("panic_value", fmt.Sprintf("%v", r)),
					logger.String("panic_type", fmt.Sprintf("%T", r)),
					logger.String("stack_trace", string(debug.Stack())),
					logger.String("method", c.Request().Method),
					logger.String("path", c.Request().URL.Path),
					logger.String("user_id", userID),
					logger.String("request_id", requestID))

				if !c.Response().Committed {
					err = utils.ErrorResponseHandler(c, http.StatusInternalServerError, "Internal server error")
				}
			}()

			return next(c)
		}
	}
}
