package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/ejg/cestas/internal/auth"
	"github.com/ejg/cestas/internal/middleware"
	"github.com/ejg/cestas/internal/service"
)

func secondsOf(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return iris.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return iris.StatusForbidden
	case errors.Is(err, service.ErrInvalidInput):
		return iris.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return iris.StatusNotFound
	case errors.Is(err, service.ErrStorage):
		return iris.StatusBadGateway
	default:
		return iris.StatusInternalServerError
	}
}

// fail writes the error envelope. Unexpected errors are logged and hidden.
func fail(ctx iris.Context, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == iris.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Error(err))
		msg = "internal error"
	}
	ctx.StopWithJSON(status, iris.Map{"code": status, "msg": msg})
}

// bodyTooLarge reports whether err came from a request body over limit.
func bodyTooLarge(ctx iris.Context, err error, limit int64) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return limit > 0 && ctx.Request().ContentLength > limit
}

func badRequest(ctx iris.Context, msg string) {
	ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{"code": iris.StatusBadRequest, "msg": msg})
}

func reply(ctx iris.Context, status int, body interface{}) {
	ctx.StatusCode(status)
	if err := ctx.JSON(body); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func identity(ctx iris.Context) *auth.Identity {
	return middleware.CurrentIdentity(ctx)
}
