package middleware

import (
	"time"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request.
func RequestLogger() iris.Handler {
	return func(ctx iris.Context) {
		start := time.Now()
		ctx.Next()
		zap.L().Info("http request",
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Int("status", ctx.GetStatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("remote", ctx.RemoteAddr()))
	}
}
