package main

import (
	"log"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/ejg/cestas/internal/config"
	"github.com/ejg/cestas/internal/logger"
	"github.com/ejg/cestas/internal/server"
)

func main() {
	cfg, err := config.Load(config.Dir())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if _, err := logger.Init(&cfg.Log); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zap.L().Sync() //nolint:errcheck

	deps, err := server.Setup(cfg)
	if err != nil {
		zap.L().Fatal("setup", zap.Error(err))
	}
	app := server.NewAdminApp(deps)

	addr := cfg.AdminServer.Addr()
	zap.L().Info("admin server listening", zap.String("addr", addr))
	if err := app.Run(iris.Addr(addr), iris.WithoutServerError(iris.ErrServerClosed)); err != nil {
		zap.L().Error("admin server stopped", zap.Error(err))
	}
}
