package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ejg/cestas/internal/config"
	"github.com/ejg/cestas/internal/infra/mq"
	"github.com/ejg/cestas/internal/logger"
	"github.com/ejg/cestas/internal/notify"
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

	conn := mq.Init(&cfg.RabbitMQ)
	if conn == nil {
		zap.L().Fatal("notify worker needs rabbitmq")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		zap.L().Fatal("open channel", zap.Error(err))
	}
	defer ch.Close()

	if _, err := mq.DeclareQueue(ch, cfg.Notify.Queue); err != nil {
		zap.L().Fatal("declare queue", zap.Error(err))
	}
	if err := ch.Qos(10, 0, false); err != nil {
		zap.L().Fatal("set qos", zap.Error(err))
	}
	// Manual acks: the consumer decides per message.
	deliveries, err := ch.Consume(cfg.Notify.Queue, "", false, false, false, false, nil)
	if err != nil {
		zap.L().Fatal("consume", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zap.L().Info("notify worker started", zap.String("queue", cfg.Notify.Queue))
	notify.NewConsumer(nil).Run(ctx, deliveries)
	zap.L().Info("notify worker stopped")
}
