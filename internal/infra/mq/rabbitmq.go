package mq

import (
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/ejg/cestas/internal/config"
)

var (
	conn *amqp.Connection
	once sync.Once
)

// Init dials RabbitMQ once. A nil connection means notifications fall back
// to the log.
func Init(cfg *config.RabbitMQConfig) *amqp.Connection {
	once.Do(func() {
		if cfg.URL == "" {
			zap.L().Info("rabbitmq disabled")
			return
		}
		c, err := amqp.Dial(cfg.URL)
		if err != nil {
			zap.L().Warn("rabbitmq unavailable", zap.Error(err))
			return
		}
		conn = c
	})
	return conn
}

// DeclareQueue declares the durable queue name on ch.
func DeclareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(name, true, false, false, false, nil)
}
