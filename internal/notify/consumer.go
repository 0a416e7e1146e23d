package notify

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Sink receives decoded messages on the worker side.
type Sink func(ctx context.Context, msg Message) error

// Consumer acknowledges queue deliveries according to what Sink does with them.
type Consumer struct {
	sink Sink
}

// NewConsumer sink defaults to LogNotifier.
func NewConsumer(sink Sink) *Consumer {
	if sink == nil {
		sink = LogNotifier{}.Notify
	}
	return &Consumer{sink: sink}
}

// Run handles deliveries until the channel closes or ctx ends.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			c.Handle(ctx, d)
		}
	}
}

// Handle acks a delivered message, drops malformed ones and requeues the
// rest when the sink fails.
func (c *Consumer) Handle(ctx context.Context, d amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(d.Body, &msg); err != nil || msg.URL == "" {
		zap.L().Warn("dropping malformed notification", zap.ByteString("body", d.Body), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	if err := c.sink(ctx, msg); err != nil {
		zap.L().Warn("notification sink failed", zap.String("order_id", msg.OrderID), zap.Error(err))
		_ = d.Nack(false, !d.Redelivered)
		return
	}
	if err := d.Ack(false); err != nil {
		zap.L().Warn("ack failed", zap.String("order_id", msg.OrderID), zap.Error(err))
	}
}
