package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/ejg/cestas/internal/infra/mq"
)

// Notifier delivers order messages. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier writes the deep link to the log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, msg Message) error {
	zap.L().Info("order notification",
		zap.String("order_id", msg.OrderID),
		zap.String("whatsapp_url", msg.URL))
	return nil
}

// QueueNotifier publishes messages to a durable RabbitMQ queue consumed by
// the notify worker.
type QueueNotifier struct {
	mu    sync.Mutex
	ch    *amqp.Channel
	queue string
}

// NewQueueNotifier opens a channel on conn and declares queue.
func NewQueueNotifier(conn *amqp.Connection, queue string) (*QueueNotifier, error) {
	if conn == nil {
		return nil, errors.New("rabbitmq connection is nil")
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if _, err := mq.DeclareQueue(ch, queue); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return &QueueNotifier{ch: ch, queue: queue}, nil
}

func (n *QueueNotifier) Notify(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	// amqp channels are not safe for concurrent publishing.
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.OrderID,
		Body:         body,
	})
}

func (n *QueueNotifier) Close() error {
	return n.ch.Close()
}
