package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejg/cestas/internal/datamodels/order"
)

func sampleOrder() *order.Order {
	return &order.Order{
		ID: "ord-1",
		Items: []order.Item{
			{ProductName: "Cesta Básica", Quantity: 2, Price: decimal.RequireFromString("10")},
			{ProductName: "Café & Leite", Quantity: 1, Price: decimal.RequireFromString("5.5")},
		},
	}
}

func TestBuild(t *testing.T) {
	msg := Build(sampleOrder(), "Maria", "+55 (16) 99202-5527")

	want := "Novo pedido recebido!\n\n" +
		"Cliente: Maria\n\n" +
		"Itens:\n" +
		"Cesta Básica - 2x - R$ 20.00\n" +
		"Café & Leite - 1x - R$ 5.50\n\n" +
		"Total: R$ 25.50"
	assert.Equal(t, want, msg.Text)
	assert.Equal(t, "5516992025527", msg.Phone)
	assert.Equal(t, "ord-1", msg.OrderID)

	u, err := url.Parse(msg.URL)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", u.Host)
	assert.Equal(t, "/5516992025527", u.Path)
	assert.Equal(t, want, u.Query().Get("text"))
	assert.NotContains(t, msg.URL, "+")
	assert.True(t, strings.HasPrefix(msg.URL,
		"https://wa.me/5516992025527?text=Novo%20pedido%20recebido!%0A%0ACliente%3A%20Maria%0A%0AItens%3A%0ACesta%20B%C3%A1sica%20-%202x"),
		msg.URL)
}

func TestEncodeComponent(t *testing.T) {
	assert.Equal(t,
		"Novo%20pedido%20recebido!%0ACesta%20B%C3%A1sica%20(2x)%20-%20R%24%2020.00%20%26%20it's%20*ok*%20~",
		encodeComponent("Novo pedido recebido!\nCesta Básica (2x) - R$ 20.00 & it's *ok* ~"))
	assert.Equal(t, "a%2Bb%3Dc%2Fd%3F", encodeComponent("a+b=c/d?"))
}

func TestBuildIsPure(t *testing.T) {
	o := sampleOrder()
	a := Build(o, "Maria", "5516")
	b := Build(o, "Maria", "5516")
	assert.Equal(t, a, b)
	assert.True(t, o.Total.IsZero())
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(uint64, bool) error { f.acked = true; return nil }
func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}
func (f *fakeAck) Reject(_ uint64, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}

func delivery(t *testing.T, body []byte, redelivered bool) (amqp.Delivery, *fakeAck) {
	t.Helper()
	ack := &fakeAck{}
	return amqp.Delivery{Acknowledger: ack, Body: body, Redelivered: redelivered}, ack
}

func TestConsumerHandle(t *testing.T) {
	body, err := json.Marshal(Build(sampleOrder(), "Maria", "5516"))
	require.NoError(t, err)

	var got []Message
	c := NewConsumer(func(_ context.Context, m Message) error {
		got = append(got, m)
		return nil
	})

	d, ack := delivery(t, body, false)
	c.Handle(context.Background(), d)
	assert.True(t, ack.acked)
	require.Len(t, got, 1)
	assert.Equal(t, "ord-1", got[0].OrderID)

	d, ack = delivery(t, []byte("{not json"), false)
	c.Handle(context.Background(), d)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
	assert.Len(t, got, 1)
}

func TestConsumerRequeuesOnce(t *testing.T) {
	body, err := json.Marshal(Build(sampleOrder(), "Maria", "5516"))
	require.NoError(t, err)
	c := NewConsumer(func(context.Context, Message) error { return errors.New("down") })

	d, ack := delivery(t, body, false)
	c.Handle(context.Background(), d)
	assert.True(t, ack.nacked)
	assert.True(t, ack.requeued)

	d, ack = delivery(t, body, true)
	c.Handle(context.Background(), d)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
}

func TestConsumerRunStopsWhenChannelCloses(t *testing.T) {
	ch := make(chan amqp.Delivery, 1)
	body, err := json.Marshal(Build(sampleOrder(), "Maria", "5516"))
	require.NoError(t, err)
	d, ack := delivery(t, body, false)
	ch <- d
	close(ch)

	NewConsumer(func(context.Context, Message) error { return nil }).Run(context.Background(), ch)
	assert.True(t, ack.acked)
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, LogNotifier{}.Notify(context.Background(), Message{OrderID: "x", URL: "https://wa.me/1"}))
}
