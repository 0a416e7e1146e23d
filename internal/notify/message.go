// Package notify turns new orders into WhatsApp deep links for the store
// owner and hands them off without blocking checkout.
package notify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ejg/cestas/internal/datamodels/order"
)

const deepLinkBase = "https://wa.me/"

// Message summary of one order.
type Message struct {
	OrderID string `json:"orderId"`
	Phone   string `json:"phone"`
	Text    string `json:"text"`
	URL     string `json:"url"`
}

// Build composes the summary text and the wa.me link for o. Line totals use
// the prices captured on the order.
func Build(o *order.Order, customerName, phone string) Message {
	var b strings.Builder
	b.WriteString("Novo pedido recebido!\n\n")
	fmt.Fprintf(&b, "Cliente: %s\n\n", customerName)
	b.WriteString("Itens:\n")
	total := decimal.Zero
	for i, it := range o.Items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s - %dx - R$ %s", it.ProductName, it.Quantity, it.LineTotal().StringFixed(2))
		total = total.Add(it.LineTotal())
	}
	fmt.Fprintf(&b, "\n\nTotal: R$ %s", total.StringFixed(2))

	phone = digits(phone)
	text := b.String()
	return Message{
		OrderID: o.ID,
		Phone:   phone,
		Text:    text,
		URL:     deepLinkBase + phone + "?text=" + encodeComponent(text),
	}
}

// componentUnescape restores the characters encodeURIComponent leaves alone
// and writes spaces as %20 so the link survives being pasted into a chat.
var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent percent-encodes s like JavaScript's encodeURIComponent.
func encodeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
