// Package notify mails the shop owner when a checkout is confirmed paid.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/pkg/errors"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"catalog_back_end/internal/logger"
	"catalog_back_end/internal/models"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

type Mailer struct {
	cfg  SMTPConfig
	send func(ctx context.Context, msg *mail.Msg) error
}

func NewMailer(cfg SMTPConfig) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	m := &Mailer{cfg: cfg}
	m.send = m.dialAndSend
	return m
}

// OrderPaid sends the owner a summary of a paid order.
func (m *Mailer) OrderPaid(ctx context.Context, order models.Order) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return errors.Wrap(err, "set sender")
	}
	if err := msg.To(m.cfg.To); err != nil {
		return errors.Wrap(err, "set recipient")
	}
	msg.Subject(Subject(order))
	msg.SetBodyString(mail.TypeTextHTML, OrderPaidHTML(order))

	logger.Info(ctx, "📤 Sending order notification", zap.String("order_number", order.OrderNumber))
	if err := m.send(ctx, msg); err != nil {
		return errors.Wrap(err, "send order notification")
	}
	return nil
}

func (m *Mailer) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func Subject(order models.Order) string {
	return fmt.Sprintf("%s paid (%s)", order.Label, order.OrderNumber)
}

// OrderPaidHTML renders the line items and total. Amounts are shown in major units.
func OrderPaidHTML(order models.Order) string {
	var rows strings.Builder
	for _, item := range order.Items {
		name := item.Name()
		if name == "" {
			name = "Item"
		}
		unit, _ := item.UnitAmount()
		fmt.Fprintf(&rows, `
			<tr>
				<td>%s</td>
				<td>%d</td>
				<td>%s %s</td>
			</tr>`,
			html.EscapeString(name), item.Qty(),
			unit.Shift(-2).StringFixed(2), html.EscapeString(strings.ToUpper(item.Currency())))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
	<h2>%s</h2>
	<p>Order number: %s<br>Checkout session: %s</p>
	<table style="border-collapse: collapse;">
		<thead><tr><th>Product</th><th>Quantity</th><th>Unit price</th></tr></thead>
		<tbody>%s
		</tbody>
	</table>
	<p><strong>Total: %s</strong></p>
</body>
</html>`,
		html.EscapeString(order.Label), html.EscapeString(order.OrderNumber),
		html.EscapeString(order.SessionID), rows.String(), order.Amount.StringFixed(2))
}
