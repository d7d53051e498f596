// Package orders keeps a local log of checkout sessions. An order is written when a
// session is created, before anything is known about payment.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"catalog_back_end/internal/apperr"
	"catalog_back_end/internal/logger"
	"catalog_back_end/internal/models"
	"catalog_back_end/internal/store"
)

var hundred = decimal.NewFromInt(100)

type Recorder struct {
	orders *store.JSONFile[models.Order]
	now    func() time.Time
}

func NewRecorder(orders *store.JSONFile[models.Order]) *Recorder {
	return &Recorder{orders: orders, now: time.Now}
}

// Total sums unit amount times quantity over items and converts the minor-unit sum
// to major units. Items without a resolvable amount count as zero.
func Total(items []models.LineItem) decimal.Decimal {
	minor := decimal.Zero
	for _, item := range items {
		unit, ok := item.UnitAmount()
		if !ok {
			continue
		}
		minor = minor.Add(unit.Mul(decimal.NewFromInt(item.Qty())))
	}
	return minor.Div(hundred)
}

// Record appends an order for the checkout session sessionID.
func (r *Recorder) Record(ctx context.Context, sessionID string, items []models.LineItem) (models.Order, error) {
	if len(items) == 0 {
		return models.Order{}, apperr.ErrEmptyCart
	}

	created := r.now()
	order := models.Order{
		OrderNumber: fmt.Sprintf("ORD-%d", created.UnixMilli()),
		SessionID:   sessionID,
		Items:       items,
		Amount:      Total(items),
		Status:      models.OrderPending,
		CreatedAt:   created,
	}

	err := r.orders.Update(ctx, func(list []models.Order) ([]models.Order, error) {
		order.Label = fmt.Sprintf("Order #%d", len(list)+1)
		return append(list, order), nil
	})
	if err != nil {
		return models.Order{}, err
	}

	logger.Info(ctx, "🧾 Order recorded",
		zap.String("order_number", order.OrderNumber),
		zap.String("session_id", sessionID),
		zap.String("amount", order.Amount.StringFixed(2)),
	)
	return order, nil
}

// MarkPaid flags the order of sessionID as paid. It is only called for provider
// events whose signature checked out. Marking twice keeps the first paidAt; changed
// reports whether this call did the marking.
func (r *Recorder) MarkPaid(ctx context.Context, sessionID string) (order models.Order, changed bool, err error) {
	err = r.orders.Update(ctx, func(list []models.Order) ([]models.Order, error) {
		for i := range list {
			if list[i].SessionID != sessionID {
				continue
			}
			if list[i].Status != models.OrderPaid {
				paidAt := r.now()
				list[i].Status = models.OrderPaid
				list[i].PaidAt = &paidAt
				changed = true
			}
			order = list[i]
			return list, nil
		}
		return nil, apperr.ErrOrderNotFound
	})
	if err != nil {
		return models.Order{}, false, err
	}

	if changed {
		logger.Info(ctx, "✅ Order paid", zap.String("order_number", order.OrderNumber), zap.String("session_id", sessionID))
	}
	return order, changed, nil
}

func (r *Recorder) List(ctx context.Context) ([]models.Order, error) {
	return r.orders.Load(ctx)
}
