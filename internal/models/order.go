package models

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending OrderStatus = "pending"
	OrderPaid    OrderStatus = "paid"
)

// Order summarizes a checkout session at the moment it was created. It records an
// intent to pay; Status only moves to paid on a verified provider event.
type Order struct {
	Label       string          `json:"label"`
	OrderNumber string          `json:"orderNumber"`
	SessionID   string          `json:"sessionId"`
	Items       []LineItem      `json:"items"`
	Amount      decimal.Decimal `json:"amount"`
	Status      OrderStatus     `json:"status,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	PaidAt      *time.Time      `json:"paidAt,omitempty"`
}

type ProductData struct {
	Name string `json:"name"`
}

type PriceData struct {
	Currency    string           `json:"currency"`
	ProductData *ProductData     `json:"product_data,omitempty"`
	UnitAmount  *decimal.Decimal `json:"unit_amount,omitempty"`
}

// LineItem is one submitted checkout line. Amounts are in minor currency units.
// The submitted JSON is kept as-is and written back verbatim.
type LineItem struct {
	PriceData *PriceData       `json:"price_data,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Quantity  *int64           `json:"quantity,omitempty"`

	raw jsoniter.RawMessage
}

type lineItemFields LineItem

func (li *LineItem) UnmarshalJSON(data []byte) error {
	var f lineItemFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*li = LineItem(f)
	li.raw = append(jsoniter.RawMessage(nil), data...)
	return nil
}

func (li LineItem) MarshalJSON() ([]byte, error) {
	if len(li.raw) > 0 {
		return li.raw, nil
	}
	return json.Marshal(lineItemFields(li))
}

// UnitAmount resolves the per-unit minor amount from price_data.unit_amount, amount
// or price, in that order.
func (li LineItem) UnitAmount() (decimal.Decimal, bool) {
	switch {
	case li.PriceData != nil && li.PriceData.UnitAmount != nil:
		return *li.PriceData.UnitAmount, true
	case li.Amount != nil:
		return *li.Amount, true
	case li.Price != nil:
		return *li.Price, true
	}
	return decimal.Zero, false
}

// Qty defaults to 1 when the quantity was not submitted.
func (li LineItem) Qty() int64 {
	if li.Quantity == nil {
		return 1
	}
	return *li.Quantity
}

func (li LineItem) Name() string {
	if li.PriceData != nil && li.PriceData.ProductData != nil {
		return li.PriceData.ProductData.Name
	}
	return ""
}

func (li LineItem) Currency() string {
	if li.PriceData != nil {
		return li.PriceData.Currency
	}
	return ""
}
