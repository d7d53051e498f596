package orders

import (
	"context"
	stdjson "encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog_back_end/internal/apperr"
	"catalog_back_end/internal/models"
	"catalog_back_end/internal/store"
)

func newRecorder(t *testing.T) (*Recorder, *store.JSONFile[models.Order]) {
	t.Helper()
	file := store.NewJSONFile[models.Order](filepath.Join(t.TempDir(), "orders.json"))
	r := NewRecorder(file)
	r.now = func() time.Time { return time.UnixMilli(1700000000000).UTC() }
	return r, file
}

func items(t *testing.T, raw string) []models.LineItem {
	t.Helper()
	var out []models.LineItem
	require.NoError(t, stdjson.Unmarshal([]byte(raw), &out))
	return out
}

func TestTotal(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`[{"price_data":{"currency":"usd","unit_amount":2500},"quantity":1}]`, "25.00"},
		{`[{"price_data":{"unit_amount":1999},"quantity":2},{"amount":1},{"price":100,"quantity":3}]`, "43.01"},
		{`[{"quantity":4}]`, "0"},
		{`[{"amount":250,"quantity":0}]`, "0"},
	}
	for _, c := range cases {
		got := Total(items(t, c.raw))
		assert.True(t, decimal.RequireFromString(c.want).Equal(got), "%s: got %s", c.raw, got)
	}
}

func TestRecordOrder(t *testing.T) {
	ctx := context.Background()
	r, file := newRecorder(t)

	order, err := r.Record(ctx, "cs_test_1", items(t, `[{"price_data":{"currency":"usd","product_data":{"name":"Shirt"},"unit_amount":2500},"quantity":1}]`))
	require.NoError(t, err)

	assert.Equal(t, "Order #1", order.Label)
	assert.Equal(t, "ORD-1700000000000", order.OrderNumber)
	assert.Equal(t, "cs_test_1", order.SessionID)
	assert.Equal(t, "25.00", order.Amount.StringFixed(2))
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Nil(t, order.PaidAt)

	second, err := r.Record(ctx, "cs_test_2", items(t, `[{"amount":100}]`))
	require.NoError(t, err)
	assert.Equal(t, "Order #2", second.Label)

	stored, err := file.Load(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "cs_test_1", stored[0].SessionID)
	assert.True(t, decimal.RequireFromString("25").Equal(stored[0].Amount))
}

func TestRecordKeepsItemsVerbatim(t *testing.T) {
	ctx := context.Background()
	r, file := newRecorder(t)

	raw := `{"price_data":{"currency":"usd","product_data":{"name":"Shirt"},"unit_amount":1999},"quantity":1,"extra":{"size":"XL"}}`
	_, err := r.Record(ctx, "cs_1", items(t, "["+raw+"]"))
	require.NoError(t, err)

	data, err := os.ReadFile(file.Path())
	require.NoError(t, err)
	var stored []struct {
		Items []stdjson.RawMessage `json:"items"`
	}
	require.NoError(t, stdjson.Unmarshal(data, &stored))
	require.Len(t, stored, 1)
	assert.JSONEq(t, raw, string(stored[0].Items[0]))
}

func TestRecordRejectsEmptyCart(t *testing.T) {
	r, file := newRecorder(t)
	_, err := r.Record(context.Background(), "cs_1", nil)
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)

	_, err = os.Stat(file.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestMarkPaid(t *testing.T) {
	ctx := context.Background()
	r, _ := newRecorder(t)
	_, err := r.Record(ctx, "cs_1", items(t, `[{"amount":500}]`))
	require.NoError(t, err)

	paidAt := time.UnixMilli(1700000100000).UTC()
	r.now = func() time.Time { return paidAt }
	order, changed, err := r.MarkPaid(ctx, "cs_1")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.OrderPaid, order.Status)
	require.NotNil(t, order.PaidAt)
	assert.True(t, paidAt.Equal(*order.PaidAt))

	r.now = func() time.Time { return paidAt.Add(time.Hour) }
	again, changed, err := r.MarkPaid(ctx, "cs_1")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, paidAt.Equal(*again.PaidAt))

	_, _, err = r.MarkPaid(ctx, "cs_unknown")
	assert.ErrorIs(t, err, apperr.ErrOrderNotFound)

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.OrderPaid, list[0].Status)
}
