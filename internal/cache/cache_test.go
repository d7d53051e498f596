package cache

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog_back_end/internal/models"
)

func newTestRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: "localhost:0",
		Dialer: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, errors.New("redis disabled in tests")
		},
		MaxRetries: -1,
	})
}

func TestUnreachableRedisIsAMiss(t *testing.T) {
	c := NewProductCache(newTestRedisClient(), 0)
	ctx := context.Background()

	c.SetProducts(ctx, []models.Product{{ID: 1, Title: "Shirt"}})
	products, ok := c.Products(ctx)
	assert.False(t, ok)
	assert.Nil(t, products)
	c.Invalidate(ctx)
}

func TestDefaultTTL(t *testing.T) {
	c := NewProductCache(newTestRedisClient(), 0)
	assert.Equal(t, ProductCacheTTL, c.ttl)
}

func TestCodecKeepsWireShape(t *testing.T) {
	in := []models.Product{{
		ID:      1700000000000,
		Title:   "Shirt",
		Price:   decimal.RequireFromString("19.99"),
		Primary: models.VideoMedia("/uploads/1-a.mp4"),
		Images:  []string{"/uploads/2-b.png"},
		Sizes:   []string{"M"},
	}}

	data, err := encode(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"video":"/uploads/1-a.mp4"`)

	out, err := decode(data)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].Primary.IsVideo())
	assert.True(t, in[0].Price.Equal(out[0].Price))
	assert.Equal(t, in[0].Images, out[0].Images)
}

func TestCodecEmptyList(t *testing.T) {
	data, err := encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	out, err := decode(data)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)

	_, err = decode([]byte("{"))
	assert.Error(t, err)
}

func TestConnectRejectsEmptyAddress(t *testing.T) {
	_, err := Connect(context.Background(), "", "")
	assert.Error(t, err)
}
