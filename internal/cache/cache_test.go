package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	c := New(mini.Addr(), "", 0, zerolog.Nop())
	t.Cleanup(func() { _ = c.Close() })
	return c, mini
}

func TestNew_EmptyAddrDisables(t *testing.T) {
	c := New("", "", 0, zerolog.Nop())
	assert.Nil(t, c)
	assert.False(t, c.Enabled())
}

func TestNilClient_IsNoop(t *testing.T) {
	var c *Client
	ctx := context.Background()

	data, err := c.Get(ctx, "user:1")
	assert.NoError(t, err)
	assert.Nil(t, data)

	c.Set(ctx, "user:1", []byte("x"), time.Minute)
	c.SetJSON(ctx, "user:1", map[string]string{"id": "1"}, time.Minute)
	c.Delete(ctx, "user:1")
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())

	var dst map[string]string
	assert.False(t, c.GetJSON(ctx, "user:1", &dst))
}

func TestUnreachableRedis_FailsSafe(t *testing.T) {
	// Nothing listens on port 1; every call fails fast and is swallowed.
	c := New("127.0.0.1:1", "", 0, zerolog.Nop())
	assert.True(t, c.Enabled())
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := c.Get(ctx, "user:1")
	assert.NoError(t, err)
	assert.Nil(t, data)
	c.Set(ctx, "user:1", []byte("x"), time.Minute)
	c.Delete(ctx, "user:1")
	assert.Error(t, c.Ping(ctx))
}

func TestClient_JSONRoundTrip(t *testing.T) {
	c, mini := newTestClient(t)
	ctx := context.Background()

	type entry struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	c.SetJSON(ctx, "user:1", entry{ID: "user_1", Name: "Ann"}, time.Minute)
	assert.True(t, mini.Exists("user:1"))

	var got entry
	require.True(t, c.GetJSON(ctx, "user:1", &got))
	assert.Equal(t, entry{ID: "user_1", Name: "Ann"}, got)

	mini.FastForward(2 * time.Minute)
	assert.False(t, c.GetJSON(ctx, "user:1", &got))
}

func TestClient_DeleteAndCorruptEntries(t *testing.T) {
	c, mini := newTestClient(t)
	ctx := context.Background()

	c.Set(ctx, "user:1", []byte("x"), time.Minute)
	c.Delete(ctx, "user:1")
	assert.False(t, mini.Exists("user:1"))

	require.NoError(t, mini.Set("user:2", "{not json"))
	var dst map[string]string
	assert.False(t, c.GetJSON(ctx, "user:2", &dst))
}

func TestClient_SetJSONSkipsUnencodable(t *testing.T) {
	c, mini := newTestClient(t)

	c.SetJSON(context.Background(), "user:1", make(chan int), time.Minute)
	assert.False(t, mini.Exists("user:1"))
}

func TestClient_Ping(t *testing.T) {
	c, mini := newTestClient(t)
	assert.NoError(t, c.Ping(context.Background()))

	mini.Close()
	assert.Error(t, c.Ping(context.Background()))
}
