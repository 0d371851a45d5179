package secrets

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vozsegura/pkg/platform/sentinel"
)

const hexKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestDecodeKey(t *testing.T) {
	fromHex, err := DecodeKey(hexKey)
	require.NoError(t, err)
	assert.Len(t, fromHex, 32)

	fromB64, err := DecodeKey(base64.StdEncoding.EncodeToString(fromHex))
	require.NoError(t, err)
	assert.Equal(t, fromHex, fromB64)

	_, err = DecodeKey("%%%")
	assert.Error(t, err)
}

func TestStatic(t *testing.T) {
	p, err := NewStatic(map[string]string{"payload-master": hexKey, "unset": ""})
	require.NoError(t, err)

	k, err := p.GetKey(context.Background(), "payload-master")
	require.NoError(t, err)
	assert.Len(t, k, 32)

	_, err = p.GetKey(context.Background(), "unset")
	assert.True(t, errors.Is(err, sentinel.ErrUnavailable))

	_, err = NewStatic(map[string]string{"bad": "%%%"})
	assert.Error(t, err)
}

type countingProvider struct {
	calls int
	err   error
}

func (c *countingProvider) GetKey(context.Context, string) ([]byte, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []byte("0123456789abcdef0123456789abcdef"), nil
}

func TestCaching(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	next := &countingProvider{}
	c := NewCaching(next, time.Minute, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	for range 3 {
		_, err := c.GetKey(ctx, "k")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, next.calls)

	now = now.Add(2 * time.Minute)
	_, err := c.GetKey(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls, "expired entries are refetched")

	c.Invalidate()
	_, err = c.GetKey(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 3, next.calls)

	next.err = errors.New("down: " + sentinel.ErrUnavailable.Error())
	c.Invalidate()
	_, err = c.GetKey(ctx, "k")
	assert.Error(t, err)
	_, err = c.GetKey(ctx, "k")
	assert.Error(t, err)
	assert.Equal(t, 5, next.calls, "failures are not cached")
}
