// Package secrets provides the payload master key used to seal complaints for
// delivery. Every provider failure wraps sentinel.ErrUnavailable; callers treat
// it as a retryable key outage and never attempt delivery without a key.
package secrets

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"vozsegura/pkg/platform/sentinel"
)

// KeyProvider returns raw key material by name.
type KeyProvider interface {
	GetKey(ctx context.Context, name string) ([]byte, error)
}

// DecodeKey accepts 64-char hex or standard/raw base64 encodings.
func DecodeKey(raw string) ([]byte, error) {
	if len(raw) == 64 {
		if decoded, err := hex.DecodeString(raw); err == nil {
			return decoded, nil
		}
	}
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
		return decoded, nil
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(raw); err == nil {
		return decoded, nil
	}
	return nil, fmt.Errorf("key is neither hex nor base64")
}

// Static serves keys configured at startup, typically from the environment.
type Static struct {
	keys map[string][]byte
}

// NewStatic decodes every encoded key up front so misconfiguration fails at boot.
func NewStatic(encoded map[string]string) (*Static, error) {
	keys := make(map[string][]byte, len(encoded))
	for name, raw := range encoded {
		if raw == "" {
			continue
		}
		k, err := DecodeKey(raw)
		if err != nil {
			return nil, fmt.Errorf("decode key %q: %w", name, err)
		}
		keys[name] = k
	}
	return &Static{keys: keys}, nil
}

func (s *Static) GetKey(_ context.Context, name string) ([]byte, error) {
	k, ok := s.keys[name]
	if !ok {
		return nil, fmt.Errorf("key %q not configured: %w", name, sentinel.ErrUnavailable)
	}
	return append([]byte(nil), k...), nil
}

type cachedKey struct {
	key       []byte
	expiresAt time.Time
}

// Caching keeps keys from a slower provider for ttl. Failures are not cached.
type Caching struct {
	next KeyProvider
	ttl  time.Duration
	now  func() time.Time

	mu   sync.Mutex
	keys map[string]cachedKey
}

type CachingOption func(*Caching)

func WithClock(now func() time.Time) CachingOption {
	return func(c *Caching) {
		c.now = now
	}
}

func NewCaching(next KeyProvider, ttl time.Duration, opts ...CachingOption) *Caching {
	c := &Caching{
		next: next,
		ttl:  ttl,
		now:  time.Now,
		keys: make(map[string]cachedKey),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Caching) GetKey(ctx context.Context, name string) ([]byte, error) {
	c.mu.Lock()
	entry, ok := c.keys[name]
	c.mu.Unlock()
	if ok && c.now().Before(entry.expiresAt) {
		return append([]byte(nil), entry.key...), nil
	}

	k, err := c.next.GetKey(ctx, name)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.keys[name] = cachedKey{key: append([]byte(nil), k...), expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return k, nil
}

// Invalidate drops every cached key, forcing the next lookup to the provider.
func (c *Caching) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.keys)
}
