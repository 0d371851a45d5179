package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"vozsegura/internal/derivation/models"
	id "vozsegura/pkg/domain"
)

const (
	defaultKeyPrefix = "vozsegura:policy"
	generationSuffix = ":gen"
)

// Redis is a Cache shared by every replica. Invalidate bumps a generation
// counter that is part of every key, so stale entries become unreachable and
// expire on their own TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, prefix: defaultKeyPrefix}
}

func (r *Redis) Generation(ctx context.Context) (int64, error) {
	v, err := r.client.Get(ctx, r.prefix+generationSuffix).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache generation: %w", err)
	}
	gen, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse cache generation: %w", err)
	}
	return gen, nil
}

func (r *Redis) key(gen int64, kind, suffix string) string {
	return fmt.Sprintf("%s:%d:%s:%s", r.prefix, gen, kind, suffix)
}

func (r *Redis) currentKey(ctx context.Context, kind, suffix string) (string, error) {
	gen, err := r.Generation(ctx)
	if err != nil {
		return "", err
	}
	return r.key(gen, kind, suffix), nil
}

func (r *Redis) get(ctx context.Context, key string, v any) (bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode cached value: %w", err)
	}
	return true, nil
}

func (r *Redis) put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cached value: %w", err)
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) GetEffective(ctx context.Context, onDate time.Time) (*models.Policy, bool, error) {
	key, err := r.currentKey(ctx, "effective", dateKey(onDate))
	if err != nil {
		return nil, false, err
	}
	var p models.Policy
	ok, err := r.get(ctx, key, &p)
	if err != nil || !ok {
		return nil, false, err
	}
	return &p, true, nil
}

// PutEffective writes under gen. An entry written for a superseded
// generation is never read and expires on its TTL.
func (r *Redis) PutEffective(ctx context.Context, gen int64, onDate time.Time, policy *models.Policy) error {
	if policy == nil {
		return nil
	}
	return r.put(ctx, r.key(gen, "effective", dateKey(onDate)), policy)
}

func (r *Redis) GetRules(ctx context.Context, policyID id.PolicyID) ([]models.ResolvedRule, bool, error) {
	key, err := r.currentKey(ctx, "rules", policyID.String())
	if err != nil {
		return nil, false, err
	}
	var rules []models.ResolvedRule
	ok, err := r.get(ctx, key, &rules)
	if err != nil || !ok {
		return nil, false, err
	}
	return rules, true, nil
}

func (r *Redis) PutRules(ctx context.Context, gen int64, policyID id.PolicyID, rules []models.ResolvedRule) error {
	return r.put(ctx, r.key(gen, "rules", policyID.String()), rules)
}

func (r *Redis) Invalidate(ctx context.Context) error {
	if err := r.client.Incr(ctx, r.prefix+generationSuffix).Err(); err != nil {
		return fmt.Errorf("bump cache generation: %w", err)
	}
	return nil
}
