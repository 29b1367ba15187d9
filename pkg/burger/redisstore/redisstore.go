// Package redisstore persists burgers in Redis.
//
// Each burger is a JSON string under "<prefix>:burger:<id>". IDs come from INCR on
// "<prefix>:burger:seq" and a sorted set "<prefix>:burgers" keeps them ordered.
// Update and Delete run under WATCH so a concurrent writer aborts the transaction.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/samber/mo"

	"burgerapi/pkg/burger"
)

// DefaultPrefix namespaces keys when none is configured.
const DefaultPrefix = "burgers"

// Repository implements burger.Repository over a Redis client.
type Repository struct {
	rdb    redis.UniversalClient
	prefix string
}

// New creates a Redis backed repository. The caller owns rdb.
func New(rdb redis.UniversalClient, prefix string) *Repository {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Repository{rdb: rdb, prefix: prefix}
}

func (r *Repository) key(id int64) string {
	return r.prefix + ":burger:" + strconv.FormatInt(id, 10)
}

func (r *Repository) seqKey() string   { return r.prefix + ":burger:seq" }
func (r *Repository) indexKey() string { return r.prefix + ":burgers" }

// Ping verifies that Redis is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// ListAll returns all burgers ordered by ID.
func (r *Repository) ListAll(ctx context.Context) ([]burger.Burger, error) {
	ids, err := r.rdb.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing burger ids: %w", err)
	}
	burgers := []burger.Burger{}
	if len(ids) == 0 {
		return burgers, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.prefix + ":burger:" + id
	}
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("loading burgers: %w", err)
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			// deleted between ZRANGE and MGET
			continue
		}
		var b burger.Burger
		if err := decode(s, &b); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", keys[i], err)
		}
		burgers = append(burgers, b)
	}
	return burgers, nil
}

// GetByID retrieves a burger by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (mo.Option[burger.Burger], error) {
	s, err := r.rdb.Get(ctx, r.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return mo.None[burger.Burger](), nil
	}
	if err != nil {
		return mo.None[burger.Burger](), fmt.Errorf("getting burger %d: %w", id, err)
	}
	var b burger.Burger
	if err := decode(s, &b); err != nil {
		return mo.None[burger.Burger](), fmt.Errorf("decoding burger %d: %w", id, err)
	}
	return mo.Some(b), nil
}

// Insert stores the burger under the next ID of the sequence.
func (r *Repository) Insert(ctx context.Context, b burger.Burger) (burger.Burger, error) {
	id, err := r.rdb.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return burger.Burger{}, fmt.Errorf("allocating burger id: %w", err)
	}
	b.ID = id
	b.Version = 1
	payload, err := encode(b)
	if err != nil {
		return burger.Burger{}, err
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(id), payload, 0)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(id), Member: strconv.FormatInt(id, 10)})
		return nil
	})
	if err != nil {
		return burger.Burger{}, fmt.Errorf("inserting burger %d: %w", id, err)
	}
	return b, nil
}

// Update replaces an existing burger.
func (r *Repository) Update(ctx context.Context, b burger.Burger) (burger.Burger, error) {
	key := r.key(b.ID)
	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		s, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return burger.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("reading burger %d: %w", b.ID, err)
		}
		var cur burger.Burger
		if err := decode(s, &cur); err != nil {
			return fmt.Errorf("decoding burger %d: %w", b.ID, err)
		}
		if b.Version != 0 && b.Version != cur.Version {
			return burger.ErrConflict
		}

		b.Version = cur.Version + 1
		payload, err := encode(b)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}, key)
	switch {
	case err == nil:
		return b, nil
	case errors.Is(err, redis.TxFailedErr):
		return burger.Burger{}, burger.ErrConflict
	case errors.Is(err, burger.ErrNotFound), errors.Is(err, burger.ErrConflict):
		return burger.Burger{}, err
	default:
		return burger.Burger{}, fmt.Errorf("updating burger %d: %w", b.ID, err)
	}
}

// Delete removes a burger by ID and returns it.
func (r *Repository) Delete(ctx context.Context, id int64) (mo.Option[burger.Burger], error) {
	key := r.key(id)
	removed := mo.None[burger.Burger]()
	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		s, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading burger %d: %w", id, err)
		}
		var b burger.Burger
		if err := decode(s, &b); err != nil {
			return fmt.Errorf("decoding burger %d: %w", id, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.ZRem(ctx, r.indexKey(), strconv.FormatInt(id, 10))
			return nil
		})
		if err == nil {
			removed = mo.Some(b)
		}
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return mo.None[burger.Burger](), burger.ErrConflict
	}
	if err != nil {
		return mo.None[burger.Burger](), fmt.Errorf("deleting burger %d: %w", id, err)
	}
	return removed, nil
}

// record is the stored form; Version is not part of the public JSON.
type record struct {
	burger.Burger
	Version int64 `json:"version"`
}

func encode(b burger.Burger) (string, error) {
	raw, err := json.Marshal(record{Burger: b, Version: b.Version})
	if err != nil {
		return "", fmt.Errorf("encoding burger %d: %w", b.ID, err)
	}
	return string(raw), nil
}

func decode(s string, b *burger.Burger) error {
	var rec record
	if err := json.Unmarshal([]byte(s), &rec); err != nil {
		return err
	}
	*b = rec.Burger
	b.Version = rec.Version
	return nil
}
