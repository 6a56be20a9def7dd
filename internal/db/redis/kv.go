package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docqa/internal/db"
)

// Get returns the value at key or db.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).AsBytes()
	switch {
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, &db.Error{Op: db.OpGet, Key: key, Err: err}
	}
	return data, nil
}

// MGet fetches all keys in one round trip. Missing keys yield nil entries.
func (s *Store) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	replies, err := s.client.Do(ctx, s.client.B().Mget().Key(keys...).Build()).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpMGet, Err: err}
	}
	if len(replies) != len(keys) {
		return nil, &db.Error{Op: db.OpMGet, Err: fmt.Errorf("%d replies for %d keys", len(replies), len(keys))}
	}

	out := make([][]byte, len(keys))
	for i, r := range replies {
		if r.IsNil() {
			continue
		}
		if out[i], err = r.AsBytes(); err != nil {
			return nil, &db.Error{Op: db.OpMGet, Key: keys[i], Err: err}
		}
	}
	return out, nil
}

// SetWithTTL stores value at key. ttl <= 0 stores without expiry.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Do(ctx, s.set(key, value, ttl)).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Key: key, Err: err}
	}
	return nil
}

// SetMultiWithTTL pipelines one SET per item. The first failed write is reported.
func (s *Store) SetMultiWithTTL(ctx context.Context, items []db.KVItem, ttl time.Duration) error {
	if len(items) == 0 {
		return nil
	}
	cmds := make([]rueidis.Completed, 0, len(items))
	for _, it := range items {
		cmds = append(cmds, s.set(it.Key, it.Value, ttl))
	}
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpSet, Key: items[i].Key, Err: err}
		}
	}
	return nil
}

// IncrByWithTTL pipelines INCRBY and EXPIRE NX so a counter gets its lifetime
// on first write and keeps it on every later one.
func (s *Store) IncrByWithTTL(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	b := s.client.B()
	cmds := []rueidis.Completed{b.Incrby().Key(key).Increment(delta).Build()}
	if secs := int64(ttl / time.Second); secs > 0 {
		cmds = append(cmds, b.Expire().Key(key).Seconds(secs).Nx().Build())
	}

	results := s.client.DoMulti(ctx, cmds...)
	n, err := results[0].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpIncrBy, Key: key, Err: err}
	}
	for _, res := range results[1:] {
		if err := res.Error(); err != nil {
			return n, &db.Error{Op: db.OpIncrBy, Key: key, Err: fmt.Errorf("expire: %w", err)}
		}
	}
	return n, nil
}

func (s *Store) set(key string, value []byte, ttl time.Duration) rueidis.Completed {
	cmd := s.client.B().Set().Key(key).Value(rueidis.BinaryString(value))
	if ttl > 0 {
		return cmd.Ex(ttl).Build()
	}
	return cmd.Build()
}
