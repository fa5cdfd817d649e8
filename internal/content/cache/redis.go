// Package cache wraps a content store with a Redis read-through layer for
// the id-keyed lookups that dominate projection traffic.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/headwaycms/headway/internal/content"
	"github.com/headwaycms/headway/pkg/metrics"
)

// Store caches NodeByID, Media and TermByID. Every other method passes
// through to the wrapped store unchanged. Cache failures degrade to the
// backing store rather than surfacing to callers.
type Store struct {
	content.Store
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func New(backing content.Store, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *Store {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Store{Store: backing, rdb: rdb, ttl: ttl, log: log}
}

func (s *Store) NodeByID(ctx context.Context, id int) (*content.Node, error) {
	key := fmt.Sprintf("headway:node:%d", id)
	var n content.Node
	if s.lookup(ctx, key, "node", &n) {
		return &n, nil
	}
	fresh, err := s.Store.NodeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.save(ctx, key, fresh)
	return fresh, nil
}

func (s *Store) Media(ctx context.Context, id int) (*content.MediaRecord, error) {
	key := fmt.Sprintf("headway:media:%d", id)
	var r content.MediaRecord
	if s.lookup(ctx, key, "media", &r) {
		return &r, nil
	}
	fresh, err := s.Store.Media(ctx, id)
	if err != nil {
		return nil, err
	}
	s.save(ctx, key, fresh)
	return fresh, nil
}

func (s *Store) TermByID(ctx context.Context, id int) (*content.Term, error) {
	key := fmt.Sprintf("headway:term:%d", id)
	var t content.Term
	if s.lookup(ctx, key, "term", &t) {
		return &t, nil
	}
	fresh, err := s.Store.TermByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.save(ctx, key, fresh)
	return fresh, nil
}

// Invalidate drops the cached copies of one node and anything id-keyed with
// it. Sync jobs call this after writing to the backing store.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.log.Warn("cache invalidate failed", "err", err)
	}
}

func (s *Store) lookup(ctx context.Context, key, entity string, dst any) bool {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("cache read failed", "key", key, "err", err)
		}
		metrics.CacheMisses.WithLabelValues(entity).Inc()
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.log.Warn("cache entry corrupt", "key", key, "err", err)
		metrics.CacheMisses.WithLabelValues(entity).Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues(entity).Inc()
	return true
}

func (s *Store) save(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.log.Warn("cache write failed", "key", key, "err", err)
	}
}
