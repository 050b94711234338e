// Package catalog adapts the external catalog store for the pricing core.
// The catalog is read-only from this side: fetches are retried a small
// bounded number of times, successful payloads refresh a last-known-good
// snapshot in Redis, and when the upstream store is unreachable the snapshot
// is served instead. Stale data is tolerated; stored item totals are
// snapshotted at computation time and never re-priced.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"craftbid/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	fetchAttempts = 3
	fetchBackoff  = 200 * time.Millisecond

	snapshotKey = "catalog:snapshot"
)

// Source fetches the full catalog from wherever it lives.
type Source interface {
	Fetch(ctx context.Context) (*domain.Catalog, error)
}

// HTTPSource reads the catalog document from the catalog store's HTTP
// endpoint with a bounded request timeout.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a source for the given catalog URL.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) (*domain.Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog store returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}

	var catalog domain.Catalog
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, fmt.Errorf("failed to decode catalog payload: %w", err)
	}

	return &catalog, nil
}

// Store serves catalog reads for the core. Lookups go through a short
// in-memory TTL cache; misses fetch from the source with bounded retries and
// fall back to the Redis last-known-good snapshot when the source stays down.
type Store struct {
	source Source
	redis  *redis.Client
	logger *zap.Logger
	ttl    time.Duration

	mu        sync.RWMutex
	cached    *domain.Catalog
	fetchedAt time.Time
}

// NewStore creates a catalog store. redisClient may be nil, in which case no
// cross-process snapshot is kept.
func NewStore(source Source, redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		source: source,
		redis:  redisClient,
		logger: logger,
		ttl:    ttl,
	}
}

// Catalog returns the current catalog, preferring (in order) the fresh
// in-memory copy, the upstream store, the Redis snapshot, and finally a stale
// in-memory copy. Only when all four fail does it return
// DependencyUnavailableError.
func (s *Store) Catalog(ctx context.Context) (*domain.Catalog, error) {
	s.mu.RLock()
	if s.cached != nil && time.Since(s.fetchedAt) < s.ttl {
		catalog := s.cached
		s.mu.RUnlock()
		return catalog, nil
	}
	s.mu.RUnlock()

	catalog, err := s.fetchWithRetry(ctx)
	if err == nil {
		s.remember(ctx, catalog)
		return catalog, nil
	}

	s.logger.Warn("Catalog store unreachable, falling back to snapshot", zap.Error(err))

	if snapshot := s.loadSnapshot(ctx); snapshot != nil {
		s.mu.Lock()
		s.cached = snapshot
		s.fetchedAt = time.Now()
		s.mu.Unlock()
		return snapshot, nil
	}

	s.mu.RLock()
	stale := s.cached
	s.mu.RUnlock()
	if stale != nil {
		return stale, nil
	}

	return nil, &domain.DependencyUnavailableError{Dependency: "catalog", Err: err}
}

func (s *Store) fetchWithRetry(ctx context.Context) (*domain.Catalog, error) {
	var catalog *domain.Catalog
	backoff := retry.WithMaxRetries(fetchAttempts-1, retry.NewConstant(fetchBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		fetched, err := s.source.Fetch(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		catalog = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

func (s *Store) remember(ctx context.Context, catalog *domain.Catalog) {
	s.mu.Lock()
	s.cached = catalog
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	if s.redis == nil {
		return
	}

	// Snapshot refresh is best effort; a Redis outage must not fail reads.
	payload, err := json.Marshal(catalog)
	if err != nil {
		s.logger.Error("Failed to encode catalog snapshot", zap.Error(err))
		return
	}
	if err := s.redis.Set(ctx, snapshotKey, payload, 0).Err(); err != nil {
		s.logger.Warn("Failed to store catalog snapshot", zap.Error(err))
	}
}

func (s *Store) loadSnapshot(ctx context.Context) *domain.Catalog {
	if s.redis == nil {
		return nil
	}

	payload, err := s.redis.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("Failed to load catalog snapshot", zap.Error(err))
		}
		return nil
	}

	var catalog domain.Catalog
	if err := json.Unmarshal(payload, &catalog); err != nil {
		s.logger.Error("Corrupt catalog snapshot", zap.Error(err))
		return nil
	}

	return &catalog
}
