package cache

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"git.home.luguber.info/inful/docfetch/internal/fetch"
	"git.home.luguber.info/inful/docfetch/internal/metrics"
)

// Fetcher is the part of fetch.Client the memo needs.
type Fetcher interface {
	Fetch(ctx context.Context, url, userAgent string) (*fetch.Result, error)
}

// Memo wraps a Fetcher with a read-through cache. Fresh entries are
// served from the store; everything else goes to the network, with
// concurrent requests for the same key collapsed into one flight.
// Returned results are shared between callers and must not be mutated.
type Memo struct {
	fetcher  Fetcher
	store    Store
	policy   Policy
	recorder metrics.Recorder
	group    singleflight.Group
	now      func() time.Time
}

// NewMemo creates a memoizing fetcher. A nil recorder disables metrics.
func NewMemo(fetcher Fetcher, store Store, policy Policy, recorder metrics.Recorder) *Memo {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Memo{
		fetcher:  fetcher,
		store:    store,
		policy:   policy,
		recorder: recorder,
		now:      time.Now,
	}
}

// Fetch returns the cached outcome for (url, userAgent) when it is
// still fresh, and otherwise performs one network fetch shared by all
// concurrent callers of the same key. Classified failures are cached
// like successes; hard failures are returned uncached.
func (m *Memo) Fetch(ctx context.Context, url, userAgent string) (*fetch.Result, error) {
	key := Key{URL: url, UserAgent: userAgent}

	cached, err := m.store.Get(ctx, key)
	if err != nil {
		// A broken store lookup degrades to a plain fetch
		slog.Warn("Cache lookup failed", "url", url, "error", err)
	}
	if cached != nil && m.policy.Fresh(cached, m.now()) {
		m.recorder.IncCacheEvent(metrics.CacheHit)
		return cached.ToResult(), nil
	}
	if cached != nil {
		m.recorder.IncCacheEvent(metrics.CacheStale)
	} else {
		m.recorder.IncCacheEvent(metrics.CacheMiss)
	}

	v, err, _ := m.group.Do(key.ID(), func() (any, error) {
		return m.refresh(ctx, key, cached)
	})
	if err != nil {
		return nil, err
	}
	return v.(*fetch.Result), nil
}

// Invalidate drops the cached outcome for (url, userAgent).
func (m *Memo) Invalidate(ctx context.Context, url, userAgent string) error {
	return m.store.Delete(ctx, Key{URL: url, UserAgent: userAgent})
}

func (m *Memo) refresh(ctx context.Context, key Key, prev *Entry) (*fetch.Result, error) {
	result, err := m.fetcher.Fetch(ctx, key.URL, key.UserAgent)
	if err != nil {
		// Hard failures pass through uncached
		return nil, err
	}

	entry := FromResult(key, result, m.now())
	if !entry.Valid {
		m.trackFailure(entry, prev)
	}

	if err := m.store.Put(ctx, key, entry); err != nil {
		slog.Warn("Failed to update fetch cache", "url", key.URL, "error", err)
	} else {
		m.recorder.IncCacheEvent(metrics.CacheStore)
	}

	return result, nil
}

// trackFailure carries the failure streak over from the previous entry.
func (m *Memo) trackFailure(entry, prev *Entry) {
	if prev != nil && !prev.Valid {
		entry.FailureCount = prev.FailureCount + 1
		entry.FirstFailedAt = prev.FirstFailedAt
		if entry.FirstFailedAt.IsZero() {
			entry.FirstFailedAt = m.now()
		}
		return
	}
	entry.FailureCount = 1
	entry.FirstFailedAt = m.now()
}
