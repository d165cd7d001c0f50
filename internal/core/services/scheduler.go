package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/scribe/internal/core/ports/driving"
	"github.com/custodia-labs/scribe/internal/logger"
)

// CacheJanitor purges expired retrieval cache entries on an interval while
// a long-running adapter (MCP server, upload watcher) is up. Reads already
// ignore expired entries; the janitor only reclaims space.
type CacheJanitor struct {
	srds     driving.SRDService
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewCacheJanitor creates a janitor. A non-positive interval disables it.
func NewCacheJanitor(srds driving.SRDService, interval time.Duration) *CacheJanitor {
	return &CacheJanitor{
		srds:     srds,
		interval: interval,
		now:      time.Now,
	}
}

// Start runs the purge loop in the background until Stop is called or ctx
// is done.
func (j *CacheJanitor) Start(ctx context.Context) {
	if j.interval <= 0 {
		return
	}

	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.stopCh = make(chan struct{})
	stop := j.stopCh
	j.mu.Unlock()

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.run(ctx, stop)
	}()
}

// Stop halts the loop and waits for an in-flight purge.
func (j *CacheJanitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	close(j.stopCh)
	j.mu.Unlock()

	j.wg.Wait()
}

func (j *CacheJanitor) run(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			j.purge(ctx)
		}
	}
}

func (j *CacheJanitor) purge(ctx context.Context) {
	n, err := j.srds.PurgeCache(ctx, j.now())
	if err != nil {
		logger.Warn("cache purge failed: %v", err)
		return
	}
	if n > 0 {
		logger.Debug("purged %d expired cache entries", n)
	}
}
