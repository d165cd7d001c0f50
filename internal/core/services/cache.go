package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
	"github.com/custodia-labs/scribe/internal/logger"
)

// DefaultCacheTTL is how long a cached answer stays fresh.
const DefaultCacheTTL = time.Hour

// RetrievalCache stores answers keyed by normalised question and index
// version. Backend failures never fail a query: reads degrade to a miss and
// writes are skipped.
type RetrievalCache struct {
	store driven.CacheStore
	ttl   time.Duration
	now   func() time.Time
}

// NewRetrievalCache creates a cache over store. A non-positive ttl uses
// DefaultCacheTTL.
func NewRetrievalCache(store driven.CacheStore, ttl time.Duration) *RetrievalCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RetrievalCache{store: store, ttl: ttl, now: time.Now}
}

// TTL returns the configured time-to-live.
func (c *RetrievalCache) TTL() time.Duration {
	return c.ttl
}

// NormalizeQuery folds a question to its cache identity: NFKC, full case
// fold, whitespace runs collapsed to one space, trimmed.
func NormalizeQuery(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// CacheKey derives the cache key of q against one index version. q's
// generation config must already be sanitised. k is the effective top-k.
func CacheKey(q domain.Query, version, k int) string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(q.SRDID)
	write(NormalizeQuery(q.Text))
	write(strconv.FormatBool(q.UseGenerative))
	write(strconv.Itoa(version))
	write(variant(q, k))
	return hex.EncodeToString(h.Sum(nil))
}

// variant separates answers that share a question but not their settings.
func variant(q domain.Query, k int) string {
	var b strings.Builder
	b.WriteString("k=")
	b.WriteString(strconv.Itoa(k))
	if !q.UseGenerative {
		return b.String()
	}
	if q.Conversational {
		b.WriteString(";conv")
	}
	if !q.Generation.IsZero() {
		cfg, err := json.Marshal(q.Generation)
		if err == nil {
			b.WriteString(";gen=")
			b.Write(cfg)
		}
	}
	return b.String()
}

// Get returns the live entry for key, if any. Entries that expired or were
// built against another version are misses. Expired entries are left for
// Purge.
func (c *RetrievalCache) Get(ctx context.Context, key string, version int) (*domain.CacheEntry, bool) {
	entry, err := c.store.GetEntry(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		logger.Warn("retrieval cache read failed, treating as miss: %v", err)
		return nil, false
	}
	if entry.Version != version {
		logger.Debug("cache entry %.12s is for v%d, current v%d", key, entry.Version, version)
		return nil, false
	}
	if entry.Expired(c.now()) {
		logger.Debug("cache entry %.12s expired", key)
		return nil, false
	}
	return entry, true
}

// Put stores an answer. Empty answers are never cached.
func (c *RetrievalCache) Put(ctx context.Context, entry domain.CacheEntry) {
	if strings.TrimSpace(entry.Answer) == "" {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = c.now()
	}
	if entry.TTL <= 0 {
		entry.TTL = c.ttl
	}
	if err := c.store.PutEntry(ctx, &entry); err != nil {
		logger.Warn("retrieval cache write failed, skipping: %v", err)
	}
}

// Purge deletes entries expired as of now.
func (c *RetrievalCache) Purge(ctx context.Context, now time.Time) (int, error) {
	return c.store.Purge(ctx, now)
}
