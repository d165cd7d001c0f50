package vectorindex

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// Index is an immutable in-memory vector index for one SRD version.
type Index struct {
	srdID     string
	version   int
	metric    domain.Metric
	dimension int
	builtAt   time.Time
	chunks    []domain.Chunk
	vectors   [][]float32
}

// Build creates an index from chunks and their vectors, paired by position.
// Every chunk must have a vector of the same dimension; partial sets are rejected.
// Vectors are copied, so callers may reuse their slices.
func Build(srdID string, version int, chunks []domain.Chunk, vectors [][]float32, metric domain.Metric) (*Index, error) {
	if _, err := domain.ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("%w: %d chunks but %d vectors", domain.ErrValidation, len(chunks), len(vectors))
	}

	dimension := 0
	if len(vectors) > 0 {
		dimension = len(vectors[0])
		if dimension == 0 {
			return nil, fmt.Errorf("%w: zero-length vector", domain.ErrValidation)
		}
	}

	idx := &Index{
		srdID:     srdID,
		version:   version,
		metric:    metric,
		dimension: dimension,
		builtAt:   time.Now().UTC(),
		chunks:    make([]domain.Chunk, len(chunks)),
		vectors:   make([][]float32, len(vectors)),
	}

	for i, v := range vectors {
		if len(v) != dimension {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, expected %d",
				domain.ErrValidation, i, len(v), dimension)
		}
		for _, x := range v {
			if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
				return nil, fmt.Errorf("%w: vector %d contains a non-finite value", domain.ErrValidation, i)
			}
		}
		if chunks[i].Index != i {
			return nil, fmt.Errorf("%w: chunk at position %d has index %d", domain.ErrValidation, i, chunks[i].Index)
		}
		idx.chunks[i] = chunks[i]
		idx.vectors[i] = slices.Clone(v)
	}

	return idx, nil
}

// SRDID returns the owning SRD.
func (x *Index) SRDID() string { return x.srdID }

// Version returns the ingestion version the index was built from.
func (x *Index) Version() int { return x.version }

// Metric returns the build metric.
func (x *Index) Metric() domain.Metric { return x.metric }

// Dimension returns the vector dimension, or 0 for an empty index.
func (x *Index) Dimension() int { return x.dimension }

// BuiltAt returns the build timestamp.
func (x *Index) BuiltAt() time.Time { return x.builtAt }

// Len returns the number of chunks.
func (x *Index) Len() int { return len(x.chunks) }

// Chunk returns the chunk with sequence index i.
func (x *Index) Chunk(i int) domain.Chunk { return x.chunks[i] }

// Search returns the k nearest chunks to query, best first: descending
// similarity for cosine and dot, ascending distance for l2. Equal scores are
// ordered by ascending chunk index. k is clamped to the chunk count.
func (x *Index) Search(query []float32, k int, metric domain.Metric) ([]domain.Hit, error) {
	if metric != x.metric {
		return nil, fmt.Errorf("%w: index built with %s, query uses %s", domain.ErrMetricMismatch, x.metric, metric)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrValidation, k)
	}
	if len(x.chunks) == 0 {
		return nil, fmt.Errorf("%s v%d: %w", x.srdID, x.version, domain.ErrEmptyIndex)
	}
	if len(query) != x.dimension {
		return nil, fmt.Errorf("%w: query dimension %d, index dimension %d",
			domain.ErrValidation, len(query), x.dimension)
	}

	score := scorer(x.metric)
	hits := make([]domain.Hit, len(x.vectors))
	for i, v := range x.vectors {
		hits[i] = domain.Hit{ChunkIndex: i, Score: score(query, v)}
	}

	ascending := x.metric.Ascending()
	slices.SortFunc(hits, func(a, b domain.Hit) int {
		c := cmp.Compare(a.Score, b.Score)
		if !ascending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ChunkIndex, b.ChunkIndex)
	})

	k = min(k, len(hits))
	hits = hits[:k:k]
	for i := range hits {
		hits[i].Chunk = x.chunks[hits[i].ChunkIndex]
	}
	return hits, nil
}

// Manifest describes the index. Checksum is left empty; it is a property of
// the encoded blob and is filled in by the repository.
func (x *Index) Manifest() domain.Manifest {
	return domain.Manifest{
		SRDID:      x.srdID,
		Version:    x.version,
		Dimension:  x.dimension,
		ChunkCount: len(x.chunks),
		Metric:     x.metric,
		BuiltAt:    x.builtAt,
		Format:     FormatVersion,
	}
}
