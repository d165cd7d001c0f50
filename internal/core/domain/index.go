package domain

import (
	"fmt"
	"time"
)

// Metric identifies the similarity function an index was built with.
type Metric string

const (
	// MetricCosine ranks by cosine similarity, highest first.
	MetricCosine Metric = "cosine"

	// MetricDot ranks by inner product, highest first.
	MetricDot Metric = "dot"

	// MetricL2 ranks by Euclidean distance, lowest first.
	MetricL2 Metric = "l2"
)

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MetricCosine, MetricDot, MetricL2:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown similarity metric %q", ErrConfiguration, s)
	}
}

// Ascending reports whether lower scores rank first under this metric.
func (m Metric) Ascending() bool {
	return m == MetricL2
}

// Manifest describes one persisted index version.
// Its presence in durable storage is the signal that the version is queryable.
type Manifest struct {
	SRDID      string    `json:"srd_id"`
	Version    int       `json:"version"`
	Dimension  int       `json:"dimension"`
	ChunkCount int       `json:"chunk_count"`
	Metric     Metric    `json:"metric"`
	BuiltAt    time.Time `json:"built_at"`
	Format     string    `json:"format"`
	Checksum   string    `json:"checksum"`
}

// Hit is one search result.
type Hit struct {
	// ChunkIndex is the sequence index of the matched chunk.
	ChunkIndex int

	// Score is the similarity (cosine, dot) or distance (l2).
	Score float32

	// Chunk is the matched chunk.
	Chunk Chunk
}

// SRD is the metadata-store record of an ingested document.
type SRD struct {
	ID string

	// CurrentVersion is the latest published (queryable) version. Zero means none.
	CurrentVersion int

	// LatestAllocated is the highest version handed to an ingestion, published or not.
	LatestAllocated int

	UpdatedAt time.Time
}
