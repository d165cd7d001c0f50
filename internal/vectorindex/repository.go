package vectorindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
	"github.com/custodia-labs/scribe/internal/logger"
)

const (
	blobName     = "index.bin"
	manifestName = "manifest.json"
)

// Repository persists and loads indexes through a BlobStore.
// dimension is the configured embedding dimensionality; loads of indexes
// built for any other dimension fail.
type Repository struct {
	blobs     driven.BlobStore
	dimension int
}

// NewRepository creates a repository over blobs.
func NewRepository(blobs driven.BlobStore, dimension int) *Repository {
	return &Repository{blobs: blobs, dimension: dimension}
}

// VersionPrefix returns the key prefix of one index version.
func VersionPrefix(srdID string, version int) string {
	return fmt.Sprintf("%s/v%d", srdID, version)
}

// BlobKey returns the key of the serialised index of one version.
func BlobKey(srdID string, version int) string {
	return path.Join(VersionPrefix(srdID, version), blobName)
}

// ManifestKey returns the key of the manifest of one version.
func ManifestKey(srdID string, version int) string {
	return path.Join(VersionPrefix(srdID, version), manifestName)
}

// Persist writes the index blob, then its manifest. A version that already
// has a manifest is never overwritten.
func (r *Repository) Persist(ctx context.Context, x *Index) (string, *domain.Manifest, error) {
	if x.Dimension() != 0 && x.Dimension() != r.dimension {
		return "", nil, fmt.Errorf("%w: index dimension %d, configured %d",
			domain.ErrConfiguration, x.Dimension(), r.dimension)
	}

	manifestKey := ManifestKey(x.SRDID(), x.Version())
	exists, err := r.blobs.Exists(ctx, manifestKey)
	if err != nil {
		return "", nil, fmt.Errorf("check manifest: %w", err)
	}
	if exists {
		return "", nil, fmt.Errorf("index %s v%d already persisted", x.SRDID(), x.Version())
	}

	data, err := Encode(x)
	if err != nil {
		return "", nil, err
	}

	manifest := x.Manifest()
	manifest.Dimension = r.dimension
	manifest.Checksum = Checksum(data)

	if err := r.blobs.Put(ctx, BlobKey(x.SRDID(), x.Version()), data); err != nil {
		return "", nil, fmt.Errorf("write index blob: %w", err)
	}

	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := r.blobs.Put(ctx, manifestKey, raw); err != nil {
		return "", nil, fmt.Errorf("write manifest: %w", err)
	}

	logger.Debug("persisted index %s v%d (%d chunks, %d bytes)", x.SRDID(), x.Version(), x.Len(), len(data))
	return r.blobs.Location(VersionPrefix(x.SRDID(), x.Version())), &manifest, nil
}

// ReadManifest loads and checks the manifest of one version.
func (r *Repository) ReadManifest(ctx context.Context, srdID string, version int) (*domain.Manifest, error) {
	raw, err := r.blobs.Get(ctx, ManifestKey(srdID, version))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%s v%d: %w", srdID, version, domain.ErrManifestMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m domain.Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest %s v%d: %v", domain.ErrIndexCorrupt, srdID, version, err)
	}
	if m.SRDID != srdID || m.Version != version {
		return nil, fmt.Errorf("%w: manifest names %s v%d, stored under %s v%d",
			domain.ErrIndexCorrupt, m.SRDID, m.Version, srdID, version)
	}
	if m.Dimension != r.dimension {
		return nil, fmt.Errorf("%s v%d built with dimension %d, configured %d: %w",
			srdID, version, m.Dimension, r.dimension, domain.ErrDimensionMismatch)
	}
	return &m, nil
}

// Load reads one persisted version. Missing manifests, dimension mismatches,
// checksum failures and malformed blobs all fail with domain.ErrIndexCorrupt.
func (r *Repository) Load(ctx context.Context, srdID string, version int) (*Index, error) {
	m, err := r.ReadManifest(ctx, srdID, version)
	if err != nil {
		return nil, err
	}

	data, err := r.blobs.Get(ctx, BlobKey(srdID, version))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s v%d has a manifest but no index blob", domain.ErrIndexCorrupt, srdID, version)
	}
	if err != nil {
		return nil, fmt.Errorf("read index blob: %w", err)
	}

	if sum := Checksum(data); sum != m.Checksum {
		return nil, fmt.Errorf("%w: %s v%d checksum mismatch", domain.ErrIndexCorrupt, srdID, version)
	}

	x, err := Decode(data, srdID, version, m.BuiltAt)
	if err != nil {
		return nil, fmt.Errorf("%s v%d: %w", srdID, version, err)
	}
	if x.Len() != m.ChunkCount || x.Metric() != m.Metric || (x.Len() > 0 && x.Dimension() != m.Dimension) {
		return nil, fmt.Errorf("%w: %s v%d blob disagrees with manifest", domain.ErrIndexCorrupt, srdID, version)
	}
	if x.Len() == 0 {
		x.dimension = m.Dimension
	}

	logger.Debug("loaded index %s v%d (%d chunks)", srdID, version, x.Len())
	return x, nil
}

// Versions lists the versions of srdID that have a manifest, ascending.
func (r *Repository) Versions(ctx context.Context, srdID string) ([]int, error) {
	keys, err := r.blobs.List(ctx, srdID+"/")
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", srdID, err)
	}

	var versions []int
	for _, key := range keys {
		rest, ok := strings.CutPrefix(key, srdID+"/v")
		if !ok {
			continue
		}
		num, name, ok := strings.Cut(rest, "/")
		if !ok || name != manifestName {
			continue
		}
		v, err := strconv.Atoi(num)
		if err != nil || v <= 0 {
			continue
		}
		versions = append(versions, v)
	}
	slices.Sort(versions)
	return versions, nil
}

// LatestVersion returns the highest version of srdID with a manifest.
// Returns domain.ErrNotFound if there is none.
func (r *Repository) LatestVersion(ctx context.Context, srdID string) (int, error) {
	versions, err := r.Versions(ctx, srdID)
	if err != nil {
		return 0, err
	}
	if len(versions) == 0 {
		return 0, fmt.Errorf("no persisted index for %q: %w", srdID, domain.ErrNotFound)
	}
	return versions[len(versions)-1], nil
}
