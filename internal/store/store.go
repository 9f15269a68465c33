// Package store persists the volcano catalog and the per-sample match
// documents. Two implementations exist: SQLite for single-host runs and
// Postgres/PostGIS for shared deployments.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/tephra-labs/volcmatch/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// MatchDoc is one stored compact match document.
type MatchDoc struct {
	SampleID  string
	Doc       []byte
	UpdatedAt time.Time
}

// MatchFilter specifies criteria for listing match documents.
type MatchFilter struct {
	Limit  int
	Offset int
}

// CatalogStore is the volcano-catalog side of the storage contract,
// including the geospatial range query consumed by candidate generation.
type CatalogStore interface {
	// ReplaceVolcanoes swaps in a full catalog load.
	ReplaceVolcanoes(ctx context.Context, volcanoes []model.Volcano) error
	AllVolcanoes(ctx context.Context) ([]model.Volcano, error)
	VolcanoesWithin(ctx context.Context, p model.Point, radiusKM float64) ([]model.Volcano, error)
}

// MatchStore reads and writes one compact MatchingMetadata document per
// sample. PutMatch overwrites wholesale and must be all-or-nothing: a
// cancelled batch never leaves a half-written document.
type MatchStore interface {
	PutMatch(ctx context.Context, sampleID string, doc []byte) error
	GetMatch(ctx context.Context, sampleID string) ([]byte, error)
	ListMatches(ctx context.Context, filter MatchFilter) ([]MatchDoc, error)
}

// Store is the full persistence interface.
type Store interface {
	CatalogStore
	MatchStore

	Migrate(ctx context.Context) error
	Close() error
}
