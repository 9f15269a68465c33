package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tephra-labs/volcmatch/internal/model"
)

func testVolcanoes() []model.Volcano {
	return []model.Volcano{
		{Number: 211020, Name: "Vesuvius", Point: model.Point{Lon: 14.426, Lat: 40.821}},
		{Number: 211060, Name: "Etna", Point: model.Point{Lon: 14.999, Lat: 37.748}},
		{Number: 332010, Name: "Kilauea", Point: model.Point{Lon: -155.287, Lat: 19.421}},
		{Number: 241813, Name: "Taveuni", Point: model.Point{Lon: -179.97, Lat: -16.82}},
		{Number: 390050, Name: "Erebus", Point: model.Point{Lon: 167.17, Lat: -77.53}},
	}
}

func TestSnapshotWithinRadius(t *testing.T) {
	s := NewSnapshot(testVolcanoes())
	ctx := context.Background()

	got, err := s.VolcanoesWithin(ctx, model.Point{Lon: 14.30, Lat: 40.85}, 100)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Vesuvius", got[0].Name)

	got, err = s.VolcanoesWithin(ctx, model.Point{Lon: 14.30, Lat: 40.85}, 400)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSnapshotEmptyResult(t *testing.T) {
	s := NewSnapshot(testVolcanoes())

	got, err := s.VolcanoesWithin(context.Background(), model.Point{Lon: -40, Lat: 0}, 500)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSnapshotAcrossAntimeridian(t *testing.T) {
	s := NewSnapshot(testVolcanoes())

	// Sample just east of the dateline; Taveuni sits just west of it
	got, err := s.VolcanoesWithin(context.Background(), model.Point{Lon: 179.9, Lat: -16.8}, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Taveuni", got[0].Name)
}

func TestSnapshotNearPole(t *testing.T) {
	s := NewSnapshot(testVolcanoes())

	// High latitude: the longitude prefilter degenerates but the exact
	// check still works
	got, err := s.VolcanoesWithin(context.Background(), model.Point{Lon: 166.5, Lat: -77.5}, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Erebus", got[0].Name)
}

func TestSnapshotCancelledContext(t *testing.T) {
	s := NewSnapshot(testVolcanoes())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.VolcanoesWithin(ctx, model.Point{Lon: 0, Lat: 0}, 100)
	assert.Error(t, err)
}

func TestSnapshotIsACopy(t *testing.T) {
	src := testVolcanoes()
	s := NewSnapshot(src)
	src[0].Name = "mutated"

	assert.Equal(t, "Vesuvius", s.All()[0].Name)
	assert.Equal(t, len(src), s.Len())
}
