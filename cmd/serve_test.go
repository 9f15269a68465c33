package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tephra-labs/volcmatch/internal/compact"
	"github.com/tephra-labs/volcmatch/internal/model"
	"github.com/tephra-labs/volcmatch/internal/store"
)

// memMatchStore is an in-memory MatchStore for command tests.
type memMatchStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newMemMatchStore() *memMatchStore {
	return &memMatchStore{docs: map[string][]byte{}}
}

func (m *memMatchStore) PutMatch(_ context.Context, sampleID string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[sampleID] = append([]byte(nil), doc...)
	return nil
}

func (m *memMatchStore) GetMatch(_ context.Context, sampleID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[sampleID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return doc, nil
}

func (m *memMatchStore) ListMatches(_ context.Context, _ store.MatchFilter) ([]store.MatchDoc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.MatchDoc
	for id, doc := range m.docs {
		out = append(out, store.MatchDoc{SampleID: id, Doc: doc})
	}
	return out, nil
}

func storedDoc(t *testing.T) []byte {
	t.Helper()
	final := 0.871
	sp := 0.884
	m := &model.MatchingMetadata{
		SampleID: "GEOROC-1",
		Volcano:  &model.MatchedVolcano{Name: "Vesuvius", Number: 211020, DistanceKM: 11.6},
		Scores:   &model.AxisScores{Spatial: &sp, Final: final},
		Quality: model.Quality{
			Coverage:    0.25,
			Uncertainty: 0.8,
			Confidence:  model.ConfidenceHigh,
		},
		Evidence: model.Evidence{Type: model.EvidenceNone, Source: model.SourceNone},
		Meta:     model.Meta{Method: "axis-weighted/v1", Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	doc, err := compact.Encode(m)
	require.NoError(t, err)
	return doc
}

func TestServeMux_Health(t *testing.T) {
	mux := newServeMux(newMemMatchStore())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeMux_GetMatch(t *testing.T) {
	ms := newMemMatchStore()
	doc := storedDoc(t)
	require.NoError(t, ms.PutMatch(context.Background(), "GEOROC-1", doc))

	mux := newServeMux(ms)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/samples/GEOROC-1/match", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, string(doc), rec.Body.String())
}

func TestServeMux_GetMatch_NotFound(t *testing.T) {
	mux := newServeMux(newMemMatchStore())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/samples/missing/match", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeMux_Explain(t *testing.T) {
	ms := newMemMatchStore()
	require.NoError(t, ms.PutMatch(context.Background(), "GEOROC-1", storedDoc(t)))

	mux := newServeMux(ms)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/samples/GEOROC-1/explain", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "matched to Vesuvius")
	assert.Contains(t, rec.Body.String(), "high confidence")
}

func TestServeMux_Explain_NotFound(t *testing.T) {
	mux := newServeMux(newMemMatchStore())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/samples/missing/explain", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
