// Package compact serializes match decisions into the fixed short-name
// schema persisted by the storage layer. The document carries only closed
// vocabulary tokens, never prose; any narrative a human needs is rebuilt
// from the tokens downstream. Encode enforces the size budget and fails
// loudly instead of truncating.
package compact

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/tephra-labs/volcmatch/internal/model"
)

// Size budgets. A persisted document must stay under ~1KB uncompressed.
const (
	MaxDocumentBytes = 1024
	MaxNameBytes     = 64
	MaxSampleIDBytes = 64
	MaxMethodBytes   = 32
	MaxFlags         = 8
)

type volcanoDoc struct {
	Name       string  `json:"n"`
	Number     int     `json:"num"`
	DistanceKM float64 `json:"d"`
}

type scoresDoc struct {
	Spatial      *float64 `json:"sp,omitempty"`
	Tectonic     *float64 `json:"te,omitempty"`
	Temporal     *float64 `json:"ti,omitempty"`
	Petrological *float64 `json:"pe,omitempty"`
	Final        float64  `json:"f"`
}

type qualityDoc struct {
	Coverage    float64      `json:"cov"`
	Uncertainty float64      `json:"unc"`
	Confidence  string       `json:"conf"`
	Gap         *float64     `json:"gap,omitempty"`
	Flags       []model.Flag `json:"fl,omitempty"`
}

type evidenceDoc struct {
	Found      bool    `json:"f"`
	Type       string  `json:"t"`
	Confidence float64 `json:"c"`
	Source     string  `json:"src"`
}

type metaDoc struct {
	Method    string    `json:"mt"`
	Timestamp time.Time `json:"ts"`
}

type document struct {
	SampleID string       `json:"id"`
	Volcano  *volcanoDoc  `json:"v,omitempty"`
	Scores   *scoresDoc   `json:"s,omitempty"`
	Quality  qualityDoc   `json:"q"`
	Evidence evidenceDoc  `json:"e"`
	Meta     metaDoc      `json:"m"`
}

// Encode serializes a validated MatchingMetadata into the compact schema.
// It rejects any document that violates a per-field length budget or the
// total size ceiling; it never truncates.
func Encode(m *model.MatchingMetadata) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, eris.Wrap(err, "compact: refusing to encode invalid metadata")
	}
	if len(m.SampleID) > MaxSampleIDBytes {
		return nil, eris.Errorf("compact: sample id exceeds %d bytes", MaxSampleIDBytes)
	}
	if m.Volcano != nil && len(m.Volcano.Name) > MaxNameBytes {
		return nil, eris.Errorf("compact: volcano name exceeds %d bytes", MaxNameBytes)
	}
	if len(m.Meta.Method) > MaxMethodBytes {
		return nil, eris.Errorf("compact: method exceeds %d bytes", MaxMethodBytes)
	}
	if len(m.Quality.Flags) > MaxFlags {
		return nil, eris.Errorf("compact: flag count %d exceeds %d", len(m.Quality.Flags), MaxFlags)
	}

	doc := document{
		SampleID: m.SampleID,
		Quality: qualityDoc{
			Coverage:    m.Quality.Coverage,
			Uncertainty: m.Quality.Uncertainty,
			Confidence:  string(m.Quality.Confidence),
			Gap:         m.Quality.Gap,
			Flags:       m.Quality.Flags,
		},
		Evidence: evidenceDoc{
			Found:      m.Evidence.Found,
			Type:       string(m.Evidence.Type),
			Confidence: m.Evidence.Confidence,
			Source:     string(m.Evidence.Source),
		},
		Meta: metaDoc{
			Method:    m.Meta.Method,
			Timestamp: m.Meta.Timestamp,
		},
	}
	if m.Volcano != nil {
		doc.Volcano = &volcanoDoc{
			Name:       m.Volcano.Name,
			Number:     m.Volcano.Number,
			DistanceKM: m.Volcano.DistanceKM,
		}
		doc.Scores = &scoresDoc{
			Spatial:      m.Scores.Spatial,
			Tectonic:     m.Scores.Tectonic,
			Temporal:     m.Scores.Temporal,
			Petrological: m.Scores.Petrological,
			Final:        m.Scores.Final,
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, eris.Wrap(err, "compact: marshal")
	}
	if len(data) > MaxDocumentBytes {
		return nil, eris.Errorf("compact: document is %d bytes, ceiling is %d", len(data), MaxDocumentBytes)
	}
	return data, nil
}

// Decode parses a compact document back into MatchingMetadata and validates
// it, so an invalid token stored by a foreign writer surfaces here rather
// than downstream.
func Decode(data []byte) (*model.MatchingMetadata, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "compact: unmarshal")
	}

	m := &model.MatchingMetadata{
		SampleID: doc.SampleID,
		Quality: model.Quality{
			Coverage:    doc.Quality.Coverage,
			Uncertainty: doc.Quality.Uncertainty,
			Confidence:  model.Confidence(doc.Quality.Confidence),
			Gap:         doc.Quality.Gap,
			Flags:       doc.Quality.Flags,
		},
		Evidence: model.Evidence{
			Found:      doc.Evidence.Found,
			Type:       model.EvidenceType(doc.Evidence.Type),
			Confidence: doc.Evidence.Confidence,
			Source:     model.EvidenceSource(doc.Evidence.Source),
		},
		Meta: model.Meta{
			Method:    doc.Meta.Method,
			Timestamp: doc.Meta.Timestamp,
		},
	}
	if doc.Volcano != nil {
		m.Volcano = &model.MatchedVolcano{
			Name:       doc.Volcano.Name,
			Number:     doc.Volcano.Number,
			DistanceKM: doc.Volcano.DistanceKM,
		}
	}
	if doc.Scores != nil {
		m.Scores = &model.AxisScores{
			Spatial:      doc.Scores.Spatial,
			Tectonic:     doc.Scores.Tectonic,
			Temporal:     doc.Scores.Temporal,
			Petrological: doc.Scores.Petrological,
			Final:        doc.Scores.Final,
		}
	}

	if err := m.Validate(); err != nil {
		return nil, eris.Wrap(err, "compact: decoded document failed validation")
	}
	return m, nil
}
