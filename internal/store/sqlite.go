package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/tephra-labs/volcmatch/internal/matcher"
	"github.com/tephra-labs/volcmatch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. The radius query
// prefilters on an indexed latitude band and finishes with an exact
// great-circle check in process.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS volcanoes (
	number     INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	lon        REAL NOT NULL,
	lat        REAL NOT NULL,
	regime     TEXT NOT NULL DEFAULT 'unknown',
	crust      TEXT NOT NULL DEFAULT 'unknown',
	rock_types TEXT,
	region     TEXT,
	country    TEXT,
	first_year INTEGER,
	last_year  INTEGER
);

CREATE TABLE IF NOT EXISTS matches (
	sample_id  TEXT PRIMARY KEY,
	doc        TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_volcanoes_lat ON volcanoes(lat);
CREATE INDEX IF NOT EXISTS idx_matches_updated_at ON matches(updated_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ReplaceVolcanoes(ctx context.Context, volcanoes []model.Volcano) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace volcanoes")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM volcanoes`); err != nil {
		return eris.Wrap(err, "sqlite: clear volcanoes")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO volcanoes (number, name, lon, lat, regime, crust, rock_types, region, country, first_year, last_year)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare volcano insert")
	}
	defer stmt.Close()

	for _, v := range volcanoes {
		rockJSON, err := json.Marshal(v.RockTypes)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal rock types for %d", v.Number)
		}
		_, err = stmt.ExecContext(ctx,
			v.Number, v.Name, v.Point.Lon, v.Point.Lat,
			string(v.Tectonic.Regime), string(v.Tectonic.Crust),
			string(rockJSON), v.Region, v.Country,
			nullableInt(v.Activity.FirstYear), nullableInt(v.Activity.LastYear),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert volcano %d", v.Number)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit replace volcanoes")
}

func (s *SQLiteStore) AllVolcanoes(ctx context.Context) ([]model.Volcano, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT number, name, lon, lat, regime, crust, rock_types, region, country, first_year, last_year
		FROM volcanoes ORDER BY number`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query volcanoes")
	}
	defer rows.Close()
	return scanVolcanoes(rows)
}

func (s *SQLiteStore) VolcanoesWithin(ctx context.Context, p model.Point, radiusKM float64) ([]model.Volcano, error) {
	latDelta := radiusKM / 111.32
	rows, err := s.db.QueryContext(ctx, `
		SELECT number, name, lon, lat, regime, crust, rock_types, region, country, first_year, last_year
		FROM volcanoes WHERE lat BETWEEN ? AND ? ORDER BY number`,
		p.Lat-latDelta, p.Lat+latDelta,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query volcanoes within")
	}
	defer rows.Close()

	band, err := scanVolcanoes(rows)
	if err != nil {
		return nil, err
	}

	var out []model.Volcano
	for _, v := range band {
		if matcher.HaversineKM(p, v.Point) <= radiusKM {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *SQLiteStore) PutMatch(ctx context.Context, sampleID string, doc []byte) error {
	// Single upsert statement keeps the write all-or-nothing.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matches (sample_id, doc, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(sample_id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		sampleID, string(doc), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: put match %s", sampleID)
}

func (s *SQLiteStore) GetMatch(ctx context.Context, sampleID string) ([]byte, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM matches WHERE sample_id = ?`, sampleID,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get match %s", sampleID)
	}
	return []byte(doc), nil
}

func (s *SQLiteStore) ListMatches(ctx context.Context, filter MatchFilter) ([]MatchDoc, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT sample_id, doc, updated_at FROM matches ORDER BY sample_id LIMIT ? OFFSET ?`,
		limit, filter.Offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list matches")
	}
	defer rows.Close()

	var out []MatchDoc
	for rows.Next() {
		var md MatchDoc
		var doc string
		if err := rows.Scan(&md.SampleID, &doc, &md.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan match")
		}
		md.Doc = []byte(doc)
		out = append(out, md)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate matches")
	}
	return out, nil
}

func scanVolcanoes(rows *sql.Rows) ([]model.Volcano, error) {
	var out []model.Volcano
	for rows.Next() {
		var (
			v         model.Volcano
			regime    string
			crust     string
			rockJSON  sql.NullString
			region    sql.NullString
			country   sql.NullString
			firstYear sql.NullInt64
			lastYear  sql.NullInt64
		)
		err := rows.Scan(&v.Number, &v.Name, &v.Point.Lon, &v.Point.Lat,
			&regime, &crust, &rockJSON, &region, &country, &firstYear, &lastYear)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan volcano")
		}

		v.Tectonic = model.TectonicSetting{Regime: model.Regime(regime), Crust: model.Crust(crust)}
		v.Region = region.String
		v.Country = country.String
		if rockJSON.Valid && rockJSON.String != "" {
			if err := json.Unmarshal([]byte(rockJSON.String), &v.RockTypes); err != nil {
				return nil, eris.Wrapf(err, "sqlite: decode rock types for %d", v.Number)
			}
		}
		if firstYear.Valid {
			y := int(firstYear.Int64)
			v.Activity.FirstYear = &y
		}
		if lastYear.Valid {
			y := int(lastYear.Int64)
			v.Activity.LastYear = &y
		}

		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate volcanoes")
	}
	return out, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
