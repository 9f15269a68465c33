package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/tephra-labs/volcmatch/internal/db"
	"github.com/tephra-labs/volcmatch/internal/model"
)

// PostgresStore implements Store on Postgres/PostGIS. The radius query runs
// entirely in the database via ST_DWithin on geography.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS postgis;

CREATE TABLE IF NOT EXISTS volcanoes (
	number     INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	geom       geometry(Point, 4326) NOT NULL,
	regime     TEXT NOT NULL DEFAULT 'unknown',
	crust      TEXT NOT NULL DEFAULT 'unknown',
	rock_types JSONB,
	region     TEXT,
	country    TEXT,
	first_year INTEGER,
	last_year  INTEGER
);

CREATE TABLE IF NOT EXISTS matches (
	sample_id  TEXT PRIMARY KEY,
	doc        TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_volcanoes_geom ON volcanoes USING GIST (geom);
CREATE INDEX IF NOT EXISTS idx_matches_updated_at ON matches(updated_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// volcanoColumns matches the COPY column order in ReplaceVolcanoes.
var volcanoColumns = []string{
	"number", "name", "geom", "regime", "crust",
	"rock_types", "region", "country", "first_year", "last_year",
}

func (s *PostgresStore) ReplaceVolcanoes(ctx context.Context, volcanoes []model.Volcano) error {
	rows := make([][]any, 0, len(volcanoes))
	for _, v := range volcanoes {
		wkb, err := ewkb.Marshal(
			geom.NewPointFlat(geom.XY, []float64{v.Point.Lon, v.Point.Lat}).SetSRID(4326),
			ewkb.NDR,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: encode point for volcano %d", v.Number)
		}
		rockJSON, err := json.Marshal(v.RockTypes)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal rock types for %d", v.Number)
		}
		rows = append(rows, []any{
			v.Number, v.Name, wkb,
			string(v.Tectonic.Regime), string(v.Tectonic.Crust),
			string(rockJSON), nullableStr(v.Region), nullableStr(v.Country),
			nullableInt(v.Activity.FirstYear), nullableInt(v.Activity.LastYear),
		})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace volcanoes")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE volcanoes`); err != nil {
		return eris.Wrap(err, "postgres: truncate volcanoes")
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"volcanoes"}, volcanoColumns, pgx.CopyFromRows(rows)); err != nil {
		return eris.Wrap(err, "postgres: copy volcanoes")
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace volcanoes")
}

const volcanoSelect = `
	SELECT number, name, ST_X(geom), ST_Y(geom), regime, crust,
	       rock_types, region, country, first_year, last_year
	FROM volcanoes`

func (s *PostgresStore) AllVolcanoes(ctx context.Context) ([]model.Volcano, error) {
	rows, err := s.pool.Query(ctx, volcanoSelect+` ORDER BY number`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query volcanoes")
	}
	defer rows.Close()
	return scanPgVolcanoes(rows)
}

func (s *PostgresStore) VolcanoesWithin(ctx context.Context, p model.Point, radiusKM float64) ([]model.Volcano, error) {
	rows, err := s.pool.Query(ctx, volcanoSelect+`
		WHERE ST_DWithin(geom::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY geom <-> ST_SetSRID(ST_MakePoint($1, $2), 4326)`,
		p.Lon, p.Lat, radiusKM*1000,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query volcanoes within")
	}
	defer rows.Close()
	return scanPgVolcanoes(rows)
}

func (s *PostgresStore) PutMatch(ctx context.Context, sampleID string, doc []byte) error {
	// Single upsert statement keeps the write all-or-nothing.
	_, err := s.pool.Exec(ctx, `
		INSERT INTO matches (sample_id, doc, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (sample_id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
		sampleID, string(doc), time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: put match %s", sampleID)
}

func (s *PostgresStore) GetMatch(ctx context.Context, sampleID string) ([]byte, error) {
	var doc string
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM matches WHERE sample_id = $1`, sampleID,
	).Scan(&doc)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get match %s", sampleID)
	}
	return []byte(doc), nil
}

func (s *PostgresStore) ListMatches(ctx context.Context, filter MatchFilter) ([]MatchDoc, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.pool.Query(ctx,
		`SELECT sample_id, doc, updated_at FROM matches ORDER BY sample_id LIMIT $1 OFFSET $2`,
		limit, filter.Offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list matches")
	}
	defer rows.Close()

	var out []MatchDoc
	for rows.Next() {
		var md MatchDoc
		var doc string
		if err := rows.Scan(&md.SampleID, &doc, &md.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan match")
		}
		md.Doc = []byte(doc)
		out = append(out, md)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate matches")
	}
	return out, nil
}

func scanPgVolcanoes(rows pgx.Rows) ([]model.Volcano, error) {
	var out []model.Volcano
	for rows.Next() {
		var (
			v         model.Volcano
			regime    string
			crust     string
			rockJSON  []byte
			region    *string
			country   *string
			firstYear *int
			lastYear  *int
		)
		err := rows.Scan(&v.Number, &v.Name, &v.Point.Lon, &v.Point.Lat,
			&regime, &crust, &rockJSON, &region, &country, &firstYear, &lastYear)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan volcano")
		}

		v.Tectonic = model.TectonicSetting{Regime: model.Regime(regime), Crust: model.Crust(crust)}
		if region != nil {
			v.Region = *region
		}
		if country != nil {
			v.Country = *country
		}
		if len(rockJSON) > 0 {
			if err := json.Unmarshal(rockJSON, &v.RockTypes); err != nil {
				return nil, eris.Wrapf(err, "postgres: decode rock types for %d", v.Number)
			}
		}
		v.Activity.FirstYear = firstYear
		v.Activity.LastYear = lastYear

		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate volcanoes")
	}
	return out, nil
}

func nullableStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
