package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/munigraph-cli/internal/db"
	"github.com/sells-group/munigraph-cli/internal/model"
)

// PostgresStore implements Store on a pgx pool. Edges and municipality
// snapshots go in via COPY, which keeps saves fast for full-country builds.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres connects a PostgresStore.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; tests pass a pgxmock pool.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS builds (
	id           TEXT PRIMARY KEY,
	strategy     TEXT NOT NULL,
	max_edges    INTEGER NOT NULL,
	max_distance DOUBLE PRECISION NOT NULL,
	built_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS build_municipalities (
	build_id         TEXT NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
	code             TEXT NOT NULL,
	name             TEXT NOT NULL,
	state            TEXT NOT NULL,
	lat              DOUBLE PRECISION NOT NULL,
	lon              DOUBLE PRECISION NOT NULL,
	has_supercharger BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (build_id, code)
);

CREATE TABLE IF NOT EXISTS build_edges (
	build_id  TEXT NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
	from_code TEXT NOT NULL,
	to_code   TEXT NOT NULL,
	distance  DOUBLE PRECISION NOT NULL,
	ord       INTEGER NOT NULL,
	PRIMARY KEY (build_id, from_code, ord)
);

CREATE INDEX IF NOT EXISTS idx_builds_built_at ON builds(built_at);
CREATE INDEX IF NOT EXISTS idx_build_edges_from ON build_edges(build_id, from_code);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveGraph(ctx context.Context, g *model.Graph) (string, error) {
	id := uuid.New().String()
	builtAt := g.BuiltAt
	if builtAt.IsZero() {
		builtAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO builds (id, strategy, max_edges, max_distance, built_at) VALUES ($1, $2, $3, $4, $5)`,
		id, string(g.Strategy), g.MaxEdges, g.MaxDistance, builtAt,
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert build")
	}

	muniRows := make([][]any, 0, len(g.Municipalities))
	var edgeRows [][]any
	for code, m := range g.Municipalities {
		muniRows = append(muniRows, []any{id, code, m.Name, m.State, m.Lat, m.Lon, m.HasSupercharger})
		for ord, e := range m.Edges {
			edgeRows = append(edgeRows, []any{id, e.From, e.To, e.Distance, ord})
		}
	}

	if _, err := db.CopyFrom(ctx, s.pool, "build_municipalities",
		[]string{"build_id", "code", "name", "state", "lat", "lon", "has_supercharger"}, muniRows); err != nil {
		return "", err
	}
	if _, err := db.CopyFrom(ctx, s.pool, "build_edges",
		[]string{"build_id", "from_code", "to_code", "distance", "ord"}, edgeRows); err != nil {
		return "", err
	}

	g.ID = id
	return id, nil
}

func (s *PostgresStore) GetGraph(ctx context.Context, buildID string) (*model.Graph, error) {
	g := &model.Graph{ID: buildID}
	var strategy string
	err := s.pool.QueryRow(ctx,
		`SELECT strategy, max_edges, max_distance, built_at FROM builds WHERE id = $1`, buildID,
	).Scan(&strategy, &g.MaxEdges, &g.MaxDistance, &g.BuiltAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: build %s not found", buildID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get build %s", buildID)
	}
	g.Strategy = model.Strategy(strategy)

	g.Municipalities = make(map[string]*model.Municipality)
	rows, err := s.pool.Query(ctx,
		`SELECT code, name, state, lat, lon, has_supercharger FROM build_municipalities WHERE build_id = $1`, buildID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load municipalities")
	}
	defer rows.Close()
	for rows.Next() {
		m := &model.Municipality{}
		if err := rows.Scan(&m.Code, &m.Name, &m.State, &m.Lat, &m.Lon, &m.HasSupercharger); err != nil {
			return nil, eris.Wrap(err, "postgres: scan municipality")
		}
		g.Municipalities[m.Code] = m
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate municipalities")
	}

	edgeRows, err := s.pool.Query(ctx,
		`SELECT from_code, to_code, distance FROM build_edges WHERE build_id = $1 ORDER BY from_code, ord`, buildID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load edges")
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var e model.Edge
		if err := edgeRows.Scan(&e.From, &e.To, &e.Distance); err != nil {
			return nil, eris.Wrap(err, "postgres: scan edge")
		}
		m, ok := g.Municipalities[e.From]
		if !ok {
			return nil, eris.Errorf("postgres: edge references unknown municipality %s", e.From)
		}
		m.Edges = append(m.Edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate edges")
	}

	return g, nil
}

func (s *PostgresStore) LatestGraph(ctx context.Context) (*model.Graph, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM builds ORDER BY built_at DESC, id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest build")
	}
	return s.GetGraph(ctx, id)
}

func (s *PostgresStore) ListBuilds(ctx context.Context) ([]BuildInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT b.id, b.strategy, b.max_edges, b.max_distance, b.built_at,
			(SELECT COUNT(*) FROM build_municipalities bm WHERE bm.build_id = b.id),
			(SELECT COUNT(*) FROM build_edges be WHERE be.build_id = b.id)
		FROM builds b
		ORDER BY b.built_at DESC, b.id DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list builds")
	}
	defer rows.Close()

	var out []BuildInfo
	for rows.Next() {
		var bi BuildInfo
		var strategy string
		if err := rows.Scan(&bi.ID, &strategy, &bi.MaxEdges, &bi.MaxDistance, &bi.BuiltAt, &bi.Municipalities, &bi.Edges); err != nil {
			return nil, eris.Wrap(err, "postgres: scan build")
		}
		bi.Strategy = model.Strategy(strategy)
		out = append(out, bi)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate builds")
}
