package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/munigraph-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
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
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS builds (
	id           TEXT PRIMARY KEY,
	strategy     TEXT NOT NULL,
	max_edges    INTEGER NOT NULL,
	max_distance REAL NOT NULL,
	built_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS build_municipalities (
	build_id         TEXT NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
	code             TEXT NOT NULL,
	name             TEXT NOT NULL,
	state            TEXT NOT NULL,
	lat              REAL NOT NULL,
	lon              REAL NOT NULL,
	has_supercharger INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (build_id, code)
);

CREATE TABLE IF NOT EXISTS build_edges (
	build_id  TEXT NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
	from_code TEXT NOT NULL,
	to_code   TEXT NOT NULL,
	distance  REAL NOT NULL,
	ord       INTEGER NOT NULL,
	PRIMARY KEY (build_id, from_code, ord)
);

CREATE INDEX IF NOT EXISTS idx_builds_built_at ON builds(built_at);
CREATE INDEX IF NOT EXISTS idx_build_edges_from ON build_edges(build_id, from_code);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveGraph(ctx context.Context, g *model.Graph) (string, error) {
	id := uuid.New().String()
	builtAt := g.BuiltAt
	if builtAt.IsZero() {
		builtAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: begin save")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO builds (id, strategy, max_edges, max_distance, built_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(g.Strategy), g.MaxEdges, g.MaxDistance, builtAt,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert build")
	}

	muniStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO build_municipalities (build_id, code, name, state, lat, lon, has_supercharger) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: prepare municipality insert")
	}
	defer muniStmt.Close() //nolint:errcheck

	edgeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO build_edges (build_id, from_code, to_code, distance, ord) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: prepare edge insert")
	}
	defer edgeStmt.Close() //nolint:errcheck

	for code, m := range g.Municipalities {
		if _, err := muniStmt.ExecContext(ctx, id, code, m.Name, m.State, m.Lat, m.Lon, m.HasSupercharger); err != nil {
			return "", eris.Wrapf(err, "sqlite: insert municipality %s", code)
		}
		for ord, e := range m.Edges {
			if _, err := edgeStmt.ExecContext(ctx, id, e.From, e.To, e.Distance, ord); err != nil {
				return "", eris.Wrapf(err, "sqlite: insert edge %s->%s", e.From, e.To)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", eris.Wrap(err, "sqlite: commit save")
	}

	g.ID = id
	return id, nil
}

func (s *SQLiteStore) GetGraph(ctx context.Context, buildID string) (*model.Graph, error) {
	g := &model.Graph{ID: buildID}
	var strategy string
	err := s.db.QueryRowContext(ctx,
		`SELECT strategy, max_edges, max_distance, built_at FROM builds WHERE id = ?`, buildID,
	).Scan(&strategy, &g.MaxEdges, &g.MaxDistance, &g.BuiltAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: build %s not found", buildID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get build %s", buildID)
	}
	g.Strategy = model.Strategy(strategy)

	g.Municipalities = make(map[string]*model.Municipality)
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, name, state, lat, lon, has_supercharger FROM build_municipalities WHERE build_id = ?`, buildID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load municipalities")
	}
	defer rows.Close() //nolint:errcheck
	for rows.Next() {
		m := &model.Municipality{}
		if err := rows.Scan(&m.Code, &m.Name, &m.State, &m.Lat, &m.Lon, &m.HasSupercharger); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan municipality")
		}
		g.Municipalities[m.Code] = m
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate municipalities")
	}

	edgeRows, err := s.db.QueryContext(ctx,
		`SELECT from_code, to_code, distance FROM build_edges WHERE build_id = ? ORDER BY from_code, ord`, buildID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load edges")
	}
	defer edgeRows.Close() //nolint:errcheck
	for edgeRows.Next() {
		var e model.Edge
		if err := edgeRows.Scan(&e.From, &e.To, &e.Distance); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan edge")
		}
		m, ok := g.Municipalities[e.From]
		if !ok {
			return nil, eris.Errorf("sqlite: edge references unknown municipality %s", e.From)
		}
		m.Edges = append(m.Edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate edges")
	}

	return g, nil
}

func (s *SQLiteStore) LatestGraph(ctx context.Context) (*model.Graph, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM builds ORDER BY built_at DESC, id DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest build")
	}
	return s.GetGraph(ctx, id)
}

func (s *SQLiteStore) ListBuilds(ctx context.Context) ([]BuildInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.strategy, b.max_edges, b.max_distance, b.built_at,
			(SELECT COUNT(*) FROM build_municipalities bm WHERE bm.build_id = b.id),
			(SELECT COUNT(*) FROM build_edges be WHERE be.build_id = b.id)
		FROM builds b
		ORDER BY b.built_at DESC, b.id DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list builds")
	}
	defer rows.Close() //nolint:errcheck

	var out []BuildInfo
	for rows.Next() {
		var bi BuildInfo
		var strategy string
		if err := rows.Scan(&bi.ID, &strategy, &bi.MaxEdges, &bi.MaxDistance, &bi.BuiltAt, &bi.Municipalities, &bi.Edges); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan build")
		}
		bi.Strategy = model.Strategy(strategy)
		out = append(out, bi)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate builds")
}
