package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sells-group/munigraph-cli/internal/model"
	"github.com/sells-group/munigraph-cli/internal/store"
)

// fakeStore serves a fixed graph from memory.
type fakeStore struct {
	graph  *model.Graph
	builds []store.BuildInfo
}

func (f *fakeStore) SaveGraph(ctx context.Context, g *model.Graph) (string, error) {
	return "", eris.New("read only")
}

func (f *fakeStore) GetGraph(ctx context.Context, buildID string) (*model.Graph, error) {
	if f.graph == nil || f.graph.ID != buildID {
		return nil, eris.Errorf("store: build %s not found", buildID)
	}
	return f.graph, nil
}

func (f *fakeStore) LatestGraph(ctx context.Context) (*model.Graph, error) {
	return f.graph, nil
}

func (f *fakeStore) ListBuilds(ctx context.Context) ([]store.BuildInfo, error) {
	return f.builds, nil
}

func (f *fakeStore) Migrate(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                      { return nil }

func serveTestGraph() *model.Graph {
	a := &model.Municipality{Code: "01001", Name: "Aguascalientes", State: "Aguascalientes", Lat: 21.8823, Lon: -102.2826}
	b := &model.Municipality{Code: "01002", Name: "Asientos", State: "Aguascalientes", Lat: 22.2383, Lon: -102.0893}
	a.Edges = []model.Edge{{From: "01001", To: "01002", Distance: 27.3}}
	b.Edges = []model.Edge{{From: "01002", To: "01001", Distance: 27.3}}
	return &model.Graph{
		ID:             "build-1",
		Strategy:       model.StrategyNearest,
		MaxEdges:       10,
		MaxDistance:    100,
		BuiltAt:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Municipalities: map[string]*model.Municipality{"01001": a, "01002": b},
	}
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Health(t *testing.T) {
	router := buildRouter(&fakeStore{}, nil)

	rr := get(t, router, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_LatestGraph(t *testing.T) {
	router := buildRouter(&fakeStore{graph: serveTestGraph()}, nil)

	rr := get(t, router, "/api/v1/graphs/latest")
	assert.Equal(t, http.StatusOK, rr.Code)

	var g model.Graph
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &g))
	assert.Equal(t, "build-1", g.ID)
	assert.Len(t, g.Municipalities, 2)
	require.NotNil(t, g.Municipalities["01001"])
	assert.Equal(t, "01002", g.Municipalities["01001"].Edges[0].To)
}

func TestRouter_LatestGraph_Empty(t *testing.T) {
	router := buildRouter(&fakeStore{}, nil)

	rr := get(t, router, "/api/v1/graphs/latest")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_GraphByID(t *testing.T) {
	router := buildRouter(&fakeStore{graph: serveTestGraph()}, nil)

	rr := get(t, router, "/api/v1/graphs/build-1")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = get(t, router, "/api/v1/graphs/missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_Municipality(t *testing.T) {
	router := buildRouter(&fakeStore{graph: serveTestGraph()}, nil)

	rr := get(t, router, "/api/v1/municipalities/01002")
	assert.Equal(t, http.StatusOK, rr.Code)

	var m model.Municipality
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	assert.Equal(t, "Asientos", m.Name)

	rr = get(t, router, "/api/v1/municipalities/99999")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_Builds(t *testing.T) {
	fs := &fakeStore{builds: []store.BuildInfo{{
		ID:             "build-1",
		Strategy:       model.StrategyNearest,
		MaxEdges:       10,
		MaxDistance:    100,
		Municipalities: 2,
		Edges:          2,
	}}}
	router := buildRouter(fs, nil)

	rr := get(t, router, "/api/v1/builds")
	assert.Equal(t, http.StatusOK, rr.Code)

	var builds []store.BuildInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &builds))
	require.Len(t, builds, 1)
	assert.Equal(t, "build-1", builds[0].ID)
}

func TestRouter_Map(t *testing.T) {
	router := buildRouter(&fakeStore{graph: serveTestGraph()}, nil)

	rr := get(t, router, "/map")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "L.polyline")
}

func TestRouter_Map_Empty(t *testing.T) {
	router := buildRouter(&fakeStore{}, nil)

	rr := get(t, router, "/map")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(1), 2)
	router := buildRouter(&fakeStore{}, limiter)

	assert.Equal(t, http.StatusOK, get(t, router, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, router, "/healthz").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(t, router, "/healthz").Code)
}
