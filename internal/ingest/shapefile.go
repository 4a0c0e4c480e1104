package ingest

import (
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/munigraph-cli/internal/geodist"
	"github.com/sells-group/munigraph-cli/internal/model"
)

// MunicipalitiesFromShapefile loads municipality records from an
// INEGI-style marco geoestadístico shapefile. The CVEGEO attribute is the
// municipality code, NOMGEO the name, NOM_ENT the state. Point geometry
// supplies the centroid; polygon geometry uses the bounding-box center.
func MunicipalitiesFromShapefile(path string) (map[string]*model.Municipality, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open shapefile")
	}
	defer func() { _ = reader.Close() }()

	codeIdx := fieldIndex(reader, "CVEGEO")
	nameIdx := fieldIndex(reader, "NOMGEO")
	stateIdx := fieldIndex(reader, "NOM_ENT")
	if codeIdx < 0 {
		return nil, eris.New("ingest: shapefile is missing the CVEGEO field")
	}

	log := zap.L().With(zap.String("component", "ingest.shapefile"))

	out := make(map[string]*model.Municipality)
	var dropped int
	for reader.Next() {
		_, shape := reader.Shape()
		if shape == nil {
			continue
		}

		code := strings.TrimSpace(reader.Attribute(codeIdx))
		if code == "" {
			dropped++
			continue
		}

		lat, lon, ok := shapeCentroid(shape)
		if !ok {
			dropped++
			continue
		}
		if err := geodist.ValidateCoordinates(lat, lon); err != nil {
			log.Warn("dropping shapefile record with invalid coordinates",
				zap.String("code", code), zap.Error(err))
			dropped++
			continue
		}

		m := &model.Municipality{Code: code, Lat: lat, Lon: lon}
		if nameIdx >= 0 {
			m.Name = strings.TrimSpace(reader.Attribute(nameIdx))
		}
		if stateIdx >= 0 {
			m.State = strings.TrimSpace(reader.Attribute(stateIdx))
		}
		out[code] = m
	}

	log.Info("shapefile municipalities loaded",
		zap.Int("loaded", len(out)),
		zap.Int("dropped", dropped),
	)
	return out, nil
}

// fieldIndex returns the index of a named field in the shapefile, or -1.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// shapeCentroid extracts a representative point from a shape: the point
// itself, or the bounding-box center for line and polygon shapes.
func shapeCentroid(s shp.Shape) (lat, lon float64, ok bool) {
	switch shape := s.(type) {
	case *shp.Point:
		return shape.Y, shape.X, true
	case *shp.Polygon:
		b := shape.BBox()
		return (b.MinY + b.MaxY) / 2, (b.MinX + b.MaxX) / 2, true
	case *shp.PolyLine:
		b := shape.BBox()
		return (b.MinY + b.MaxY) / 2, (b.MinX + b.MaxX) / 2, true
	default:
		return 0, 0, false
	}
}
