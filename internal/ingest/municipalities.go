// Package ingest loads and cleans the raw datasets feeding the graph
// builders: the municipality dump, the supercharger registry, and the
// intermunicipal flow matrix. Everything leaving this package has validated
// coordinates; a bad record is rejected here, never mid-build.
package ingest

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	geojson "github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/munigraph-cli/internal/geodist"
	"github.com/sells-group/munigraph-cli/internal/model"
)

// rawMunicipality mirrors one element of the open-data municipality dump.
// Names and codes arrive as single-element arrays; geo_shape is the full
// boundary polygon and is dropped after validation.
type rawMunicipality struct {
	MunCode  []string        `json:"mun_code"`
	MunName  []string        `json:"mun_name"`
	StaName  []string        `json:"sta_name"`
	GeoPoint rawGeoPoint     `json:"geo_point_2d"`
	GeoShape json.RawMessage `json:"geo_shape,omitempty"`
}

type rawGeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Municipalities reads the municipality dump and returns one record per
// code. Records with missing codes or invalid coordinates are dropped with
// a warning; a boundary that fails GeoJSON validation only logs, since the
// graph never uses the shape.
func Municipalities(path string) (map[string]*model.Municipality, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read municipalities")
	}

	var raw []rawMunicipality
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "ingest: parse municipalities")
	}

	log := zap.L().With(zap.String("component", "ingest.municipalities"))

	out := make(map[string]*model.Municipality, len(raw))
	var dropped int
	for _, r := range raw {
		if len(r.MunCode) == 0 || r.MunCode[0] == "" {
			dropped++
			continue
		}
		code := r.MunCode[0]

		if err := geodist.ValidateCoordinates(r.GeoPoint.Lat, r.GeoPoint.Lon); err != nil {
			log.Warn("dropping municipality with invalid coordinates",
				zap.String("code", code), zap.Error(err))
			dropped++
			continue
		}

		if len(r.GeoShape) > 0 {
			var g geojson.Geometry
			if err := json.Unmarshal(r.GeoShape, &g); err != nil {
				log.Debug("unparseable geo_shape", zap.String("code", code), zap.Error(err))
			} else if _, err := g.Decode(); err != nil {
				log.Debug("invalid geo_shape geometry", zap.String("code", code), zap.Error(err))
			}
		}

		m := &model.Municipality{Code: code, Lat: r.GeoPoint.Lat, Lon: r.GeoPoint.Lon}
		if len(r.MunName) > 0 {
			m.Name = r.MunName[0]
		}
		if len(r.StaName) > 0 {
			m.State = r.StaName[0]
		}
		out[code] = m
	}

	log.Info("municipalities loaded",
		zap.Int("loaded", len(out)),
		zap.Int("dropped", dropped),
	)
	return out, nil
}

// CleanMunicipalities rewrites the raw dump without the geo_shape payloads,
// which dominate the file size and are unused downstream.
func CleanMunicipalities(inPath, outPath string) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return eris.Wrap(err, "ingest: read raw municipalities")
	}

	var raw []rawMunicipality
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "ingest: parse raw municipalities")
	}

	for i := range raw {
		raw[i].GeoShape = nil
	}

	cleaned, err := json.Marshal(raw)
	if err != nil {
		return eris.Wrap(err, "ingest: marshal cleaned municipalities")
	}
	if err := os.WriteFile(outPath, cleaned, 0o644); err != nil {
		return eris.Wrap(err, "ingest: write cleaned municipalities")
	}

	zap.L().Info("municipalities cleaned",
		zap.String("out", outPath),
		zap.Int("records", len(raw)),
	)
	return nil
}
