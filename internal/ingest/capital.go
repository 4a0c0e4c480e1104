package ingest

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/munigraph-cli/internal/model"
)

const (
	// CapitalPrefix is the state-code prefix of the Ciudad de México
	// subdivisions.
	CapitalPrefix = "09"
	// CapitalCode is the synthetic code the collapsed record takes.
	CapitalCode = "09001"
)

// CollapseCapital replaces the individual Ciudad de México subdivisions
// with a single record at the city center. The subdivisions are small
// enough that treating them as separate nodes floods the capital with
// short edges; the flow dataset also reports them as one unit. Returns the
// number of records removed. The capital has supercharger coverage, so the
// collapsed record always carries the flag regardless of which subdivision
// rows were marked.
func CollapseCapital(munis map[string]*model.Municipality) int {
	var removed int
	for code := range munis {
		if !strings.HasPrefix(code, CapitalPrefix) {
			continue
		}
		delete(munis, code)
		removed++
	}
	if removed == 0 {
		return 0
	}

	munis[CapitalCode] = &model.Municipality{
		Code:            CapitalCode,
		Name:            "Ciudad de México",
		State:           "Ciudad de México",
		Lat:             19.4326,
		Lon:             -99.1332,
		HasSupercharger: true,
	}

	zap.L().Info("collapsed capital subdivisions",
		zap.Int("removed", removed),
		zap.String("into", CapitalCode),
	)
	return removed
}
