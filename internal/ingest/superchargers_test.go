package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/munigraph-cli/internal/model"
)

const superchargersCSV = `Supercharger,Street Address,City,State,Zip,Country
"Aguascalientes, Mexico",Av Aguascalientes Sur 601,Aguascalientes,Aguascalientes,20280,Mexico
"Monterrey, Mexico",Av. Lazaro Cardenas 1000,Monterrey,Nuevo Leon,66266,Mexico
"Austin, TX",1000 S Lamar Blvd,Austin,Texas,78704,United States
"Culiacan, Mexico",Blvd Pedro Infante 2911,Culiacan,Sinaloa,80100,Mexico
`

func TestSuperchargers_FiltersToMexico(t *testing.T) {
	path := writeFixture(t, "superchargers.csv", superchargersCSV)

	chargers, err := Superchargers(path)
	require.NoError(t, err)

	require.Len(t, chargers, 3)
	assert.Equal(t, "Aguascalientes", chargers[0].City)
	assert.Equal(t, "Monterrey", chargers[1].City)
	assert.Equal(t, "Sinaloa", chargers[2].State)
}

func TestSuperchargersFromXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "superchargers.xlsx")

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Locations")
	require.NoError(t, err)

	addRow := func(values ...string) {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}
	addRow("Supercharger", "City", "State", "Country")
	addRow("Aguascalientes, Mexico", "Aguascalientes", "Aguascalientes", "Mexico")
	addRow("Austin, TX", "Austin", "Texas", "United States")

	require.NoError(t, f.Save(path))

	chargers, err := SuperchargersFromXLSX(path)
	require.NoError(t, err)
	require.Len(t, chargers, 1)
	assert.Equal(t, "Aguascalientes", chargers[0].City)
}

func TestMarkSuperchargers_AccentFoldedJoin(t *testing.T) {
	munis := map[string]*model.Municipality{
		"01001": {Code: "01001", Name: "Aguascalientes", State: "Aguascalientes"},
		"25006": {Code: "25006", Name: "Culiacán", State: "Sinaloa"},
		"19039": {Code: "19039", Name: "Monterrey", State: "Nuevo León"},
	}

	chargers := []Supercharger{
		{Name: "Culiacan, Mexico", City: "Culiacan", State: "Sinaloa"},
		{Name: "Monterrey, Mexico", City: "Monterrey", State: "Nuevo Leon"},
		{Name: "Nowhere, Mexico", City: "Villa Perdida", State: "Sonora"},
	}

	unmatched := MarkSuperchargers(munis, chargers)

	assert.True(t, munis["25006"].HasSupercharger)
	assert.True(t, munis["19039"].HasSupercharger)
	assert.False(t, munis["01001"].HasSupercharger)

	require.Len(t, unmatched, 1)
	assert.Equal(t, "Villa Perdida", unmatched[0].City)
}

func TestMarkSuperchargers_DuplicateNamesAllFlagged(t *testing.T) {
	munis := map[string]*model.Municipality{
		"a": {Code: "a", Name: "Juárez", State: "Chihuahua"},
		"b": {Code: "b", Name: "Juarez", State: "Chihuahua"},
	}

	unmatched := MarkSuperchargers(munis, []Supercharger{
		{City: "Juarez", State: "Chihuahua"},
	})

	assert.Empty(t, unmatched)
	assert.True(t, munis["a"].HasSupercharger)
	assert.True(t, munis["b"].HasSupercharger)
}

func TestFoldName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Jesús María", "jesus maria"},
		{"  Ciudad de México ", "ciudad de mexico"},
		{"Nuevo León", "nuevo leon"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, foldName(tt.in))
	}
}

func TestJoinKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "sinaloa_culiacan", joinKey("Sinaloa", "Culiacán"))
	assert.Equal(t, joinKey("Nuevo León", "García"), joinKey("Nuevo Leon", "Garcia"))
}
