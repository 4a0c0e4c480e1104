// Package render writes a self-contained Leaflet HTML map of a
// municipality graph: one marker per municipality and one polyline
// per edge, with Leaflet itself pulled from the unpkg CDN.
package render

import (
	"html/template"
	"io"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/munigraph-cli/internal/model"
)

// Options controls map rendering.
type Options struct {
	Title     string
	CenterLat float64
	CenterLon float64
	Zoom      int
	LineColor string
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "Municipality graph"
	}
	if o.CenterLat == 0 && o.CenterLon == 0 {
		// Mexico City
		o.CenterLat = 19.4326
		o.CenterLon = -99.1332
	}
	if o.Zoom == 0 {
		o.Zoom = 6
	}
	if o.LineColor == "" {
		o.LineColor = "red"
	}
	return o
}

type marker struct {
	Coords template.JS
	Label  string
}

type page struct {
	Title     string
	View      template.JS
	LineColor string
	Markers   []marker
	Lines     []template.JS
}

var mapTmpl = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView({{.View}});
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
var style = {color: {{.LineColor}}, weight: 1, opacity: 0.5};
{{range .Markers}}L.marker([{{.Coords}}]).addTo(map).bindPopup({{.Label}});
{{end}}{{range .Lines}}L.polyline({{.}}, style).addTo(map);
{{end}}</script>
</body>
</html>
`))

func fnum(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func coords(lat, lon float64) string {
	return fnum(lat) + ", " + fnum(lon)
}

// WriteMap renders the graph as a Leaflet HTML page. Each edge pair is
// drawn once even though the graph stores it on both endpoints.
func WriteMap(w io.Writer, g *model.Graph, opts Options) error {
	if g == nil {
		return eris.New("render: nil graph")
	}
	opts = opts.withDefaults()
	log := zap.L().With(zap.String("component", "render"))

	codes := make([]string, 0, len(g.Municipalities))
	for code := range g.Municipalities {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	p := page{
		Title:     opts.Title,
		View:      template.JS("[" + coords(opts.CenterLat, opts.CenterLon) + "], " + strconv.Itoa(opts.Zoom)),
		LineColor: opts.LineColor,
	}
	drawn := make(map[[2]string]bool)
	for _, code := range codes {
		m := g.Municipalities[code]
		p.Markers = append(p.Markers, marker{
			Coords: template.JS(coords(m.Lat, m.Lon)),
			Label:  m.Name,
		})
		for _, e := range m.Edges {
			to, ok := g.Municipalities[e.To]
			if !ok {
				log.Warn("edge references unknown municipality",
					zap.String("from", e.From),
					zap.String("to", e.To))
				continue
			}
			key := [2]string{e.From, e.To}
			if e.To < e.From {
				key = [2]string{e.To, e.From}
			}
			if drawn[key] {
				continue
			}
			drawn[key] = true
			p.Lines = append(p.Lines, template.JS(
				"[["+coords(m.Lat, m.Lon)+"], ["+coords(to.Lat, to.Lon)+"]]"))
		}
	}

	if err := mapTmpl.Execute(w, p); err != nil {
		return eris.Wrap(err, "render: execute template")
	}
	log.Info("map rendered",
		zap.Int("markers", len(p.Markers)),
		zap.Int("lines", len(p.Lines)))
	return nil
}
