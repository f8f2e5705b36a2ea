// ============================================================================
// Documento de Rota - RotaFácil
// ============================================================================
// O backend de rotas não tem um formato fixo de resposta: dependendo do
// provedor chega uma polilinha codificada em routes[0].geometry, um
// FeatureCollection GeoJSON completo, ou segmentos com passos dentro de
// properties. Este arquivo modela a resposta como uma união etiquetada das
// formas conhecidas, com uma variante "desconhecida" explícita, e faz a busca
// de distância/duração por uma lista ordenada de caminhos candidatos.
// ============================================================================

package routing

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/yourorg/rotafacil/internal/geo"
)

// Shape etiqueta a forma reconhecida da resposta.
type Shape int

const (
	ShapeUnknown Shape = iota
	// routes[0].geometry com polilinha codificada (fator 1e5)
	ShapeEncodedGeometry
	// FeatureCollection GeoJSON com LineString
	ShapeFeatureCollection
	// FeatureCollection com properties.segments[].steps
	ShapeSegmentedSteps
)

func (s Shape) String() string {
	switch s {
	case ShapeEncodedGeometry:
		return "encoded-geometry"
	case ShapeFeatureCollection:
		return "feature-collection"
	case ShapeSegmentedSteps:
		return "segmented-steps"
	default:
		return "unknown"
	}
}

// Step é um passo de navegação extraído da resposta.
type Step struct {
	Instruction    string
	DistanceMeters float64
}

// Optimization é o metadado opcional de otimização que o backend anexa em
// features[0].properties.optimization.
type Optimization struct {
	Enabled       bool    `json:"enabled"`
	Reasoning     string  `json:"reasoning"`
	Weather       string  `json:"weather"`
	TrafficFactor float64 `json:"traffic_factor"`
}

// Summary é o resumo numérico da rota, com presença independente por campo.
type Summary struct {
	DistanceMeters  float64
	DurationSeconds float64
	HasDistance     bool
	HasDuration     bool
}

// Document é a resposta crua do backend, decodificada uma vez e consultada
// por caminhos candidatos.
type Document struct {
	raw map[string]interface{}
}

// ParseDocument decodifica o corpo JSON da resposta de rota.
func ParseDocument(body []byte) (*Document, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("resposta de rota não é JSON válido: %w", err)
	}
	return &Document{raw: raw}, nil
}

// Shape classifica a forma da resposta.
func (d *Document) Shape() Shape {
	if enc, ok := d.EncodedGeometry(); ok && enc != "" {
		return ShapeEncodedGeometry
	}
	if _, ok := lookup(d.raw, "features", "0", "properties", "segments", "0"); ok {
		return ShapeSegmentedSteps
	}
	if _, ok := lookup(d.raw, "features", "0", "geometry"); ok {
		return ShapeFeatureCollection
	}
	return ShapeUnknown
}

// EncodedGeometry retorna a polilinha codificada de routes[0].geometry.
func (d *Document) EncodedGeometry() (string, bool) {
	v, ok := lookup(d.raw, "routes", "0", "geometry")
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// LineCoordinates procura a primeira feature LineString/MultiLineString e
// devolve suas coordenadas em (lon, lat).
func (d *Document) LineCoordinates() ([]geo.Coordinate, bool) {
	features, ok := lookup(d.raw, "features")
	if !ok {
		return nil, false
	}
	list, ok := features.([]interface{})
	if !ok {
		return nil, false
	}

	for _, f := range list {
		fm, ok := f.(map[string]interface{})
		if !ok {
			continue
		}
		geom, ok := fm["geometry"].(map[string]interface{})
		if !ok {
			continue
		}
		switch geom["type"] {
		case "LineString":
			if coords, ok := coordList(geom["coordinates"]); ok {
				return coords, true
			}
		case "MultiLineString":
			// Concatena as partes na ordem em que chegam.
			parts, ok := geom["coordinates"].([]interface{})
			if !ok {
				continue
			}
			var all []geo.Coordinate
			for _, p := range parts {
				if coords, ok := coordList(p); ok {
					all = append(all, coords...)
				}
			}
			if len(all) > 0 {
				return all, true
			}
		}
	}
	return nil, false
}

func coordList(v interface{}) ([]geo.Coordinate, bool) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	coords := make([]geo.Coordinate, 0, len(list))
	for _, item := range list {
		pair, ok := item.([]interface{})
		if !ok || len(pair) < 2 {
			return nil, false
		}
		lon, okLon := toFinite(pair[0])
		lat, okLat := toFinite(pair[1])
		if !okLon || !okLat {
			return nil, false
		}
		coords = append(coords, geo.Coordinate{Lon: lon, Lat: lat})
	}
	return coords, len(coords) > 0
}

// Caminhos candidatos, em ordem de preferência. O primeiro que resolver para
// um número finito ganha.
var distanceCandidates = [][]string{
	{"routes", "0", "summary", "distance"},
	{"features", "0", "properties", "summary", "distance"},
	{"features", "0", "properties", "summary", "distance_in_meters"},
	{"features", "0", "properties", "summary", "distance_m"},
	{"features", "0", "properties", "segments", "0", "distance"},
	{"features", "0", "properties", "segments", "0", "summary", "distance"},
}

var durationCandidates = [][]string{
	{"routes", "0", "summary", "duration"},
	{"features", "0", "properties", "summary", "duration"},
	{"features", "0", "properties", "summary", "duration_in_seconds"},
	{"features", "0", "properties", "summary", "duration_s"},
	{"features", "0", "properties", "segments", "0", "duration"},
	{"features", "0", "properties", "segments", "0", "summary", "duration"},
}

// Summary percorre os caminhos candidatos e, se nada resolver, faz uma busca
// recursiva por qualquer objeto que carregue distance e duration juntos.
func (d *Document) Summary() Summary {
	var s Summary
	if v, ok := firstFinite(d.raw, distanceCandidates); ok {
		s.DistanceMeters, s.HasDistance = v, true
	}
	if v, ok := firstFinite(d.raw, durationCandidates); ok {
		s.DurationSeconds, s.HasDuration = v, true
	}
	if s.HasDistance && s.HasDuration {
		return s
	}

	if dist, dur, ok := walkForSummary(d.raw, 0); ok {
		if !s.HasDistance {
			s.DistanceMeters, s.HasDistance = dist, true
		}
		if !s.HasDuration {
			s.DurationSeconds, s.HasDuration = dur, true
		}
	}
	return s
}

// Steps extrai a lista de passos, tentando as localizações conhecidas.
func (d *Document) Steps() []Step {
	stepPaths := [][]string{
		{"features", "0", "properties", "segments", "0", "steps"},
		{"routes", "0", "segments", "0", "steps"},
	}
	for _, path := range stepPaths {
		v, ok := lookup(d.raw, path...)
		if !ok {
			continue
		}
		list, ok := v.([]interface{})
		if !ok || len(list) == 0 {
			continue
		}
		steps := make([]Step, 0, len(list))
		for _, item := range list {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			instr, _ := m["instruction"].(string)
			if instr == "" {
				instr, _ = m["description"].(string)
			}
			if instr == "" {
				instr = "Passo"
			}
			dist, _ := toFinite(m["distance"])
			steps = append(steps, Step{Instruction: instr, DistanceMeters: dist})
		}
		if len(steps) > 0 {
			return steps
		}
	}
	return nil
}

// Optimization retorna o metadado de otimização, se presente.
func (d *Document) Optimization() (Optimization, bool) {
	v, ok := lookup(d.raw, "features", "0", "properties", "optimization")
	if !ok {
		return Optimization{}, false
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return Optimization{}, false
	}
	var opt Optimization
	opt.Enabled, _ = m["enabled"].(bool)
	opt.Reasoning, _ = m["reasoning"].(string)
	opt.Weather, _ = m["weather"].(string)
	if f, ok := toFinite(m["traffic_factor"]); ok {
		opt.TrafficFactor = f
	}
	return opt, opt.Enabled
}

// Lookup expõe a navegação por caminho para colaboradores que extraem
// metadados frouxos da resposta (textos pré-formatados, propriedades extras).
func (d *Document) Lookup(path ...string) (interface{}, bool) {
	return lookup(d.raw, path...)
}

// ── Navegação genérica ──────────────────────────────────────────────────────

// lookup navega mapas por chave e listas por índice decimal.
func lookup(root interface{}, path ...string) (interface{}, bool) {
	cur := root
	for _, key := range path {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[key]
			if !ok {
				return nil, false
			}
			cur = v
		case []interface{}:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func firstFinite(root interface{}, candidates [][]string) (float64, bool) {
	for _, path := range candidates {
		if v, ok := lookup(root, path...); ok {
			if f, ok := toFinite(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

// toFinite aceita número ou string numérica, rejeitando NaN/Inf.
func toFinite(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

const maxWalkDepth = 12

// walkForSummary procura recursivamente um objeto com distance e duration.
func walkForSummary(node interface{}, depth int) (dist, dur float64, ok bool) {
	if depth > maxWalkDepth {
		return 0, 0, false
	}
	switch n := node.(type) {
	case map[string]interface{}:
		dv, okD := toFinite(n["distance"])
		uv, okU := toFinite(n["duration"])
		if okD && okU {
			return dv, uv, true
		}
		for _, v := range n {
			if d2, u2, ok := walkForSummary(v, depth+1); ok {
				return d2, u2, true
			}
		}
	case []interface{}:
		for _, v := range n {
			if d2, u2, ok := walkForSummary(v, depth+1); ok {
				return d2, u2, true
			}
		}
	}
	return 0, 0, false
}
