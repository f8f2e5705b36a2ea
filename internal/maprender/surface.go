// ============================================================================
// Superfície de Mapa - RotaFácil
// ============================================================================
// Contratos do colaborador de renderização. O motor de mapa real (OpenLayers
// no navegador, ou um fake nos testes) fica atrás destas interfaces: nenhum
// componente fala com o mapa diretamente.
// ============================================================================

package maprender

import (
	"time"

	"github.com/yourorg/rotafacil/internal/geo"
)

// FeatureRef identifica uma feature desenhada. Opaco para quem desenha;
// o motor de mapa decide o que colocar aqui.
type FeatureRef interface{}

// Style seleciona o estilo visual de uma feature.
type Style string

const (
	StylePosition    Style = "position"
	StyleAccuracy    Style = "accuracy"
	StyleOrigin      Style = "origin"
	StyleDestination Style = "destination"
	StyleRoute       Style = "route"
)

// Canvas é a coleção de features do mapa (a fonte de vetores no original).
type Canvas interface {
	AddPoint(pos geo.Coordinate, style Style) FeatureRef
	AddCircle(center geo.Coordinate, radiusMeters float64, style Style) FeatureRef
	AddLine(path []geo.Coordinate, style Style) FeatureRef
	MovePoint(ref FeatureRef, pos geo.Coordinate)
	MoveCircle(ref FeatureRef, center geo.Coordinate, radiusMeters float64)
	Remove(ref FeatureRef)
}

// Viewport controla a câmera e as interações de gesto do mapa.
type Viewport interface {
	Center() geo.Coordinate
	SetCenter(pos geo.Coordinate)
	Zoom() float64
	SetZoom(zoom float64)
	Fit(bounds geo.Bounds, paddingPx int, animation time.Duration)
	SetInteractionsEnabled(enabled bool)
}
