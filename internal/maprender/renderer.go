// ============================================================================
// Renderizador de Rota - RotaFácil
// ============================================================================
// Desenha marcadores e geometria de rota na superfície do mapa. Não fala com
// o motor de mapa diretamente: tudo passa pelo Canvas e pelo Viewport.
// ============================================================================

package maprender

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/twpayne/go-polyline"

	"github.com/yourorg/rotafacil/internal/geo"
	"github.com/yourorg/rotafacil/internal/routing"
	"github.com/yourorg/rotafacil/internal/state"
)

// ErrNoGeometry indica que a resposta não trouxe nenhuma geometria que o
// renderizador saiba desenhar.
var ErrNoGeometry = errors.New("resposta de rota sem geometria desenhável")

const (
	fitPaddingPx   = 100
	fitAnimation   = time.Second
	minRoutePoints = 2 // menos pontos que isso não formam linha
)

// Renderer desenha a rota e os marcadores A/B. Satisfaz routing.Renderer.
type Renderer struct {
	canvas   Canvas
	viewport Viewport
	store    *state.Store

	mu        sync.Mutex
	routeRef  FeatureRef
	originRef FeatureRef
	destRef   FeatureRef
}

func NewRenderer(canvas Canvas, viewport Viewport, store *state.Store) *Renderer {
	return &Renderer{canvas: canvas, viewport: viewport, store: store}
}

// ClearRoute remove rota, marcadores e os extremos salvos. Roda inteira
// mesmo sem nada desenhado: limpar duas vezes é sempre seguro.
func (r *Renderer) ClearRoute() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.routeRef != nil {
		r.canvas.Remove(r.routeRef)
		r.routeRef = nil
	}
	if r.originRef != nil {
		r.canvas.Remove(r.originRef)
		r.originRef = nil
	}
	if r.destRef != nil {
		r.canvas.Remove(r.destRef)
		r.destRef = nil
	}
	r.store.ClearRouteEndpoints()
	log.Println("[MAPA] Rota e marcadores removidos")
}

// DrawRouteMarkers desenha os marcadores de origem e destino a partir do
// estado salvo. Sem extremos definidos vira no-op com aviso, não erro.
func (r *Renderer) DrawRouteMarkers() error {
	origin, dest, ok := r.store.RouteEndpoints()
	if !ok {
		log.Println("[MAPA] ⚠️ DrawRouteMarkers sem extremos definidos, ignorando")
		return nil
	}
	if err := origin.Validate(); err != nil {
		return err
	}
	if err := dest.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.originRef != nil {
		r.canvas.MovePoint(r.originRef, origin)
	} else {
		r.originRef = r.canvas.AddPoint(origin, StyleOrigin)
	}
	if r.destRef != nil {
		r.canvas.MovePoint(r.destRef, dest)
	} else {
		r.destRef = r.canvas.AddPoint(dest, StyleDestination)
	}
	return nil
}

// DrawRoute desenha a geometria da rota, substituindo qualquer rota anterior,
// e enquadra o viewport no traçado. Retorna o que conseguiu extrair de
// metadados soltos para servir de fallback ao resumo estruturado.
func (r *Renderer) DrawRoute(doc *routing.Document) (routing.RouteExtract, error) {
	extract := looseExtract(doc)

	path, err := routeGeometry(doc)
	if err != nil {
		return extract, err
	}

	r.mu.Lock()
	if r.routeRef != nil {
		r.canvas.Remove(r.routeRef)
	}
	r.routeRef = r.canvas.AddLine(path, StyleRoute)
	r.mu.Unlock()

	bounds := geo.BoundsOf(path)
	r.viewport.Fit(bounds, fitPaddingPx, fitAnimation)

	log.Printf("[MAPA] Rota desenhada com %d pontos (forma: %s)", len(path), doc.Shape())
	return extract, nil
}

// routeGeometry resolve a geometria em ordem de preferência: polilinha
// codificada primeiro, depois LineString GeoJSON.
func routeGeometry(doc *routing.Document) ([]geo.Coordinate, error) {
	if enc, ok := doc.EncodedGeometry(); ok {
		coords, _, err := polyline.DecodeCoords([]byte(enc))
		if err != nil {
			return nil, err
		}
		path := make([]geo.Coordinate, 0, len(coords))
		for _, c := range coords {
			if len(c) < 2 {
				continue
			}
			// polilinha codificada vem em (lat, lon)
			path = append(path, geo.Coordinate{Lat: c[0], Lon: c[1]})
		}
		if len(path) >= minRoutePoints {
			return path, nil
		}
		return nil, ErrNoGeometry
	}

	if coords, ok := doc.LineCoordinates(); ok && len(coords) >= minRoutePoints {
		return coords, nil
	}
	return nil, ErrNoGeometry
}
