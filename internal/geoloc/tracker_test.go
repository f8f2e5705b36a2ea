package geoloc

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yourorg/rotafacil/internal/geo"
	"github.com/yourorg/rotafacil/internal/maprender"
	"github.com/yourorg/rotafacil/internal/state"
	"github.com/yourorg/rotafacil/internal/status"
)

// fakeProvider entrega leituras sob demanda pelo callback do watch.
type fakeProvider struct {
	mu        sync.Mutex
	available bool
	onFix     func(Reading)
	onErr     func(WatchError)
	cleared   []string
	watches   int
}

func (p *fakeProvider) Available() bool { return p.available }

func (p *fakeProvider) CurrentPosition(ctx context.Context, opts WatchOptions) (Reading, error) {
	// A leitura inicial não participa destes testes; o watch entrega tudo.
	return Reading{}, context.Canceled
}

func (p *fakeProvider) WatchPosition(opts WatchOptions, onFix func(Reading), onErr func(WatchError)) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.watches++
	p.onFix = onFix
	p.onErr = onErr
	return "watch-1", nil
}

func (p *fakeProvider) ClearWatch(handle string) {
	p.mu.Lock()
	p.cleared = append(p.cleared, handle)
	p.mu.Unlock()
}

func (p *fakeProvider) push(r Reading) {
	p.mu.Lock()
	fn := p.onFix
	p.mu.Unlock()
	if fn != nil {
		fn(r)
	}
}

func (p *fakeProvider) pushError(e WatchError) {
	p.mu.Lock()
	fn := p.onErr
	p.mu.Unlock()
	if fn != nil {
		fn(e)
	}
}

// fakeCanvas e fakeViewport mínimos para o rastreador.
type fakeCanvas struct {
	points, circles int
	moves           int
	lastPos         geo.Coordinate
}

func (c *fakeCanvas) AddPoint(pos geo.Coordinate, s maprender.Style) maprender.FeatureRef {
	c.points++
	c.lastPos = pos
	return "pos"
}

func (c *fakeCanvas) AddCircle(center geo.Coordinate, r float64, s maprender.Style) maprender.FeatureRef {
	c.circles++
	return "acc"
}

func (c *fakeCanvas) AddLine(path []geo.Coordinate, s maprender.Style) maprender.FeatureRef {
	return "line"
}

func (c *fakeCanvas) MovePoint(ref maprender.FeatureRef, pos geo.Coordinate) {
	c.moves++
	c.lastPos = pos
}

func (c *fakeCanvas) MoveCircle(ref maprender.FeatureRef, center geo.Coordinate, r float64) {
	c.moves++
}

func (c *fakeCanvas) Remove(ref maprender.FeatureRef) {}

type fakeViewport struct {
	center  geo.Coordinate
	zoom    float64
	centers int
}

func (v *fakeViewport) Center() geo.Coordinate { return v.center }
func (v *fakeViewport) SetCenter(pos geo.Coordinate) {
	v.center = pos
	v.centers++
}
func (v *fakeViewport) Zoom() float64     { return v.zoom }
func (v *fakeViewport) SetZoom(z float64) { v.zoom = z }
func (v *fakeViewport) Fit(b geo.Bounds, padding int, anim time.Duration) {}
func (v *fakeViewport) SetInteractionsEnabled(on bool)                    {}

type recordingReporter struct {
	mu       sync.Mutex
	messages []string
	kinds    []status.Kind
}

func (r *recordingReporter) Show(text string, kind status.Kind) {
	r.mu.Lock()
	r.messages = append(r.messages, text)
	r.kinds = append(r.kinds, kind)
	r.mu.Unlock()
}

func (r *recordingReporter) Clear() {}

func (r *recordingReporter) contains(sub string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}

func newTestTracker(available bool) (*Tracker, *fakeProvider, *fakeCanvas, *fakeViewport, *state.Store, *recordingReporter) {
	provider := &fakeProvider{available: available}
	canvas := &fakeCanvas{}
	viewport := &fakeViewport{zoom: 13}
	store := state.New()
	store.SetMapReady()
	reporter := &recordingReporter{}
	return NewTracker(provider, store, canvas, viewport, reporter), provider, canvas, viewport, store, reporter
}

func TestStartTrackingUnavailable(t *testing.T) {
	tr, provider, _, _, store, reporter := newTestTracker(false)
	tr.StartTracking()
	if provider.watches != 0 {
		t.Error("watch iniciado sem capacidade de geolocalização")
	}
	if store.Tracking() {
		t.Error("rastreando sem provedor")
	}
	if !reporter.contains("não é suportada") {
		t.Errorf("mensagens = %v", reporter.messages)
	}
}

func TestStartTrackingTwice(t *testing.T) {
	tr, provider, _, _, store, reporter := newTestTracker(true)
	tr.StartTracking()
	if !store.Tracking() || store.WatchHandle() != "watch-1" {
		t.Fatalf("watch não registrado: %q", store.WatchHandle())
	}
	tr.StartTracking()
	if provider.watches != 1 {
		t.Errorf("watches = %d, segunda chamada deveria ser no-op", provider.watches)
	}
	if !reporter.contains("já está ativo") {
		t.Errorf("mensagens = %v", reporter.messages)
	}
}

func TestFirstFixCreatesMarkerAndCenters(t *testing.T) {
	tr, provider, canvas, viewport, store, _ := newTestTracker(true)
	tr.StartTracking()

	pos := geo.Coordinate{Lon: -46.63, Lat: -23.55}
	provider.push(Reading{Position: pos, AccuracyMeters: 30})

	if canvas.points != 1 || canvas.circles != 1 {
		t.Errorf("points=%d circles=%d", canvas.points, canvas.circles)
	}
	if viewport.centers != 1 || viewport.center != pos {
		t.Errorf("câmera = %+v (%d moves)", viewport.center, viewport.centers)
	}
	if viewport.zoom != 16 {
		t.Errorf("zoom = %v, esperado 16", viewport.zoom)
	}
	fix, ok := store.CurrentFix()
	if !ok || fix.AccuracyMeters != 30 {
		t.Errorf("fix = %+v, %v", fix, ok)
	}
}

func TestImpreciseFixNeverRecenters(t *testing.T) {
	tr, provider, canvas, viewport, store, _ := newTestTracker(true)
	tr.StartTracking()

	provider.push(Reading{Position: geo.Coordinate{Lon: -46.63, Lat: -23.55}, AccuracyMeters: 200})

	if viewport.centers != 0 {
		t.Error("leitura de 200 m recentralizou a câmera")
	}
	// O estado e o marcador atualizam mesmo assim.
	if canvas.points != 1 {
		t.Errorf("points = %d", canvas.points)
	}
	if fix, ok := store.CurrentFix(); !ok || fix.AccuracyMeters != 200 {
		t.Errorf("fix = %+v, %v", fix, ok)
	}
}

func TestFollowDisabledSkipsRecenter(t *testing.T) {
	tr, provider, canvas, viewport, store, _ := newTestTracker(true)
	tr.StartTracking()

	provider.push(Reading{Position: geo.Coordinate{Lon: -46.63, Lat: -23.55}, AccuracyMeters: 30})
	store.SetFollowEnabled(false)

	provider.push(Reading{Position: geo.Coordinate{Lon: -46.62, Lat: -23.54}, AccuracyMeters: 30})
	if viewport.centers != 1 {
		t.Errorf("centers = %d, leitura com seguir desligado recentralizou", viewport.centers)
	}
	if canvas.moves == 0 {
		t.Error("marcador não acompanhou a leitura")
	}
}

func TestManualDragDisablesFollow(t *testing.T) {
	tr, provider, _, viewport, store, _ := newTestTracker(true)
	tr.StartTracking()
	provider.push(Reading{Position: geo.Coordinate{Lon: -46.63, Lat: -23.55}, AccuracyMeters: 30})

	tr.OnManualViewportDrag()
	if store.FollowEnabled() {
		t.Fatal("gesto manual não desligou o modo seguir")
	}

	before := viewport.centers
	provider.push(Reading{Position: geo.Coordinate{Lon: -46.60, Lat: -23.50}, AccuracyMeters: 30})
	if viewport.centers != before {
		t.Error("câmera seguiu depois do gesto manual")
	}
}

func TestToggleFollowRecenters(t *testing.T) {
	tr, provider, _, viewport, store, _ := newTestTracker(true)
	tr.StartTracking()
	provider.push(Reading{Position: geo.Coordinate{Lon: -46.63, Lat: -23.55}, AccuracyMeters: 30})
	tr.OnManualViewportDrag()

	before := viewport.centers
	if on := tr.ToggleFollow(); !on {
		t.Fatal("toggle deveria religar o modo seguir")
	}
	if !store.FollowEnabled() || viewport.centers != before+1 {
		t.Errorf("follow=%v centers=%d", store.FollowEnabled(), viewport.centers)
	}
}

func TestStopTracking(t *testing.T) {
	tr, provider, _, _, store, _ := newTestTracker(true)
	tr.StartTracking()
	tr.StopTracking()

	if store.Tracking() {
		t.Error("handle sobreviveu ao stop")
	}
	if store.FollowEnabled() {
		t.Error("modo seguir sobreviveu ao stop")
	}
	if len(provider.cleared) != 1 || provider.cleared[0] != "watch-1" {
		t.Errorf("cleared = %v", provider.cleared)
	}
}

func TestWatchErrorDoesNotStopTracking(t *testing.T) {
	tr, provider, _, _, store, reporter := newTestTracker(true)
	tr.StartTracking()

	provider.pushError(WatchError{Code: CodePermissionDenied})
	if !store.Tracking() {
		t.Fatal("erro do watch derrubou o rastreamento")
	}
	if !reporter.contains("Permissão de localização negada") {
		t.Errorf("mensagens = %v", reporter.messages)
	}

	// A leitura seguinte recupera normalmente.
	provider.push(Reading{Position: geo.Coordinate{Lon: -46.63, Lat: -23.55}, AccuracyMeters: 30})
	if _, ok := store.CurrentFix(); !ok {
		t.Error("leitura pós-erro não registrada")
	}
}

func TestFixBeforeMapReadyIgnored(t *testing.T) {
	provider := &fakeProvider{available: true}
	canvas := &fakeCanvas{}
	viewport := &fakeViewport{zoom: 13}
	store := state.New() // mapa não pronto
	reporter := &recordingReporter{}
	tr := NewTracker(provider, store, canvas, viewport, reporter)

	tr.StartTracking()
	provider.push(Reading{Position: geo.Coordinate{Lon: -46.63, Lat: -23.55}, AccuracyMeters: 30})

	if canvas.points != 0 {
		t.Error("desenhou marcador sem superfície de mapa")
	}
	if _, ok := store.CurrentFix(); ok {
		t.Error("fix registrado antes do mapa pronto")
	}
}

func TestCenterOnCurrentPosition(t *testing.T) {
	tr, provider, _, viewport, _, reporter := newTestTracker(true)
	tr.StartTracking()

	tr.CenterOnCurrentPosition()
	if !reporter.contains("Nenhuma posição GPS disponível") {
		t.Errorf("mensagens = %v", reporter.messages)
	}

	provider.push(Reading{Position: geo.Coordinate{Lon: -46.63, Lat: -23.55}, AccuracyMeters: 42})
	before := viewport.centers
	tr.CenterOnCurrentPosition()
	if viewport.centers != before+1 {
		t.Error("não recentralizou na posição atual")
	}
	if !reporter.contains("±42 m") {
		t.Errorf("mensagens = %v", reporter.messages)
	}
}
