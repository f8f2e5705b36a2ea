// ============================================================================
// Rastreador GPS - RotaFácil
// ============================================================================
// Mantém o marcador de posição e o círculo de precisão no mapa, seguindo o
// usuário enquanto o modo "seguir" estiver ligado. Uma leitura única de alta
// precisão abre o fluxo; depois um watch contínuo assume. Erros do watch são
// reportados mas nunca derrubam o rastreamento: a próxima leitura boa
// recupera sozinha.
// ============================================================================

package geoloc

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/yourorg/rotafacil/internal/geo"
	"github.com/yourorg/rotafacil/internal/maprender"
	"github.com/yourorg/rotafacil/internal/state"
	"github.com/yourorg/rotafacil/internal/status"
)

// Limite de precisão (metros) para recentralizar a câmera numa leitura.
const reliableAccuracyMeters = 150.0

// Zoom mínimo aplicado ao recentralizar na posição do usuário.
const followZoom = 16

// Opções das duas fases: leitura inicial exigente, watch mais tolerante.
var (
	initialFixOptions = WatchOptions{HighAccuracy: true, Timeout: 12 * time.Second, MaximumAge: 0}
	watchOptions      = WatchOptions{HighAccuracy: true, Timeout: 10 * time.Second, MaximumAge: time.Second}
)

// Tracker acompanha a posição do usuário no mapa.
type Tracker struct {
	provider Provider
	store    *state.Store
	canvas   maprender.Canvas
	viewport maprender.Viewport
	reporter status.Reporter

	mu     sync.Mutex
	posRef maprender.FeatureRef
	accRef maprender.FeatureRef
	cancel context.CancelFunc
}

func NewTracker(provider Provider, store *state.Store, canvas maprender.Canvas, viewport maprender.Viewport, reporter status.Reporter) *Tracker {
	return &Tracker{
		provider: provider,
		store:    store,
		canvas:   canvas,
		viewport: viewport,
		reporter: reporter,
	}
}

// StartTracking liga o rastreamento contínuo. Chamada repetida é no-op com
// aviso; dispositivo sem geolocalização é condição terminal.
func (t *Tracker) StartTracking() {
	if !t.provider.Available() {
		t.reporter.Show("Geolocalização não é suportada neste dispositivo.", status.Error)
		return
	}
	if t.store.Tracking() {
		t.reporter.Show("Rastreamento GPS já está ativo.", status.Info)
		return
	}

	t.reporter.Show("Obtendo sua localização...", status.Info)

	ctx, cancel := context.WithCancel(context.Background())
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	// Leitura única de alta precisão primeiro: dá um fix rápido na tela
	// enquanto o watch aquece.
	go func() {
		reading, err := t.provider.CurrentPosition(ctx, initialFixOptions)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if we, ok := err.(WatchError); ok {
				t.handleError(we)
			} else {
				log.Printf("[GPS] leitura inicial falhou: %v", err)
			}
			return
		}
		t.handleFix(reading, false)
	}()

	handle, err := t.provider.WatchPosition(watchOptions,
		func(r Reading) { t.handleFix(r, false) },
		t.handleError,
	)
	if err != nil {
		cancel()
		t.reporter.Show("Não foi possível iniciar o rastreamento GPS.", status.Error)
		return
	}

	t.store.SetWatchHandle(handle)
	t.store.SetFollowEnabled(true)
	log.Printf("[GPS] Rastreamento iniciado (watch %s)", handle)
}

// StopTracking encerra o watch e desliga o modo seguir. O marcador fica na
// última posição conhecida.
func (t *Tracker) StopTracking() {
	handle := t.store.WatchHandle()
	if handle == "" {
		return
	}
	t.provider.ClearWatch(handle)
	t.store.SetWatchHandle("")
	t.store.SetFollowEnabled(false)

	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.mu.Unlock()

	t.reporter.Show("Rastreamento GPS parado.", status.Info)
	log.Println("[GPS] Rastreamento parado")
}

// ToggleFollow alterna o modo seguir e devolve o novo estado.
func (t *Tracker) ToggleFollow() bool {
	next := !t.store.FollowEnabled()
	t.store.SetFollowEnabled(next)
	if next {
		// Religar o modo seguir recentraliza imediatamente se houver fix.
		if fix, ok := t.store.CurrentFix(); ok {
			t.recenter(fix.Position)
		}
	}
	return next
}

// OnManualViewportDrag desliga o modo seguir: arrastar o mapa é a forma do
// usuário dizer "me deixa olhar outra coisa".
func (t *Tracker) OnManualViewportDrag() {
	if t.store.FollowEnabled() {
		t.store.SetFollowEnabled(false)
		log.Println("[GPS] Modo seguir desligado por gesto manual")
	}
}

// CenterOnCurrentPosition força a câmera para a posição atual, ignorando o
// modo seguir.
func (t *Tracker) CenterOnCurrentPosition() {
	fix, ok := t.store.CurrentFix()
	if !ok {
		t.reporter.Show("Nenhuma posição GPS disponível ainda.", status.Error)
		return
	}
	t.recenter(fix.Position)
	t.reporter.Show(maprender.FormatFixDescription(fix.Position.Lat, fix.Position.Lon, fix.AccuracyMeters), status.Info)
}

// handleFix processa uma leitura: atualiza o estado, o marcador e o círculo
// de precisão, e recentraliza se a leitura for confiável e o modo seguir
// estiver ativo (ou for a primeira leitura, ou force).
func (t *Tracker) handleFix(r Reading, force bool) {
	if !t.store.MapReady() {
		// Sem superfície de desenho ainda; a leitura seguinte pega.
		return
	}

	_, hadFix := t.store.CurrentFix()
	t.store.SetFix(r.Position, r.AccuracyMeters)

	t.mu.Lock()
	if t.posRef == nil {
		t.posRef = t.canvas.AddPoint(r.Position, maprender.StylePosition)
	} else {
		t.canvas.MovePoint(t.posRef, r.Position)
	}
	if t.accRef == nil {
		t.accRef = t.canvas.AddCircle(r.Position, r.AccuracyMeters, maprender.StyleAccuracy)
	} else {
		t.canvas.MoveCircle(t.accRef, r.Position, r.AccuracyMeters)
	}
	t.mu.Unlock()

	if !hadFix {
		t.store.SetFollowEnabled(true)
		t.reporter.Show("Localização encontrada!", status.Success)
	}

	if r.AccuracyMeters > reliableAccuracyMeters {
		// Leitura imprecisa nunca mexe na câmera, nem forçada.
		log.Printf("[GPS] Leitura imprecisa (±%.0f m), câmera não movida", r.AccuracyMeters)
		return
	}
	if !hadFix || force || t.store.FollowEnabled() {
		t.recenter(r.Position)
	}
}

// recenter move a câmera e garante um zoom mínimo de rua.
func (t *Tracker) recenter(pos geo.Coordinate) {
	t.viewport.SetCenter(pos)
	if t.viewport.Zoom() < followZoom {
		t.viewport.SetZoom(followZoom)
	}
}

// handleError reporta a falha sem derrubar o watch: a próxima leitura boa
// continua o fluxo normalmente.
func (t *Tracker) handleError(e WatchError) {
	log.Printf("[GPS] ❌ Erro do provedor (código %d): %s", e.Code, e.Message)
	t.reporter.Show(userMessage(e.Code), status.Error)
}
