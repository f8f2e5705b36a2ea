// ============================================================================
// Folha Inferior - RotaFácil
// ============================================================================
// Painel deslizante de detalhes da rota com três paradas: expandido, médio e
// minimizado. O arrasto segue o dedo com limite superior rígido; ao soltar,
// a folha agarra a parada cujo ponto médio o deslocamento cruzou. Com a folha
// expandida os gestos do mapa ficam desligados para o arrasto não brigar com
// o pan do mapa.
// ============================================================================

package sheet

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/yourorg/rotafacil/internal/bus"
	"github.com/yourorg/rotafacil/internal/config"
)

// Slot identifica um campo de conteúdo da folha.
type Slot string

const (
	SlotDistance Slot = "distance"
	SlotDuration Slot = "duration"
	SlotInfo     Slot = "info"
	SlotExtra    Slot = "extra"
)

// Host é a superfície visual da folha: aplica deslocamentos e recebe
// conteúdo por slot.
type Host interface {
	ApplyOffset(offsetPx float64, animated bool)
	SetContent(slot Slot, value string)
}

// MapInteractions liga e desliga os gestos do mapa sob a folha.
type MapInteractions interface {
	SetInteractionsEnabled(enabled bool)
}

// Breakpoints são as três paradas da folha, em pixels a partir do topo da
// janela. Expanded < Medium < Minimized.
type Breakpoints struct {
	Expanded  float64
	Medium    float64
	Minimized float64
}

// DefaultBreakpoints deriva as paradas padrão da altura da janela:
// 10%, 50% e 85% a partir do topo.
func DefaultBreakpoints(viewportHeight float64) Breakpoints {
	return Breakpoints{
		Expanded:  viewportHeight * 0.10,
		Medium:    viewportHeight * 0.50,
		Minimized: viewportHeight * 0.85,
	}
}

// ParseOffset converte um valor configurado ("40vh", "320px" ou número puro,
// medido a partir da base da janela) em pixels a partir do topo.
func ParseOffset(value string, viewportHeight float64) (float64, error) {
	v := strings.TrimSpace(strings.ToLower(value))
	if v == "" {
		return 0, fmt.Errorf("offset vazio")
	}

	var inset float64
	switch {
	case strings.HasSuffix(v, "vh"):
		n, err := strconv.ParseFloat(strings.TrimSuffix(v, "vh"), 64)
		if err != nil {
			return 0, fmt.Errorf("offset %q inválido: %w", value, err)
		}
		inset = viewportHeight * n / 100
	case strings.HasSuffix(v, "px"):
		n, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
		if err != nil {
			return 0, fmt.Errorf("offset %q inválido: %w", value, err)
		}
		inset = n
	default:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("offset %q inválido: %w", value, err)
		}
		inset = n
	}

	if inset < 0 || inset > viewportHeight {
		return 0, fmt.Errorf("offset %q fora da janela", value)
	}
	return viewportHeight - inset, nil
}

// BreakpointsFromSettings parte das paradas proporcionais e aplica os
// offsets configurados (SHEET_MEDIUM_OFFSET, SHEET_MIN_OFFSET) quando
// presentes. A ordem Expanded < Medium < Minimized é obrigatória.
func BreakpointsFromSettings(cfg config.Settings, viewportHeight float64) (Breakpoints, error) {
	bp := DefaultBreakpoints(viewportHeight)

	if cfg.SheetMediumOffset != "" {
		v, err := ParseOffset(cfg.SheetMediumOffset, viewportHeight)
		if err != nil {
			return Breakpoints{}, fmt.Errorf("offset médio: %w", err)
		}
		bp.Medium = v
	}
	if cfg.SheetMinimizedOffset != "" {
		v, err := ParseOffset(cfg.SheetMinimizedOffset, viewportHeight)
		if err != nil {
			return Breakpoints{}, fmt.Errorf("offset minimizado: %w", err)
		}
		bp.Minimized = v
	}

	if bp.Expanded >= bp.Medium || bp.Medium >= bp.Minimized {
		return Breakpoints{}, fmt.Errorf("paradas fora de ordem: %.0f / %.0f / %.0f",
			bp.Expanded, bp.Medium, bp.Minimized)
	}
	return bp, nil
}

// Controller implementa a máquina de estados da folha.
type Controller struct {
	host         Host
	interactions MapInteractions
	bp           Breakpoints

	mu       sync.Mutex
	state    bus.SheetState
	offset   float64
	dragging bool
	baseline float64
	startY   float64
}

// NewController cria a folha já minimizada.
func NewController(host Host, interactions MapInteractions, bp Breakpoints) *Controller {
	c := &Controller{host: host, interactions: interactions, bp: bp}
	c.SetState(bus.SheetMinimized, false)
	return c
}

// State retorna a parada atual.
func (c *Controller) State() bus.SheetState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// BeginDrag inicia um gesto de arrasto a partir da posição vertical do dedo.
func (c *Controller) BeginDrag(y float64) {
	c.mu.Lock()
	c.dragging = true
	c.baseline = c.offset
	c.startY = y
	c.mu.Unlock()
}

// UpdateDrag segue o dedo, sem deixar a folha passar da parada expandida.
func (c *Controller) UpdateDrag(y float64) {
	c.mu.Lock()
	if !c.dragging {
		c.mu.Unlock()
		return
	}
	off := c.baseline + (y - c.startY)
	if off < c.bp.Expanded {
		off = c.bp.Expanded
	}
	c.offset = off
	c.mu.Unlock()

	c.host.ApplyOffset(off, false)
}

// EndDrag solta o gesto e agarra a parada mais próxima pelos pontos médios:
// acima do meio entre expandido e médio vai para expandido, e assim por
// diante. A folha nunca fica parada entre paradas.
func (c *Controller) EndDrag() {
	c.mu.Lock()
	if !c.dragging {
		c.mu.Unlock()
		return
	}
	c.dragging = false
	off := c.offset
	c.mu.Unlock()

	midUpper := (c.bp.Expanded + c.bp.Medium) / 2
	midLower := (c.bp.Medium + c.bp.Minimized) / 2

	switch {
	case off < midUpper:
		c.SetState(bus.SheetExpanded, true)
	case off < midLower:
		c.SetState(bus.SheetMedium, true)
	default:
		c.SetState(bus.SheetMinimized, true)
	}
}

// SetState move a folha direto para uma parada e ajusta os gestos do mapa.
func (c *Controller) SetState(state bus.SheetState, animated bool) {
	target := c.bp.Minimized
	switch state {
	case bus.SheetExpanded:
		target = c.bp.Expanded
	case bus.SheetMedium:
		target = c.bp.Medium
	case bus.SheetMinimized:
		target = c.bp.Minimized
	default:
		state = bus.SheetMinimized
	}

	c.mu.Lock()
	c.state = state
	c.offset = target
	c.mu.Unlock()

	c.host.ApplyOffset(target, animated)
	c.interactions.SetInteractionsEnabled(state != bus.SheetExpanded)
}

// HandleRouteDetails aplica um evento de detalhes: só os slots presentes
// mudam, os vazios ficam como estão. Sem estado pedido a folha vai para o
// médio.
func (c *Controller) HandleRouteDetails(ev bus.RouteDetails) {
	if ev.Distance != "" {
		c.host.SetContent(SlotDistance, ev.Distance)
	}
	if ev.Duration != "" {
		c.host.SetContent(SlotDuration, ev.Duration)
	}
	if ev.InfoText != "" {
		c.host.SetContent(SlotInfo, ev.InfoText)
	}
	if ev.ExtraHTML != "" {
		c.host.SetContent(SlotExtra, ev.ExtraHTML)
	}

	state := ev.State
	if state == "" {
		state = bus.SheetMedium
	}
	c.SetState(state, true)
}

// Listen consome eventos de detalhes de rota do barramento até o contexto
// encerrar.
func (c *Controller) Listen(ctx context.Context, events *bus.Bus) {
	ch := events.SubscribeRouteDetails()
	for {
		select {
		case ev := <-ch:
			c.HandleRouteDetails(ev)
		case <-ctx.Done():
			return
		}
	}
}
