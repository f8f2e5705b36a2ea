// ============================================================================
// Sessão de Rota - RotaFácil
// ============================================================================
// Orquestra o fluxo completo de uma rota: resolve os extremos (texto,
// coordenada literal ou posição GPS), persiste no estado compartilhado,
// espera o mapa ficar pronto, desenha marcadores, chama o backend e publica
// o evento de detalhes para a folha inferior.
//
// Requisições sobrepostas não são serializadas: cada StartRoute incrementa
// uma geração e toda resposta atrasada é descartada antes de tocar o estado
// compartilhado ou desenhar no mapa.
// ============================================================================

package routing

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"sync/atomic"

	"github.com/yourorg/rotafacil/internal/bus"
	"github.com/yourorg/rotafacil/internal/geo"
	"github.com/yourorg/rotafacil/internal/state"
	"github.com/yourorg/rotafacil/internal/status"
)

// GPSSentinel na caixa de origem significa "use minha posição atual".
const GPSSentinel = "GPS"

// ReliableAccuracyMeters é o limite de precisão abaixo do qual uma leitura
// GPS é confiável para rotear e recentralizar.
const ReliableAccuracyMeters = 150.0

// RouteExtract é o que o renderizador conseguiu extrair enquanto desenhava,
// usado como fallback quando o resumo estruturado não veio.
type RouteExtract struct {
	Distance string
	Duration string
	Steps    []Step
}

// Renderer é o colaborador de desenho consumido pela sessão.
type Renderer interface {
	// ClearRoute remove rota, marcadores e extremos salvos, incondicionalmente.
	ClearRoute()
	// DrawRouteMarkers desenha os marcadores A/B a partir do estado salvo.
	DrawRouteMarkers() error
	// DrawRoute desenha a geometria da rota e retorna o que extraiu de metadados.
	DrawRoute(doc *Document) (RouteExtract, error)
}

// Geocoder resolve endereço em coordenada. O Client satisfaz a interface.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (geo.Coordinate, error)
	Route(ctx context.Context, origin, dest geo.Coordinate, constraints *Constraints) (*Document, error)
}

// Session coordena uma sessão de rota por vez.
type Session struct {
	store    *state.Store
	events   *bus.Bus
	backend  Geocoder
	renderer Renderer
	reporter status.Reporter

	// Coletor de constraints do painel (checkboxes no original). Pode ser nil.
	constraintsFn func() *Constraints

	gen atomic.Uint64
}

// NewSession liga a sessão aos colaboradores.
func NewSession(store *state.Store, events *bus.Bus, backend Geocoder, renderer Renderer, reporter status.Reporter, constraintsFn func() *Constraints) *Session {
	return &Session{
		store:         store,
		events:        events,
		backend:       backend,
		renderer:      renderer,
		reporter:      reporter,
		constraintsFn: constraintsFn,
	}
}

// ResolveEndpoint converte o texto de um campo em coordenada.
//
// O sentinela GPS usa a posição atual só se a precisão estiver dentro do
// limite confiável. Texto que parece coordenada literal é aceito direto;
// o resto vai para geocodificação.
func (s *Session) ResolveEndpoint(ctx context.Context, text string, allowGPS bool) (geo.Coordinate, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return geo.Coordinate{}, ErrEmptyDestination
	}

	if allowGPS && strings.EqualFold(trimmed, GPSSentinel) {
		fix, ok := s.store.CurrentFix()
		if !ok {
			return geo.Coordinate{}, ErrPositionUnavailable
		}
		if fix.AccuracyMeters > ReliableAccuracyMeters {
			return geo.Coordinate{}, fmt.Errorf("%w (%.0f m)", ErrPositionImprecise, fix.AccuracyMeters)
		}
		return fix.Position, nil
	}

	if coord, ok := geo.ParseText(trimmed); ok {
		log.Printf("[GEOCODING] Entrada detectada como coordenadas: %.6f, %.6f", coord.Lat, coord.Lon)
		return coord, nil
	}

	return s.backend.Geocode(ctx, trimmed)
}

// StartRoute resolve origem e destino e executa o fluxo completo.
// A origem pode ser o sentinela GPS; o destino não.
func (s *Session) StartRoute(ctx context.Context, originText, destinationText string) error {
	gen := s.gen.Add(1)

	s.renderer.ClearRoute()
	s.reporter.Show("Calculando rota...", status.Info)

	origin, err := s.ResolveEndpoint(ctx, originText, true)
	if err != nil {
		s.reportResolveFailure("origem", originText, err)
		return err
	}
	if strings.EqualFold(strings.TrimSpace(originText), GPSSentinel) {
		s.reporter.Show("Origem definida pela sua localização GPS.", status.Info)
	}
	if s.stale(gen) {
		return ErrSuperseded
	}

	dest, err := s.ResolveEndpoint(ctx, destinationText, false)
	if err != nil {
		s.reportResolveFailure("destino", destinationText, err)
		return err
	}
	if s.stale(gen) {
		return ErrSuperseded
	}

	return s.run(ctx, gen, origin, dest)
}

// StartRouteFromCoordinates pula a resolução de texto (fluxo de clique no mapa).
func (s *Session) StartRouteFromCoordinates(ctx context.Context, origin, dest geo.Coordinate) error {
	gen := s.gen.Add(1)

	s.renderer.ClearRoute()
	s.reporter.Show("Calculando rota por coordenadas...", status.Info)

	if err := origin.Validate(); err != nil {
		s.reporter.Show("Coordenadas inválidas para desenhar marcadores.", status.Error)
		return err
	}
	if err := dest.Validate(); err != nil {
		s.reporter.Show("Coordenadas inválidas para desenhar marcadores.", status.Error)
		return err
	}

	return s.run(ctx, gen, origin, dest)
}

// ClearRoute limpa rota e marcadores sem iniciar outra sessão.
func (s *Session) ClearRoute() {
	s.gen.Add(1) // invalida qualquer resposta em voo
	s.renderer.ClearRoute()
}

// run executa persistir → esperar mapa → marcadores → backend → desenhar →
// publicar detalhes, checando a geração em cada ponto de suspensão.
func (s *Session) run(ctx context.Context, gen uint64, origin, dest geo.Coordinate) error {
	s.store.SetRouteEndpoints(origin, dest)

	if err := s.waitForMapReady(ctx); err != nil {
		return err
	}
	if s.stale(gen) {
		return ErrSuperseded
	}

	if err := s.renderer.DrawRouteMarkers(); err != nil {
		s.reporter.Show("Coordenadas inválidas para desenhar marcadores.", status.Error)
		return err
	}

	var constraints *Constraints
	if s.constraintsFn != nil {
		constraints = s.constraintsFn()
	}
	if !constraints.Empty() {
		log.Printf("[ROTA] Constraints detectadas: avoid=%v prefer=%v", constraints.Avoid, constraints.Prefer)
	}

	doc, err := s.backend.Route(ctx, origin, dest, constraints)
	if err != nil {
		if s.stale(gen) {
			// Falha de uma requisição já substituída: não ressuscita estado.
			return ErrSuperseded
		}
		s.reportRouteFailure(err)
		return err
	}
	if s.stale(gen) {
		return ErrSuperseded
	}

	return s.commit(doc)
}

// commit desenha a rota e publica os detalhes na folha inferior.
func (s *Session) commit(doc *Document) error {
	extract, drawErr := s.renderer.DrawRoute(doc)
	if drawErr != nil {
		log.Printf("[ROTA] falha ao desenhar rota: %v", drawErr)
	}

	distance, duration := NotAvailable, NotAvailable
	summary := doc.Summary()
	if summary.HasDistance {
		distance = FormatDistanceMeters(summary.DistanceMeters)
	} else if extract.Distance != "" {
		distance = extract.Distance
	}
	if summary.HasDuration {
		duration = FormatDurationSeconds(summary.DurationSeconds)
	} else if extract.Duration != "" {
		duration = extract.Duration
	}

	steps := doc.Steps()
	if len(steps) == 0 {
		steps = extract.Steps
	}

	extraHTML := buildStepsHTML(steps)
	if opt, ok := doc.Optimization(); ok {
		extraHTML = buildOptimizationHTML(opt) + extraHTML
	}

	s.events.PublishRouteDetails(bus.RouteDetails{
		Distance:  distance,
		Duration:  duration,
		InfoText:  fmt.Sprintf("Distância: %s • Duração: %s", distance, duration),
		ExtraHTML: extraHTML,
		State:     bus.SheetMedium,
	})

	s.reporter.Show(fmt.Sprintf("Rota calculada! Distância: %s, Duração: %s", distance, duration), status.Success)
	return nil
}

func (s *Session) stale(gen uint64) bool {
	return s.gen.Load() != gen
}

func (s *Session) waitForMapReady(ctx context.Context) error {
	if s.store.MapReady() {
		return nil
	}
	ready := s.events.SubscribeMapReady()
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reportResolveFailure mapeia cada falha de resolução para sua mensagem.
func (s *Session) reportResolveFailure(field, input string, err error) {
	switch {
	case errors.Is(err, ErrEmptyDestination):
		if field == "origem" {
			s.reporter.Show("Informe uma origem.", status.Error)
		} else {
			s.reporter.Show("Informe um destino.", status.Error)
		}
	case errors.Is(err, ErrPositionUnavailable):
		s.reporter.Show("Erro: Posição GPS não disponível. Tente novamente ou insira um endereço de origem.", status.Error)
	case errors.Is(err, ErrPositionImprecise):
		s.reporter.Show(fmt.Sprintf("Posição GPS disponível, mas imprecisa. Aguarde leituras melhores ou insira um endereço. (%v)", err), status.Error)
	case errors.Is(err, ErrBaseURLMissing):
		s.reporter.Show("Erro: URL do servidor não definida.", status.Error)
	case errors.Is(err, ErrConnectivity):
		s.reporter.Show("Erro de conexão ao geocodificar o endereço.", status.Error)
	case errors.Is(err, ErrAddressNotFound):
		detail := "Endereço não encontrado"
		var be *BackendError
		if errors.As(err, &be) && be.Detail != "" {
			detail = be.Detail
		}
		s.reporter.Show(fmt.Sprintf("Erro de geocodificação para: %q. Detalhe: %s", input, detail), status.Error)
	default:
		s.reporter.Show(fmt.Sprintf("Erro ao resolver %s: %v", field, err), status.Error)
	}
}

// reportRouteFailure distingue acesso negado, falha genérica e conexão.
func (s *Session) reportRouteFailure(err error) {
	var be *BackendError
	switch {
	case errors.Is(err, ErrAccessDenied):
		detail := ""
		if errors.As(err, &be) {
			detail = be.Detail
		}
		s.reporter.Show(fmt.Sprintf("Acesso negado ao serviço de rotas. Verifique sua chave e permissões da conta. Detalhe: %s", detail), status.Error)
	case errors.Is(err, ErrConnectivity):
		s.reporter.Show("Erro de conexão ao calcular a rota. Verifique a URL e o servidor.", status.Error)
	case errors.Is(err, ErrBaseURLMissing):
		s.reporter.Show("Erro: URL do servidor não definida.", status.Error)
	default:
		detail := "Erro desconhecido."
		if errors.As(err, &be) && be.Detail != "" {
			detail = be.Detail
		}
		s.reporter.Show(fmt.Sprintf("Erro ao calcular a rota: %s", detail), status.Error)
	}
}

// buildStepsHTML monta a lista ordenada de passos para o slot extra.
func buildStepsHTML(steps []Step) string {
	if len(steps) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<ol class="route-steps">`)
	for _, st := range steps {
		fmt.Fprintf(&b, "<li>%s (%.0f m)</li>", html.EscapeString(st.Instruction), st.DistanceMeters)
	}
	b.WriteString("</ol>")
	return b.String()
}

// buildOptimizationHTML monta o bloco de rota otimizada.
func buildOptimizationHTML(opt Optimization) string {
	reasoning := opt.Reasoning
	if reasoning == "" {
		reasoning = "Rota ajustada considerando tráfego e clima."
	}
	weather := opt.Weather
	if weather == "" {
		weather = "Clima: não disponível"
	}
	trafficPct := (opt.TrafficFactor - 1) * 100
	if opt.TrafficFactor == 0 {
		trafficPct = 0
	}
	return fmt.Sprintf(
		`<div class="route-optimized"><strong>Rota Otimizada</strong><br><small>%s<br>%s<br>Tráfego: %.0f%% acima do normal</small></div>`,
		html.EscapeString(reasoning), html.EscapeString(weather), trafficPct,
	)
}
