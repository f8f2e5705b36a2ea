// ============================================================================
// Barramento de Eventos - RotaFácil
// ============================================================================
// Substitui os CustomEvents do DOM ("mapReady", "showRouteDetails") por um
// pub/sub tipado com conjunto fechado de eventos. A entrega nunca bloqueia o
// publicador: assinantes lentos perdem eventos em vez de travar o fluxo.
// ============================================================================

package bus

import "sync"

// SheetState é o estado pedido para a folha inferior num evento de rota.
type SheetState string

const (
	SheetExpanded  SheetState = "expanded"
	SheetMedium    SheetState = "medium"
	SheetMinimized SheetState = "min"
)

// MapReady sinaliza que o mapa e sua coleção de features existem.
// Publicado exatamente uma vez.
type MapReady struct{}

// RouteDetails pede que a folha inferior exiba os detalhes de uma rota.
// Campos vazios significam "não mexa nesse slot".
type RouteDetails struct {
	Distance  string
	Duration  string
	InfoText  string
	ExtraHTML string
	State     SheetState
}

// Bus entrega eventos tipados para assinantes registrados.
type Bus struct {
	mu           sync.RWMutex
	mapReady     []chan MapReady
	routeDetails []chan RouteDetails
	readyFired   bool
}

func New() *Bus {
	return &Bus{}
}

// SubscribeMapReady registra um assinante. Se o evento já foi disparado, o
// canal chega preenchido; quem assina tarde não fica esperando para sempre.
func (b *Bus) SubscribeMapReady() <-chan MapReady {
	ch := make(chan MapReady, 1)
	b.mu.Lock()
	if b.readyFired {
		ch <- MapReady{}
	} else {
		b.mapReady = append(b.mapReady, ch)
	}
	b.mu.Unlock()
	return ch
}

// PublishMapReady dispara o evento de mapa pronto. Chamadas repetidas são
// ignoradas: o contrato é disparar uma única vez.
func (b *Bus) PublishMapReady() {
	b.mu.Lock()
	if b.readyFired {
		b.mu.Unlock()
		return
	}
	b.readyFired = true
	subs := b.mapReady
	b.mapReady = nil
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- MapReady{}:
		default:
		}
	}
}

// SubscribeRouteDetails registra um assinante para eventos de detalhes de rota.
func (b *Bus) SubscribeRouteDetails() <-chan RouteDetails {
	ch := make(chan RouteDetails, 4)
	b.mu.Lock()
	b.routeDetails = append(b.routeDetails, ch)
	b.mu.Unlock()
	return ch
}

// PublishRouteDetails entrega o evento a todos os assinantes sem bloquear.
func (b *Bus) PublishRouteDetails(ev RouteDetails) {
	b.mu.RLock()
	subs := b.routeDetails
	b.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
