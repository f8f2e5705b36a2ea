// ============================================================================
// Estado Compartilhado - RotaFácil
// ============================================================================
// Única fonte de verdade para o estado do mapa, do GPS e da sessão de rota.
// Substitui o antigo módulo de variáveis globais: a instância é criada uma
// vez e injetada nos construtores de cada componente.
//
// Atualizações multi-campo (posição+precisão+timestamp; origem+destino) são
// agrupadas em uma única chamada para que nenhum callback intercalado observe
// estado intermediário.
// ============================================================================

package state

import (
	"sync"
	"time"

	"github.com/yourorg/rotafacil/internal/geo"
)

// Fix é a última leitura de GPS conhecida.
type Fix struct {
	Position       geo.Coordinate
	AccuracyMeters float64
	Timestamp      time.Time
}

// Store guarda o estado compartilhado da aplicação.
type Store struct {
	mu sync.RWMutex

	mapReady      bool
	followEnabled bool

	fix    *Fix
	watch  string // handle opaco do watch ativo; vazio = sem rastreamento
	origin *geo.Coordinate
	dest   *geo.Coordinate
}

// New cria o Store com follow ligado, como o app original inicia.
func New() *Store {
	return &Store{followEnabled: true}
}

// ── Map ready ───────────────────────────────────────────────────────────────

// SetMapReady marca a superfície de desenho como disponível. Monotônico:
// nunca volta a false.
func (s *Store) SetMapReady() {
	s.mu.Lock()
	s.mapReady = true
	s.mu.Unlock()
}

func (s *Store) MapReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mapReady
}

// ── Follow mode ─────────────────────────────────────────────────────────────

func (s *Store) SetFollowEnabled(on bool) {
	s.mu.Lock()
	s.followEnabled = on
	s.mu.Unlock()
}

func (s *Store) FollowEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.followEnabled
}

// ── Posição GPS ─────────────────────────────────────────────────────────────

// SetFix grava posição, precisão e timestamp de uma vez só. O timestamp é
// carimbado aqui, não pelo chamador.
func (s *Store) SetFix(pos geo.Coordinate, accuracyMeters float64) {
	s.mu.Lock()
	s.fix = &Fix{Position: pos, AccuracyMeters: accuracyMeters, Timestamp: time.Now()}
	s.mu.Unlock()
}

// CurrentFix retorna uma cópia da última leitura, ou (zero, false) se ainda
// não houve leitura.
func (s *Store) CurrentFix() (Fix, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fix == nil {
		return Fix{}, false
	}
	return *s.fix, true
}

// ── Watch de localização ────────────────────────────────────────────────────

// SetWatchHandle registra o handle do watch ativo. Vazio limpa.
func (s *Store) SetWatchHandle(handle string) {
	s.mu.Lock()
	s.watch = handle
	s.mu.Unlock()
}

// WatchHandle retorna o handle atual; vazio significa "sem rastreamento".
func (s *Store) WatchHandle() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watch
}

// Tracking informa se existe um watch ativo. O handle é a única fonte de
// verdade para isso.
func (s *Store) Tracking() bool {
	return s.WatchHandle() != ""
}

// ── Extremos da rota ────────────────────────────────────────────────────────

// SetRouteEndpoints grava origem e destino juntos.
func (s *Store) SetRouteEndpoints(origin, dest geo.Coordinate) {
	s.mu.Lock()
	o, d := origin, dest
	s.origin, s.dest = &o, &d
	s.mu.Unlock()
}

// ClearRouteEndpoints limpa os dois extremos juntos, nunca um só, para que
// um extremo velho não sobreviva a uma limpeza.
func (s *Store) ClearRouteEndpoints() {
	s.mu.Lock()
	s.origin, s.dest = nil, nil
	s.mu.Unlock()
}

// RouteEndpoints retorna (origem, destino, true) quando os dois estão
// definidos.
func (s *Store) RouteEndpoints() (geo.Coordinate, geo.Coordinate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.origin == nil || s.dest == nil {
		return geo.Coordinate{}, geo.Coordinate{}, false
	}
	return *s.origin, *s.dest, true
}
