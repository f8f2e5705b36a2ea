// ============================================================================
// Armazenamento de Histórico GPS - RotaFácil
// ============================================================================
// O endpoint /update_gps grava cada leitura recebida. Com banco disponível o
// histórico vai para MariaDB; sem banco, um anel em memória segura as últimas
// leituras para o /gps/history continuar respondendo.
// ============================================================================

package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/rotafacil/internal/geo"
)

// FixRecord é uma leitura GPS persistida. Altitude é opcional (nem todo
// dispositivo informa) e RecordedAt é o horário do dispositivo quando ele
// mandou um.
type FixRecord struct {
	ID             string    `json:"id"`
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`
	AltitudeMeters *float64  `json:"alt,omitempty"`
	AccuracyMeters float64   `json:"accuracy_m"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// NewFixRecord carimba id e horário de uma leitura. recordedAt zero usa o
// relógio do servidor.
func NewFixRecord(pos geo.Coordinate, accuracyMeters float64, alt *float64, recordedAt time.Time) FixRecord {
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	return FixRecord{
		ID:             uuid.NewString(),
		Lat:            pos.Lat,
		Lon:            pos.Lon,
		AltitudeMeters: alt,
		AccuracyMeters: accuracyMeters,
		RecordedAt:     recordedAt.UTC(),
	}
}

// FixStore é o destino das leituras de GPS.
type FixStore interface {
	SaveFix(ctx context.Context, rec FixRecord) error
	RecentFixes(ctx context.Context, limit int) ([]FixRecord, error)
}

// memoryRingSize limita o fallback em memória.
const memoryRingSize = 500

// MemoryStore guarda as últimas leituras num anel. Fallback para rodar sem
// banco (desenvolvimento, demo em túnel público).
type MemoryStore struct {
	mu    sync.Mutex
	fixes []FixRecord
	next  int
	full  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{fixes: make([]FixRecord, memoryRingSize)}
}

func (m *MemoryStore) SaveFix(ctx context.Context, rec FixRecord) error {
	m.mu.Lock()
	m.fixes[m.next] = rec
	m.next = (m.next + 1) % len(m.fixes)
	if m.next == 0 {
		m.full = true
	}
	m.mu.Unlock()
	return nil
}

// RecentFixes retorna as leituras mais novas primeiro.
func (m *MemoryStore) RecentFixes(ctx context.Context, limit int) ([]FixRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := m.next
	if m.full {
		count = len(m.fixes)
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	out := make([]FixRecord, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (m.next - 1 - i + len(m.fixes)) % len(m.fixes)
		out = append(out, m.fixes[idx])
	}
	return out, nil
}
