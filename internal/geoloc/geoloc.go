// ============================================================================
// Geolocalização - RotaFácil
// ============================================================================
// Contratos do provedor de posição. O provedor real é a API de geolocalização
// do ambiente; os testes usam um fake. As opções espelham as do provedor:
// precisão alta, timeout e idade máxima de leitura em cache.
// ============================================================================

package geoloc

import (
	"context"
	"time"

	"github.com/yourorg/rotafacil/internal/geo"
)

// Reading é uma leitura de posição entregue pelo provedor.
type Reading struct {
	Position       geo.Coordinate
	AccuracyMeters float64
	Timestamp      time.Time
}

// Códigos de erro do provedor de geolocalização.
const (
	CodePermissionDenied    = 1
	CodePositionUnavailable = 2
	CodeTimeout             = 3
)

// WatchError é uma falha reportada pelo provedor, pontual ou do watch.
type WatchError struct {
	Code    int
	Message string
}

func (e WatchError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return userMessage(e.Code)
}

// userMessage traduz o código do provedor para a mensagem exibida.
func userMessage(code int) string {
	switch code {
	case CodePermissionDenied:
		return "Permissão de localização negada. Habilite o acesso à localização no navegador."
	case CodePositionUnavailable:
		return "Posição indisponível no momento. Verifique o sinal de GPS."
	case CodeTimeout:
		return "Tempo esgotado ao obter a posição. Tentando novamente..."
	default:
		return "Erro desconhecido de geolocalização."
	}
}

// WatchOptions configura uma leitura ou um watch do provedor.
type WatchOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

// Provider abstrai a fonte de posição do dispositivo.
type Provider interface {
	// Available informa se o dispositivo expõe geolocalização.
	Available() bool
	// CurrentPosition faz uma leitura única.
	CurrentPosition(ctx context.Context, opts WatchOptions) (Reading, error)
	// WatchPosition inicia leituras contínuas e retorna o handle do watch.
	WatchPosition(opts WatchOptions, onFix func(Reading), onErr func(WatchError)) (string, error)
	// ClearWatch encerra o watch identificado pelo handle.
	ClearWatch(handle string)
}
