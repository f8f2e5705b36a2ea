// ============================================================================
// Cliente do Backend de Rotas - RotaFácil
// ============================================================================
// Fala com o servidor (Flask/Fiber) que proxia o serviço de rotas: geocoding
// por endereço e cálculo de rota entre duas coordenadas. A escolha entre
// /rota e /calculate_route segue a URL base configurada: URL pública
// injetada usa o backend alternativo, same-origin usa o padrão.
// ============================================================================

package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yourorg/rotafacil/internal/config"
	"github.com/yourorg/rotafacil/internal/geo"
)

// Erros sentinela da sessão de rota. Cada um vira uma mensagem distinta.
var (
	ErrBaseURLMissing      = errors.New("URL do servidor não definida")
	ErrAddressNotFound     = errors.New("endereço não encontrado")
	ErrAccessDenied        = errors.New("acesso negado ao serviço de rotas")
	ErrRouteFailed         = errors.New("erro ao calcular a rota")
	ErrConnectivity        = errors.New("erro de conexão")
	ErrPositionUnavailable = errors.New("posição GPS não disponível")
	ErrPositionImprecise   = errors.New("posição GPS imprecisa")
	ErrEmptyDestination    = errors.New("destino vazio")
	ErrSuperseded          = errors.New("requisição substituída por outra mais recente")
)

// BackendError carrega o status HTTP e o detalhe textual do corpo de erro.
type BackendError struct {
	Status int
	Detail string
	kind   error
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend %d", e.Status)
}

func (e *BackendError) Unwrap() error { return e.kind }

// Constraints são as preferências de rota selecionadas pelo usuário.
// Um ponteiro nil significa "sem constraints" e o campo é omitido do JSON;
// o backend trata null e {} de forma diferente.
type Constraints struct {
	Avoid  []string `json:"avoid"`
	Prefer []string `json:"prefer"`
}

// Empty informa se não há nenhuma preferência marcada.
func (c *Constraints) Empty() bool {
	return c == nil || (len(c.Avoid) == 0 && len(c.Prefer) == 0)
}

// Client acessa o backend de rotas.
type Client struct {
	baseURL    string
	publicAPI  bool // URL pública injetada ⇒ backend alternativo
	httpClient *http.Client
}

// NewClient cria o cliente. publicAPI seleciona /calculate_route no lugar
// de /rota (backend alternativo tipo Colab).
func NewClient(baseURL string, publicAPI bool) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		publicAPI: publicAPI,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientFromSettings deriva o cliente das Settings: URL pública injetada
// usa o backend alternativo /calculate_route; sem ela o cliente fala com o
// servidor local via /rota.
func NewClientFromSettings(cfg config.Settings) *Client {
	if cfg.PublicBaseURL != "" {
		return NewClient(cfg.PublicBaseURL, true)
	}
	return NewClient("http://127.0.0.1:"+cfg.Port, false)
}

type geocodeRequest struct {
	Address string `json:"address"`
}

type geocodeResponse struct {
	Lon   *float64 `json:"lon"`
	Lat   *float64 `json:"lat"`
	Erro  string   `json:"erro"`
	Error string   `json:"error"`
}

// Geocode converte um endereço em coordenadas via POST /geocoding.
func (c *Client) Geocode(ctx context.Context, address string) (geo.Coordinate, error) {
	if c.baseURL == "" {
		return geo.Coordinate{}, ErrBaseURLMissing
	}

	body, err := c.postJSON(ctx, "/geocoding", geocodeRequest{Address: address})
	if err != nil {
		var be *BackendError
		if errors.As(err, &be) {
			// Falha de geocodificação vira "endereço não encontrado" com o
			// detalhe que o backend mandou.
			return geo.Coordinate{}, &BackendError{Status: be.Status, Detail: be.Detail, kind: ErrAddressNotFound}
		}
		return geo.Coordinate{}, err
	}

	var resp geocodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return geo.Coordinate{}, fmt.Errorf("resposta de geocoding inválida: %w", err)
	}
	if resp.Lon == nil || resp.Lat == nil {
		detail := resp.Erro
		if detail == "" {
			detail = resp.Error
		}
		return geo.Coordinate{}, &BackendError{Status: http.StatusOK, Detail: detail, kind: ErrAddressNotFound}
	}

	coord := geo.Coordinate{Lon: *resp.Lon, Lat: *resp.Lat}
	if err := coord.Validate(); err != nil {
		return geo.Coordinate{}, fmt.Errorf("geocoding retornou coordenada inválida: %w", err)
	}
	return coord, nil
}

// Payload do backend padrão: coordinates [[lon,lat],[lon,lat]].
type defaultRouteRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
	Constraints *Constraints `json:"constraints,omitempty"`
}

// Payload do backend alternativo: origin/destination como objetos.
type altRouteRequest struct {
	Origin      latLon       `json:"origin"`
	Destination latLon       `json:"destination"`
	Constraints *Constraints `json:"constraints,omitempty"`
}

type latLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Route pede o cálculo da rota. Constraints vazias viram ausência total do
// campo no JSON.
func (c *Client) Route(ctx context.Context, origin, dest geo.Coordinate, constraints *Constraints) (*Document, error) {
	if c.baseURL == "" {
		return nil, ErrBaseURLMissing
	}
	if constraints.Empty() {
		constraints = nil
	}

	var (
		endpoint string
		payload  interface{}
	)
	if c.publicAPI {
		endpoint = "/calculate_route"
		payload = altRouteRequest{
			Origin:      latLon{Lat: origin.Lat, Lon: origin.Lon},
			Destination: latLon{Lat: dest.Lat, Lon: dest.Lon},
			Constraints: constraints,
		}
	} else {
		endpoint = "/rota"
		payload = defaultRouteRequest{
			Coordinates: [][2]float64{
				{origin.Lon, origin.Lat},
				{dest.Lon, dest.Lat},
			},
			Constraints: constraints,
		}
	}

	body, err := c.postJSON(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	return ParseDocument(body)
}

// postJSON faz o POST e classifica a falha: transporte ⇒ ErrConnectivity,
// 401/403 ⇒ ErrAccessDenied, outros não-2xx ⇒ ErrRouteFailed.
func (c *Client) postJSON(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("serializando payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("criando requisição: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: lendo resposta: %v", ErrConnectivity, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := ErrRouteFailed
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = ErrAccessDenied
		}
		return nil, &BackendError{
			Status: resp.StatusCode,
			Detail: errorDetail(body),
			kind:   kind,
		}
	}
	return body, nil
}

// errorDetail procura o texto de erro nos campos que os backends usam.
func errorDetail(body []byte) string {
	var m map[string]interface{}
	if err := json.Unmarshal(body, &m); err != nil {
		return strings.TrimSpace(string(body))
	}
	for _, key := range []string{"detalhe", "error", "erro", "message"} {
		switch v := m[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]interface{}, []interface{}:
			if data, err := json.Marshal(v); err == nil {
				return string(data)
			}
		}
	}
	return strings.TrimSpace(string(body))
}
