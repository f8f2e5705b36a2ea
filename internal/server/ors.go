// ============================================================================
// Cliente OpenRouteService - RotaFácil
// ============================================================================
// Fala com a API pública do OpenRouteService: geocodificação por texto e
// direções de carro em GeoJSON. A chave vai no header Authorization; alguns
// deployments exigem o prefixo Bearer, controlado por configuração.
// ============================================================================

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/yourorg/rotafacil/internal/geo"
)

const orsBaseURL = "https://api.openrouteservice.org"

// ErrNoResults indica geocodificação sem nenhum resultado.
var ErrNoResults = errors.New("nenhum resultado de geocodificação")

// ORSError carrega o status e o corpo de uma resposta de erro do ORS.
type ORSError struct {
	Status int
	Body   string
}

func (e *ORSError) Error() string {
	return fmt.Sprintf("openrouteservice %d: %s", e.Status, e.Body)
}

// ORSClient acessa a API do OpenRouteService.
type ORSClient struct {
	apiKey     string
	useBearer  bool
	baseURL    string
	httpClient *http.Client
}

func NewORSClient(apiKey string, useBearer bool) *ORSClient {
	return &ORSClient{
		apiKey:    apiKey,
		useBearer: useBearer,
		baseURL:   orsBaseURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

func (c *ORSClient) authHeader() string {
	if c.useBearer {
		return "Bearer " + c.apiKey
	}
	return c.apiKey
}

type orsGeocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Label string `json:"label"`
		} `json:"properties"`
	} `json:"features"`
}

// GeocodeSearch resolve um texto de endereço na melhor coordenada,
// restringindo a busca ao Brasil.
func (c *ORSClient) GeocodeSearch(ctx context.Context, text string) (geo.Coordinate, string, error) {
	params := url.Values{}
	params.Set("text", text)
	params.Set("size", strconv.Itoa(1))
	params.Set("boundary.country", "BR")

	endpoint := fmt.Sprintf("%s/geocode/search?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return geo.Coordinate{}, "", err
	}
	req.Header.Set("Authorization", c.authHeader())

	body, err := c.do(req)
	if err != nil {
		return geo.Coordinate{}, "", err
	}

	var resp orsGeocodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return geo.Coordinate{}, "", fmt.Errorf("resposta de geocodificação inválida: %w", err)
	}
	if len(resp.Features) == 0 || len(resp.Features[0].Geometry.Coordinates) < 2 {
		return geo.Coordinate{}, "", ErrNoResults
	}

	coords := resp.Features[0].Geometry.Coordinates
	result := geo.Coordinate{Lon: coords[0], Lat: coords[1]}
	if err := result.Validate(); err != nil {
		return geo.Coordinate{}, "", err
	}
	return result, resp.Features[0].Properties.Label, nil
}

// Tradução dos rótulos de constraint do app para os avoid_features do ORS.
var avoidFeatureNames = map[string]string{
	"toll":    "tollways",
	"tolls":   "tollways",
	"highway": "highways",
	"ferry":   "ferries",
	"ferries": "ferries",
}

type orsDirectionsRequest struct {
	Coordinates [][2]float64           `json:"coordinates"`
	Options     map[string]interface{} `json:"options,omitempty"`
}

// Directions pede uma rota de carro em GeoJSON entre dois pontos. Retorna o
// corpo cru: o handler repassa (e enriquece) sem remontar a estrutura.
func (c *ORSClient) Directions(ctx context.Context, origin, dest geo.Coordinate, avoid []string) ([]byte, error) {
	payload := orsDirectionsRequest{
		Coordinates: [][2]float64{
			{origin.Lon, origin.Lat},
			{dest.Lon, dest.Lat},
		},
	}

	var features []string
	for _, a := range avoid {
		if name, ok := avoidFeatureNames[a]; ok {
			features = append(features, name)
		}
	}
	if len(features) > 0 {
		payload.Options = map[string]interface{}{
			"avoid_features": features,
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/v2/directions/driving-car/geojson"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.authHeader())
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *ORSClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ORSError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
