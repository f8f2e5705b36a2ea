// ============================================================================
// Handlers HTTP - RotaFácil
// ============================================================================
// Endpoints que a página consome: geocodificação, cálculo de rota (nos dois
// formatos de payload), registro de leituras GPS e diagnóstico. Respostas de
// erro carregam o campo "erro" que o cliente procura primeiro.
// ============================================================================

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/rotafacil/internal/cache"
	"github.com/yourorg/rotafacil/internal/config"
	"github.com/yourorg/rotafacil/internal/debug"
	"github.com/yourorg/rotafacil/internal/geo"
	"github.com/yourorg/rotafacil/internal/storage"
)

// TTL do cache de geocodificação: endereços não mudam de lugar.
const geocodeCacheTTL = 30 * time.Minute

// Velocidade média urbana usada na rota sintética do modo offline.
const offlineSpeedMetersPerSecond = 10.0

// Handlers concentra as dependências dos endpoints.
type Handlers struct {
	cfg      config.Settings
	ors      *ORSClient
	geoCache *cache.Cache
	fixes    storage.FixStore
}

func NewHandlers(cfg config.Settings, ors *ORSClient, geoCache *cache.Cache, fixes storage.FixStore) *Handlers {
	return &Handlers{cfg: cfg, ors: ors, geoCache: geoCache, fixes: fixes}
}

// SetFixStore troca o destino das leituras GPS (o banco chega depois do
// boot, ver cmd/server).
func (h *Handlers) SetFixStore(fixes storage.FixStore) {
	h.fixes = fixes
}

// Root responde GET /: a página do widget se existir no disco, senão a
// identidade do serviço com a configuração que a página consome no boot
// (URL base injetada e offsets da folha inferior).
func (h *Handlers) Root(c *fiber.Ctx) error {
	if _, err := os.Stat("./public/index.html"); err == nil {
		return c.SendFile("./public/index.html")
	}
	return c.JSON(fiber.Map{
		"service":      "rotafacil",
		"status":       "ok",
		"api_base_url": h.cfg.PublicBaseURL,
		"sheet": fiber.Map{
			"medium_offset":    h.cfg.SheetMediumOffset,
			"minimized_offset": h.cfg.SheetMinimizedOffset,
		},
	})
}

// TestConnection responde GET /test_connection, usado pela página para
// checar se o backend está de pé.
func (h *Handlers) TestConnection(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":       "ok",
		"ors_enabled":  !h.cfg.DisableORS,
		"ors_key_set":  h.cfg.ORSAPIKey != "",
		"time_unix_ms": time.Now().UnixMilli(),
	})
}

type geocodingRequest struct {
	Address string `json:"address"`
}

// Geocoding resolve POST /geocoding {address} em {lon, lat}.
func (h *Handlers) Geocoding(c *fiber.Ctx) error {
	var req geocodingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"erro": "corpo da requisição inválido",
		})
	}

	address := strings.TrimSpace(req.Address)
	if address == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"erro": "campo 'address' é obrigatório",
		})
	}

	cacheKey := "geo:" + strings.ToLower(address)
	if cached, found := h.geoCache.Get(cacheKey); found {
		if coord, ok := cached.(geo.Coordinate); ok {
			log.Printf("[GEOCODING] cache hit: %q", address)
			return c.JSON(fiber.Map{"lon": coord.Lon, "lat": coord.Lat})
		}
	}

	coord, label, err := h.ors.GeocodeSearch(c.Context(), address)
	if err != nil {
		if errors.Is(err, ErrNoResults) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"erro": "Endereço não encontrado: " + address,
			})
		}
		log.Printf("[GEOCODING] ❌ falha upstream para %q: %v", address, err)
		var oe *ORSError
		if errors.As(err, &oe) {
			return c.Status(oe.Status).JSON(fiber.Map{
				"erro": "falha no serviço de geocodificação",
			})
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"erro": "falha de conexão com o serviço de geocodificação",
		})
	}

	h.geoCache.SetWithTTL(cacheKey, coord, geocodeCacheTTL)
	debug.LogInfo("geocodificação resolvida", map[string]interface{}{
		"address": address,
		"label":   label,
	})
	return c.JSON(fiber.Map{"lon": coord.Lon, "lat": coord.Lat})
}

// routeConstraints é o bloco de preferências vindo do cliente.
type routeConstraints struct {
	Avoid  []string `json:"avoid"`
	Prefer []string `json:"prefer"`
}

type rotaRequest struct {
	Coordinates [][]float64       `json:"coordinates"`
	Constraints *routeConstraints `json:"constraints"`
}

// Rota responde POST /rota {coordinates: [[lon,lat],[lon,lat]]}.
func (h *Handlers) Rota(c *fiber.Ctx) error {
	var req rotaRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detalhe": "corpo da requisição inválido",
		})
	}
	if len(req.Coordinates) != 2 || len(req.Coordinates[0]) < 2 || len(req.Coordinates[1]) < 2 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detalhe": "campo 'coordinates' deve ter exatamente dois pares [lon, lat]",
		})
	}

	origin := geo.Coordinate{Lon: req.Coordinates[0][0], Lat: req.Coordinates[0][1]}
	dest := geo.Coordinate{Lon: req.Coordinates[1][0], Lat: req.Coordinates[1][1]}
	return h.computeRoute(c, origin, dest, req.Constraints)
}

type latLonBody struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type calculateRouteRequest struct {
	Origin      *latLonBody       `json:"origin"`
	Destination *latLonBody       `json:"destination"`
	Constraints *routeConstraints `json:"constraints"`
}

// CalculateRoute responde POST /calculate_route, o formato alternativo com
// origin/destination como objetos.
func (h *Handlers) CalculateRoute(c *fiber.Ctx) error {
	var req calculateRouteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detalhe": "corpo da requisição inválido",
		})
	}
	if req.Origin == nil || req.Destination == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detalhe": "campos 'origin' e 'destination' são obrigatórios",
		})
	}

	origin := geo.Coordinate{Lon: req.Origin.Lon, Lat: req.Origin.Lat}
	dest := geo.Coordinate{Lon: req.Destination.Lon, Lat: req.Destination.Lat}
	return h.computeRoute(c, origin, dest, req.Constraints)
}

// computeRoute valida, consulta (ou sintetiza) e enriquece a rota.
func (h *Handlers) computeRoute(c *fiber.Ctx, origin, dest geo.Coordinate, constraints *routeConstraints) error {
	if err := origin.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detalhe": "origem inválida: " + err.Error(),
		})
	}
	if err := dest.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detalhe": "destino inválido: " + err.Error(),
		})
	}

	if h.cfg.DisableORS {
		body := offlineRoute(origin, dest)
		return c.Type("json").Send(body)
	}

	var avoid []string
	if constraints != nil {
		avoid = constraints.Avoid
	}

	body, err := h.ors.Directions(c.Context(), origin, dest, avoid)
	if err != nil {
		var oe *ORSError
		if errors.As(err, &oe) {
			// 401/403 do ORS repassam o status para o cliente distinguir
			// chave ruim de falha genérica.
			if oe.Status == fiber.StatusUnauthorized || oe.Status == fiber.StatusForbidden {
				return c.Status(oe.Status).JSON(fiber.Map{
					"detalhe": "acesso negado pelo OpenRouteService: verifique a chave da API",
				})
			}
			log.Printf("[ROTA] ❌ ORS respondeu %d: %s", oe.Status, oe.Body)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"detalhe": "o serviço de rotas recusou a requisição",
			})
		}
		log.Printf("[ROTA] ❌ falha de conexão com ORS: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"detalhe": "falha de conexão com o serviço de rotas",
		})
	}

	if constraints != nil && (len(constraints.Avoid) > 0 || len(constraints.Prefer) > 0) {
		body = attachOptimization(body, constraints)
	}

	return c.Type("json").Send(body)
}

// offlineRoute sintetiza um FeatureCollection com uma reta entre os pontos,
// para desenvolvimento sem chave do ORS.
func offlineRoute(origin, dest geo.Coordinate) []byte {
	distance := geo.DistanceMeters(origin, dest)
	duration := distance / offlineSpeedMetersPerSecond

	doc := fiber.Map{
		"type": "FeatureCollection",
		"features": []fiber.Map{
			{
				"type": "Feature",
				"geometry": fiber.Map{
					"type": "LineString",
					"coordinates": [][]float64{
						{origin.Lon, origin.Lat},
						{dest.Lon, dest.Lat},
					},
				},
				"properties": fiber.Map{
					"summary": fiber.Map{
						"distance": math.Round(distance),
						"duration": math.Round(duration),
					},
					"offline": true,
				},
			},
		},
	}
	body, _ := json.Marshal(doc)
	return body
}

// attachOptimization injeta o bloco de otimização na primeira feature. Se a
// resposta não tiver a forma esperada, devolve intacta.
func attachOptimization(body []byte, constraints *routeConstraints) []byte {
	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return body
	}
	features, ok := doc["features"].([]interface{})
	if !ok || len(features) == 0 {
		return body
	}
	first, ok := features[0].(map[string]interface{})
	if !ok {
		return body
	}
	props, ok := first["properties"].(map[string]interface{})
	if !ok {
		props = map[string]interface{}{}
		first["properties"] = props
	}

	var parts []string
	if len(constraints.Avoid) > 0 {
		parts = append(parts, "evitando "+strings.Join(constraints.Avoid, ", "))
	}
	if len(constraints.Prefer) > 0 {
		parts = append(parts, "priorizando "+strings.Join(constraints.Prefer, ", "))
	}

	props["optimization"] = map[string]interface{}{
		"enabled":        true,
		"reasoning":      "Rota calculada " + strings.Join(parts, " e "),
		"weather":        "Clima: não disponível",
		"traffic_factor": 1.0,
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return body
	}
	return out
}

type updateGPSRequest struct {
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Alt       *float64 `json:"alt"`
	Accuracy  float64  `json:"accuracy"`
	Timestamp string   `json:"timestamp"`
}

// UpdateGPS responde POST /update_gps, registrando a leitura no histórico.
func (h *Handlers) UpdateGPS(c *fiber.Ctx) error {
	var req updateGPSRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"erro": "corpo da requisição inválido",
		})
	}
	if req.Lat == nil || req.Lon == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"erro": "campos 'lat' e 'lon' são obrigatórios",
		})
	}

	pos := geo.Coordinate{Lon: *req.Lon, Lat: *req.Lat}
	if err := pos.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"erro": "coordenada inválida: " + err.Error(),
		})
	}
	if req.Accuracy < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"erro": "precisão não pode ser negativa",
		})
	}

	// Horário do dispositivo quando informado; ausente usa o do servidor.
	var recordedAt time.Time
	if ts := strings.TrimSpace(req.Timestamp); ts != "" {
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"erro": "campo 'timestamp' inválido, use RFC 3339",
			})
		}
		recordedAt = parsed
	}

	rec := storage.NewFixRecord(pos, req.Accuracy, req.Alt, recordedAt)
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()
	if err := h.fixes.SaveFix(ctx, rec); err != nil {
		log.Printf("[GPS] ❌ falha ao gravar leitura: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"erro": "falha ao gravar leitura",
		})
	}

	debug.NotifyFix(rec.Lat, rec.Lon, rec.AccuracyMeters)
	return c.JSON(fiber.Map{"status": "ok", "id": rec.ID})
}

// GPSHistory responde GET /gps/history com as leituras mais recentes.
func (h *Handlers) GPSHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()
	fixes, err := h.fixes.RecentFixes(ctx, limit)
	if err != nil {
		log.Printf("[GPS] ❌ falha ao ler histórico: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"erro": "falha ao ler histórico",
		})
	}
	if fixes == nil {
		fixes = []storage.FixRecord{}
	}
	return c.JSON(fiber.Map{
		"fixes": fixes,
		"count": len(fixes),
	})
}

// CacheStats responde GET /debug/cache com os números do cache de
// geocodificação.
func (h *Handlers) CacheStats(c *fiber.Ctx) error {
	stats := h.geoCache.GetStats()
	return c.JSON(fiber.Map{
		"total":   stats.TotalItems,
		"valid":   stats.ValidItems,
		"expired": stats.ExpiredItems,
	})
}
