package geo

import (
	"fmt"
	"math"
)

// Coordinate representa um ponto geográfico em WGS84.
// A ordem interna é sempre (lon, lat), como o backend de rotas espera.
type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// CoordinateError representa um erro de validação de coordenadas
type CoordinateError struct {
	Field   string
	Value   float64
	Message string
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("%s: %s (valor: %.6f)", e.Field, e.Message, e.Value)
}

// ValidateLatitude valida uma latitude
func ValidateLatitude(lat float64, fieldName string) error {
	if math.IsNaN(lat) {
		return &CoordinateError{Field: fieldName, Value: lat, Message: "valor NaN não permitido"}
	}
	if math.IsInf(lat, 0) {
		return &CoordinateError{Field: fieldName, Value: lat, Message: "valor infinito não permitido"}
	}
	if lat < -90 || lat > 90 {
		return &CoordinateError{Field: fieldName, Value: lat, Message: "deve estar entre -90 e 90"}
	}
	return nil
}

// ValidateLongitude valida uma longitude
func ValidateLongitude(lon float64, fieldName string) error {
	if math.IsNaN(lon) {
		return &CoordinateError{Field: fieldName, Value: lon, Message: "valor NaN não permitido"}
	}
	if math.IsInf(lon, 0) {
		return &CoordinateError{Field: fieldName, Value: lon, Message: "valor infinito não permitido"}
	}
	if lon < -180 || lon > 180 {
		return &CoordinateError{Field: fieldName, Value: lon, Message: "deve estar entre -180 e 180"}
	}
	return nil
}

// Validate valida o par (lon, lat) da coordenada.
func (c Coordinate) Validate() error {
	if err := ValidateLatitude(c.Lat, "lat"); err != nil {
		return err
	}
	return ValidateLongitude(c.Lon, "lon")
}

// IsZero verifica se a coordenada é (0, 0). Ponto nulo no Atlântico,
// quase sempre indica dado ausente.
func (c Coordinate) IsZero() bool {
	return c.Lat == 0 && c.Lon == 0
}

const earthRadiusMeters = 6371000

// DistanceMeters calcula a distância haversine entre duas coordenadas.
func DistanceMeters(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// Bounds é um retângulo envolvente em WGS84, usado para ajustar o viewport.
type Bounds struct {
	MinLon, MinLat, MaxLon, MaxLat float64

	set bool
}

// Extend amplia o retângulo para conter a coordenada.
func (b *Bounds) Extend(c Coordinate) {
	if !b.set {
		b.MinLon, b.MaxLon = c.Lon, c.Lon
		b.MinLat, b.MaxLat = c.Lat, c.Lat
		b.set = true
		return
	}
	b.MinLon = math.Min(b.MinLon, c.Lon)
	b.MaxLon = math.Max(b.MaxLon, c.Lon)
	b.MinLat = math.Min(b.MinLat, c.Lat)
	b.MaxLat = math.Max(b.MaxLat, c.Lat)
}

// IsEmpty retorna true enquanto nenhum ponto foi adicionado.
func (b Bounds) IsEmpty() bool {
	return !b.set
}

// BoundsOf calcula o envolvente de uma lista de coordenadas.
func BoundsOf(coords []Coordinate) Bounds {
	var b Bounds
	for _, c := range coords {
		b.Extend(c)
	}
	return b
}
