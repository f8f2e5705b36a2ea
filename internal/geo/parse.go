package geo

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Reconhece "numero, numero" com sinal e decimais opcionais.
var coordPairRe = regexp.MustCompile(`^\s*([-+]?\d{1,3}(?:\.\d+)?)\s*,\s*([-+]?\d{1,3}(?:\.\d+)?)\s*$`)

// ParseText tenta interpretar um texto livre como um par de coordenadas.
//
// Aceita "lat, lon" (ex: "-23.4750, -47.4415") ou "lon, lat"
// (ex: "-47.4415, -23.4750"). A desambiguação é por magnitude: um valor com
// módulo ≤ 90 pareado com outro ≤ 180 é lido como latitude primeiro. Quando
// as duas ordens são válidas (ambos ≤ 90), o primeiro valor é tratado como
// latitude.
//
// Retorna (coord, true) quando o texto é um par literal válido; (zero, false)
// quando não é coordenada e deve seguir para geocodificação.
func ParseText(text string) (Coordinate, bool) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return Coordinate{}, false
	}

	m := coordPairRe.FindStringSubmatch(cleaned)
	if m == nil {
		return Coordinate{}, false
	}

	a, errA := strconv.ParseFloat(m[1], 64)
	b, errB := strconv.ParseFloat(m[2], 64)
	if errA != nil || errB != nil {
		return Coordinate{}, false
	}

	// Primeiro valor dentro do intervalo de latitude: lê como lat, lon.
	if math.Abs(a) <= 90 && math.Abs(b) <= 180 {
		return Coordinate{Lon: b, Lat: a}, true
	}
	// Senão, tenta lon, lat.
	if math.Abs(b) <= 90 && math.Abs(a) <= 180 {
		return Coordinate{Lon: a, Lat: b}, true
	}

	// Nenhuma ordem mantém os dois valores no intervalo: não é coordenada.
	return Coordinate{}, false
}
