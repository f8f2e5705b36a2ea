package maprender

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yourorg/rotafacil/internal/routing"
)

// Alguns backends mandam textos já formatados nas properties em vez de
// números no summary. A extração frouxa aceita esses textos como fallback.
var (
	distanceTextRe = regexp.MustCompile(`(?i)^\s*\d+(?:[.,]\d+)?\s*(?:km|m)\s*$`)
	durationTextRe = regexp.MustCompile(`(?i)^\s*\d+(?:[.,]\d+)?\s*(?:min|h|hora?s?)\s*$`)
)

var looseDistancePaths = [][]string{
	{"features", "0", "properties", "distance_text"},
	{"features", "0", "properties", "distance"},
	{"routes", "0", "distance_text"},
}

var looseDurationPaths = [][]string{
	{"features", "0", "properties", "duration_text"},
	{"features", "0", "properties", "duration"},
	{"routes", "0", "duration_text"},
}

// looseExtract vasculha a resposta por metadados pré-formatados. Tudo aqui é
// melhor-esforço: campo ausente ou irreconhecível vira string vazia.
func looseExtract(doc *routing.Document) routing.RouteExtract {
	var ex routing.RouteExtract
	ex.Distance = looseText(doc, looseDistancePaths, distanceTextRe)
	ex.Duration = looseText(doc, looseDurationPaths, durationTextRe)
	ex.Steps = doc.Steps()
	return ex
}

func looseText(doc *routing.Document, paths [][]string, re *regexp.Regexp) string {
	for _, path := range paths {
		v, ok := doc.Lookup(path...)
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if re.MatchString(s) {
			return s
		}
	}
	return ""
}

// FormatFixDescription monta o texto da posição atual exibido na barra de
// status quando o usuário pede para centralizar.
func FormatFixDescription(lat, lon, accuracyMeters float64) string {
	return fmt.Sprintf("Posição: %.5f, %.5f (±%.0f m)", lat, lon, accuracyMeters)
}
