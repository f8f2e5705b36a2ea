package routing

import (
	"fmt"
	"math"
)

// NotAvailable é o texto exibido quando nenhum candidato rendeu dado.
const NotAvailable = "N/A"

// FormatDistanceMeters normaliza metros para quilômetros com duas casas.
// Ex: 5234 → "5.23 km".
func FormatDistanceMeters(meters float64) string {
	return fmt.Sprintf("%.2f km", meters/1000)
}

// FormatDurationSeconds normaliza segundos para minutos inteiros.
// Ex: 930 → "16 min".
func FormatDurationSeconds(seconds float64) string {
	return fmt.Sprintf("%d min", int(math.Round(seconds/60)))
}
