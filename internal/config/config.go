// ============================================================================
// Configuração - RotaFácil
// ============================================================================
// Toda a configuração vem de variáveis de ambiente (carregadas de .env pelo
// binário). Valores ausentes caem nos padrões de desenvolvimento.
// ============================================================================

package config

import (
	"os"
	"strings"
)

// Settings reúne a configuração do servidor.
type Settings struct {
	// Porta HTTP do servidor.
	Port string

	// Chave da API do OpenRouteService e forma de envio (header puro ou
	// Bearer, alguns deployments exigem um ou outro).
	ORSAPIKey    string
	ORSUseBearer bool

	// DisableORS liga o modo offline: /rota responde uma rota sintética em
	// vez de consultar o serviço externo.
	DisableORS bool

	// PublicBaseURL, quando definido, é a URL pública injetada na página
	// (túnel/proxy tipo Colab). O cliente usa o endpoint alternativo nesse
	// caso.
	PublicBaseURL string

	// Offsets configurados da folha inferior, medidos a partir da base da
	// janela ("40vh", "320px"). Vazio usa os padrões proporcionais.
	SheetMediumOffset    string
	SheetMinimizedOffset string

	// Dashboard de debug via WebSocket.
	DebugDashboard bool

	// Banco de dados do histórico de GPS.
	DBUser string
	DBPass string
	DBHost string
	DBPort string
	DBName string
}

// Load monta as Settings a partir do ambiente.
func Load() Settings {
	return Settings{
		Port:                 getenv("PORT", "8080"),
		ORSAPIKey:            os.Getenv("ORS_API_KEY"),
		ORSUseBearer:         boolEnv("ORS_USE_BEARER"),
		DisableORS:           boolEnv("DISABLE_ORS"),
		PublicBaseURL:        strings.TrimSuffix(os.Getenv("PUBLIC_BASE_URL"), "/"),
		SheetMediumOffset:    os.Getenv("SHEET_MEDIUM_OFFSET"),
		SheetMinimizedOffset: os.Getenv("SHEET_MIN_OFFSET"),
		DebugDashboard:       boolEnv("ROTAFACIL_DEBUG_DASHBOARD"),
		DBUser:               os.Getenv("DB_USER"),
		DBPass:               os.Getenv("DB_PASS"),
		DBHost:               getenv("DB_HOST", "127.0.0.1"),
		DBPort:               getenv("DB_PORT", "3306"),
		DBName:               getenv("DB_NAME", "rotafacil"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func boolEnv(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	return strings.EqualFold(v, "true") || v == "1"
}
