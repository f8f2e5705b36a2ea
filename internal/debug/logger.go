package debug

import "log"

var enabled = false

// Configure liga ou desliga o dashboard. Chamado uma vez no boot com o valor
// das Settings, antes de registrar as rotas.
func Configure(on bool) {
	enabled = on
	if enabled {
		log.Println("🐛 Dashboard de debug habilitado")
	}
}

// IsEnabled informa se o dashboard de debug está ligado.
func IsEnabled() bool {
	return enabled
}

// LogDebug envia um log de nível debug ao dashboard.
func LogDebug(message string, metadata map[string]interface{}) {
	if !enabled {
		return
	}
	SendLog("backend", "debug", message, metadata)
}

// LogInfo envia um log de nível info ao dashboard.
func LogInfo(message string, metadata map[string]interface{}) {
	if !enabled {
		return
	}
	SendLog("backend", "info", message, metadata)
}

// LogWarn envia um log de nível warn ao dashboard.
func LogWarn(message string, metadata map[string]interface{}) {
	if !enabled {
		return
	}
	SendLog("backend", "warn", message, metadata)
}

// LogError envia um log de nível error ao dashboard.
func LogError(message string, metadata map[string]interface{}) {
	if !enabled {
		return
	}
	SendLog("backend", "error", message, metadata)
}

// NotifyFix publica uma leitura GPS recebida em /update_gps para o dashboard
// acompanhar o dispositivo em tempo real.
func NotifyFix(lat, lon, accuracyMeters float64) {
	if !enabled {
		return
	}
	SendFix(lat, lon, accuracyMeters)
}
