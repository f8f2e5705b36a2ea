package debug

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// WebSocketHub gerencia as conexões do dashboard de debug.
type WebSocketHub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.RWMutex
}

var Hub *WebSocketHub

func init() {
	Hub = &WebSocketHub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		clients:    make(map[*websocket.Conn]bool),
	}
	go Hub.run()
}

func (h *WebSocketHub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("🔌 Dashboard conectado. Total de clientes: %d", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("🔌 Dashboard desconectado. Total de clientes: %d", total)

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					log.Printf("Erro enviando mensagem ao dashboard: %v", err)
					client.Close()
					delete(h.clients, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// HandleWebSocketFiber atende uma conexão WebSocket do dashboard.
func HandleWebSocketFiber(conn *websocket.Conn) {
	Hub.register <- conn

	defer func() {
		Hub.unregister <- conn
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// LogMessage é um log exibido no dashboard.
type LogMessage struct {
	Type     string                 `json:"type"`
	Source   string                 `json:"source"`
	Level    string                 `json:"level"`
	Message  string                 `json:"message"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// clientCount lê o total de conexões sob o lock, run() muda o mapa a
// qualquer momento.
func (h *WebSocketHub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendLog transmite um log a todos os dashboards conectados.
func SendLog(source, level, message string, metadata map[string]interface{}) {
	if Hub == nil || Hub.clientCount() == 0 {
		return
	}

	msg := LogMessage{
		Type:     "log",
		Source:   source,
		Level:    level,
		Message:  message,
		Metadata: metadata,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Erro ao serializar log para o dashboard: %v", err)
		return
	}

	select {
	case Hub.broadcast <- data:
	default:
		// canal cheio, descarta
	}
}

// FixMessage é uma leitura GPS transmitida ao dashboard.
type FixMessage struct {
	Type       string  `json:"type"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	AccuracyM  float64 `json:"accuracy_m"`
	ReceivedAt int64   `json:"receivedAt"`
}

// SendFix transmite uma leitura GPS ao dashboard.
func SendFix(lat, lon, accuracyMeters float64) {
	if Hub == nil || Hub.clientCount() == 0 {
		return
	}

	msg := FixMessage{
		Type:       "gps_fix",
		Lat:        lat,
		Lon:        lon,
		AccuracyM:  accuracyMeters,
		ReceivedAt: time.Now().UnixMilli(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Erro ao serializar leitura GPS para o dashboard: %v", err)
		return
	}

	select {
	case Hub.broadcast <- data:
	default:
	}
}
