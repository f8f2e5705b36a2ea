package debug

import (
	"sync"
	"testing"

	"github.com/gofiber/websocket/v2"
)

func TestConfigure(t *testing.T) {
	Configure(true)
	if !IsEnabled() {
		t.Error("dashboard deveria estar ligado")
	}
	Configure(false)
	if IsEnabled() {
		t.Error("dashboard deveria estar desligado")
	}
}

// Leituras de contagem concorrem com o loop que muda o mapa de conexões.
func TestClientCountConcurrent(t *testing.T) {
	h := &WebSocketHub{clients: make(map[*websocket.Conn]bool)}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			conn := new(websocket.Conn)
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			h.clientCount()
		}
	}()
	wg.Wait()

	if h.clientCount() != 0 {
		t.Errorf("conexões restantes = %d", h.clientCount())
	}
}

func TestSendLogWithoutClients(t *testing.T) {
	// Sem dashboards conectados o envio é descartado sem tocar o canal.
	SendLog("backend", "info", "mensagem", nil)
	SendFix(-23.5, -46.6, 30)
}
