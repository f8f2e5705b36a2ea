package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"github.com/yourorg/rotafacil/internal/cache"
	"github.com/yourorg/rotafacil/internal/config"
	"github.com/yourorg/rotafacil/internal/server"
	"github.com/yourorg/rotafacil/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	app := fiber.New()
	app.Use(logger.New())

	// ============================================================================
	// HANDLERS E ROTAS
	// ============================================================================
	// O histórico de GPS começa no anel em memória; quando o banco responder,
	// o destino troca para MariaDB sem derrubar o servidor.
	geoCache := cache.NewCache(30*time.Minute, time.Hour)
	defer geoCache.Stop()

	ors := server.NewORSClient(cfg.ORSAPIKey, cfg.ORSUseBearer)
	handlers := server.NewHandlers(cfg, ors, geoCache, storage.NewMemoryStore())
	server.Register(app, handlers)

	if cfg.DisableORS {
		log.Println("⚠️  DISABLE_ORS ativo: /rota responderá rotas sintéticas")
	} else if cfg.ORSAPIKey == "" {
		log.Println("⚠️  ORS_API_KEY não definida: chamadas de rota vão falhar")
	}

	// ============================================================================
	// CONEXÃO COM O BANCO (em segundo plano, com retry)
	// ============================================================================
	go func() {
		for {
			db, err := storage.Connect(cfg)
			if err != nil {
				log.Printf("erro conectando ao banco: %v (tentando de novo em 5s)", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if err := db.Ping(); err != nil {
				log.Printf("banco não respondeu ao ping: %v (tentando de novo em 5s)", err)
				db.Close()
				time.Sleep(5 * time.Second)
				continue
			}
			if err := storage.EnsureSchema(db); err != nil {
				log.Printf("erro criando schema: %v (tentando de novo em 5s)", err)
				db.Close()
				time.Sleep(5 * time.Second)
				continue
			}
			handlers.SetFixStore(storage.NewMySQLStore(db))
			log.Println("✅ Banco pronto, histórico de GPS persistente")
			return
		}
	}()

	// ============================================================================
	// GRACEFUL SHUTDOWN
	// ============================================================================
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("\n🛑 Sinal de encerramento recebido, fechando servidor...")
		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️  Erro fechando servidor: %v", err)
		}
		log.Println("✅ Servidor encerrado")
		os.Exit(0)
	}()

	log.Printf("🚀 Servidor escutando em :%s", cfg.Port)
	log.Println("📍 Endpoints disponíveis:")
	log.Println("   GET  /                 - Identidade do serviço")
	log.Println("   GET  /test_connection  - Teste de conectividade")
	log.Println("   POST /geocoding        - Endereço → coordenadas")
	log.Println("   POST /rota             - Cálculo de rota (coordinates)")
	log.Println("   POST /calculate_route  - Cálculo de rota (origin/destination)")
	log.Println("   POST /update_gps       - Registro de leitura GPS")
	log.Println("   GET  /gps/history      - Histórico de leituras")
	log.Println("💡 Pressione Ctrl+C para encerrar")

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
