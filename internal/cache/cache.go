package cache

import (
	"strings"
	"sync"
	"time"
)

// ============================================================================
// CACHE EM MEMÓRIA COM TTL - RotaFácil
// ============================================================================
// Armazém chave-valor thread-safe com expiração automática. Usado para
// poupar chamadas repetidas ao serviço de geocodificação e de rotas: o
// mesmo endereço pesquisado duas vezes seguidas não sai duas vezes para a
// internet.
//
// Uso:
//   c := cache.NewCache(10*time.Minute, 15*time.Minute)
//   c.Set("geo:av paulista 1000", coord)
//   if v, ok := c.Get("geo:av paulista 1000"); ok { ... }

// Item é um valor em cache com seu prazo de expiração.
type Item struct {
	Value      interface{}
	Expiration int64 // UnixNano; zero = sem expiração
}

// Cache é o armazém com TTL padrão e limpeza periódica.
type Cache struct {
	items           map[string]Item
	mu              sync.RWMutex
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
}

// NewCache cria o cache. cleanupInterval controla a varredura de expirados.
func NewCache(defaultTTL, cleanupInterval time.Duration) *Cache {
	c := &Cache{
		items:           make(map[string]Item),
		defaultTTL:      defaultTTL,
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Set grava com o TTL padrão.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL grava com prazo específico. TTL zero ou negativo não expira.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	var expiration int64
	if ttl > 0 {
		expiration = time.Now().Add(ttl).UnixNano()
	}

	c.mu.Lock()
	c.items[key] = Item{Value: value, Expiration: expiration}
	c.mu.Unlock()
}

// Get retorna (valor, true) se a chave existe e não expirou.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	item, found := c.items[key]
	c.mu.RUnlock()

	if !found {
		return nil, false
	}
	if item.Expiration > 0 && time.Now().UnixNano() > item.Expiration {
		c.Delete(key)
		return nil, false
	}
	return item.Value, true
}

// Delete remove uma chave.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// DeletePrefix remove todas as chaves com o prefixo dado e retorna quantas
// caíram. Útil para invalidar grupos ("geo:" limpa toda a geocodificação).
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			count++
		}
	}
	return count
}

// Clear esvazia o cache inteiro.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]Item)
	c.mu.Unlock()
}

// Count retorna o total de itens, expirados inclusos.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats são os números expostos no endpoint de diagnóstico.
type Stats struct {
	TotalItems   int
	ExpiredItems int
	ValidItems   int
}

// GetStats conta itens válidos e expirados no momento da chamada.
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{TotalItems: len(c.items)}
	now := time.Now().UnixNano()
	for _, item := range c.items {
		if item.Expiration > 0 && now > item.Expiration {
			stats.ExpiredItems++
		} else {
			stats.ValidItems++
		}
	}
	return stats
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *Cache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for key, item := range c.items {
		if item.Expiration > 0 && now > item.Expiration {
			delete(c.items, key)
		}
	}
}

// Stop encerra a varredura periódica.
func (c *Cache) Stop() {
	close(c.stopCleanup)
}
