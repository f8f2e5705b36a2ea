// Package status concentra as mensagens de feedback ao usuário. Cada falha
// produz exatamente uma mensagem legível; sucessos somem sozinhos depois de
// um tempo fixo, erros ficam até serem substituídos.
package status

import (
	"sync"
	"time"
)

// Kind classifica a mensagem exibida.
type Kind string

const (
	Info    Kind = "info"
	Success Kind = "success"
	Error   Kind = "error"
)

// Reporter é o destino das mensagens de status dos componentes.
type Reporter interface {
	Show(text string, kind Kind)
	Clear()
}

// Tempo que uma mensagem de sucesso fica visível.
const successTTL = 3 * time.Second

// Bar mantém a mensagem visível no momento. Uma só por vez, como a caixa de
// mensagens do app original.
type Bar struct {
	mu      sync.Mutex
	text    string
	kind    Kind
	visible bool
	timer   *time.Timer
}

func NewBar() *Bar {
	return &Bar{}
}

// Show substitui a mensagem atual. Sucessos agendam auto-limpeza em 3s;
// qualquer mensagem nova cancela o timer anterior para não apagar a errada.
func (b *Bar) Show(text string, kind Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}

	b.text = text
	b.kind = kind
	b.visible = true

	if kind == Success {
		b.timer = time.AfterFunc(successTTL, b.Clear)
	}
}

// Clear esconde a mensagem atual.
func (b *Bar) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.text = ""
	b.kind = ""
	b.visible = false
}

// Current retorna a mensagem visível, se houver.
func (b *Bar) Current() (text string, kind Kind, visible bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text, b.kind, b.visible
}
