// Package clock предоставляет источник времени с возможностью подмены в тестах.
package clock

import (
	"sync"
	"time"
)

// Clock возвращает текущее время. Все компоненты получают время только
// через этот интерфейс, что позволяет детерминированно проверять
// истечение сессий и ретенцию аналитики.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System возвращает часы, основанные на системном времени.
func System() Clock { return systemClock{} }

// Fake реализует управляемые часы для тестов.
// Безопасен для конкурентного использования.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake создаёт управляемые часы, установленные на указанный момент.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now возвращает текущее установленное время.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance сдвигает часы вперёд на указанный интервал.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set устанавливает часы на указанный момент.
func (f *Fake) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}
