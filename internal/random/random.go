// Package random предоставляет потокобезопасный источник случайности с фиксируемым зерном.
package random

import (
	"math/rand"
	"sync"
)

// Rand оборачивает math/rand.Rand мьютексом: задачи планировщика и цикл
// симуляции обращаются к одному источнику из разных горутин.
// Зерно задаётся явно, поэтому прогон воспроизводим.
type Rand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New создаёт источник случайности с указанным зерном.
func New(seed int64) *Rand {
	return &Rand{rnd: rand.New(rand.NewSource(seed))}
}

// Float64 возвращает псевдослучайное число из [0.0, 1.0).
func (r *Rand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}

// Intn возвращает псевдослучайное число из [0, n).
func (r *Rand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}

// Read заполняет p псевдослучайными байтами. Используется для генерации
// идентификаторов через uuid.NewRandomFromReader.
func (r *Rand) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Read(p)
}
