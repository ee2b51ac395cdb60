// Package inventory реализует учёт остатков и резервов по товарам.
package inventory

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// DefaultLowStockThreshold — порог, ниже которого товар считается заканчивающимся.
const DefaultLowStockThreshold = 10

// Ledger ведёт по каждому товару пару счётчиков: остаток на складе и резерв.
// Карта товаров защищена общим мьютексом, но сами счётчики каждого товара —
// собственным: проверка доступности и увеличение резерва выполняются как один
// атомарный шаг по ключу, а конкурентные операции над разными товарами
// не блокируют друг друга.
type Ledger struct {
	mu       sync.RWMutex
	products map[string]*productState

	logger *zap.Logger
}

type productState struct {
	mu       sync.Mutex
	onHand   int
	reserved int
}

// available вычисляет доступный остаток. Вызывается под p.mu.
func (p *productState) available() int {
	available := p.onHand - p.reserved
	if available < 0 {
		return 0
	}
	return available
}

// NewLedger создаёт пустой реестр остатков.
func NewLedger(logger *zap.Logger) *Ledger {
	return &Ledger{
		products: make(map[string]*productState),
		logger:   logger,
	}
}

// state возвращает запись товара, создавая её при первом обращении.
func (l *Ledger) state(productID string) *productState {
	l.mu.RLock()
	p, ok := l.products[productID]
	l.mu.RUnlock()
	if ok {
		return p
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok = l.products[productID]; ok {
		return p
	}
	p = &productState{}
	l.products[productID] = p
	return p
}

// AddStock добавляет остаток по товару. Отрицательное количество игнорируется.
func (l *Ledger) AddStock(productID string, quantity int) {
	if quantity <= 0 {
		return
	}

	p := l.state(productID)
	p.mu.Lock()
	p.onHand += quantity
	p.mu.Unlock()

	l.logger.Debug("added stock", zap.String("product", productID), zap.Int("quantity", quantity))
}

// AvailableStock возвращает доступный остаток: max(0, onHand - reserved).
func (l *Ledger) AvailableStock(productID string) int {
	p := l.state(productID)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available()
}

// InStock сообщает, доступен ли товар к заказу.
func (l *Ledger) InStock(productID string) bool {
	return l.AvailableStock(productID) > 0
}

// Reserve резервирует количество товара. Успешен, только если доступный
// остаток не меньше запрошенного; проверка и увеличение резерва атомарны
// по ключу, поэтому два конкурентных резерва не могут оба пройти на одном
// и том же остатке.
func (l *Ledger) Reserve(productID string, quantity int) bool {
	if quantity <= 0 {
		return false
	}

	p := l.state(productID)
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.available() < quantity {
		return false
	}
	p.reserved += quantity
	l.verifyLocked(p, productID)

	l.logger.Debug("reserved stock", zap.String("product", productID), zap.Int("quantity", quantity))
	return true
}

// Release снимает резерв, не опуская его ниже нуля. Используется при отмене заказа.
func (l *Ledger) Release(productID string, quantity int) {
	if quantity <= 0 {
		return
	}

	p := l.state(productID)
	p.mu.Lock()
	p.reserved -= quantity
	if p.reserved < 0 {
		p.reserved = 0
	}
	p.mu.Unlock()

	l.logger.Debug("released reserved stock", zap.String("product", productID), zap.Int("quantity", quantity))
}

// Fulfill списывает зарезервированный товар: остаток и резерв уменьшаются
// на min(quantity, onHand, reserved). Запрошенное количество молча усекается
// до фактически доступного, счётчики никогда не уходят в минус.
func (l *Ledger) Fulfill(productID string, quantity int) int {
	if quantity <= 0 {
		return 0
	}

	p := l.state(productID)
	p.mu.Lock()
	fulfilled := min(quantity, min(p.onHand, p.reserved))
	if fulfilled > 0 {
		p.onHand -= fulfilled
		p.reserved -= fulfilled
		l.verifyLocked(p, productID)
	}
	p.mu.Unlock()

	if fulfilled > 0 {
		l.logger.Debug("fulfilled stock", zap.String("product", productID), zap.Int("quantity", fulfilled))
	}
	return fulfilled
}

// LowStockProducts возвращает товары с доступным остатком не выше порога.
func (l *Ledger) LowStockProducts(threshold int) []string {
	l.mu.RLock()
	ids := make([]string, 0, len(l.products))
	for id := range l.products {
		ids = append(ids, id)
	}
	l.mu.RUnlock()

	var low []string
	for _, id := range ids {
		if l.AvailableStock(id) <= threshold {
			low = append(low, id)
		}
	}
	return low
}

// Snapshot возвращает независимую копию доступных остатков по всем товарам.
func (l *Ledger) Snapshot() map[string]int {
	l.mu.RLock()
	ids := make([]string, 0, len(l.products))
	for id := range l.products {
		ids = append(ids, id)
	}
	l.mu.RUnlock()

	snapshot := make(map[string]int, len(ids))
	for _, id := range ids {
		snapshot[id] = l.AvailableStock(id)
	}
	return snapshot
}

// ProductCount возвращает число товаров, по которым ведётся учёт.
func (l *Ledger) ProductCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.products)
}

// verifyLocked проверяет инварианты счётчиков. Отрицательные значения при
// соблюдении атомарности по ключу невозможны; их появление означает ошибку
// в коде реестра, продолжать работу с испорченным состоянием нельзя.
func (l *Ledger) verifyLocked(p *productState, productID string) {
	if p.onHand < 0 || p.reserved < 0 {
		panic(fmt.Sprintf("inventory: negative counters for product %s: onHand=%d reserved=%d",
			productID, p.onHand, p.reserved))
	}
}
