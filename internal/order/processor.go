// Package order реализует машину состояний заказов.
package order

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/shopsim-system/internal/clock"
	"github.com/mmeshcher/shopsim-system/internal/inventory"
	"github.com/mmeshcher/shopsim-system/internal/model"
)

// ErrOrderNotFound возвращается при обращении к несуществующему заказу.
var ErrOrderNotFound = errors.New("order not found")

// ErrInvalidTransition возвращается при недопустимом переходе статуса заказа.
var ErrInvalidTransition = errors.New("invalid order status transition")

// Processor хранит заказы и выполняет переходы статусов:
// PENDING -> CONFIRMED -> PROCESSING -> SHIPPED -> DELIVERED,
// отмена возможна из любого статуса до отправки. Переходы выполняются
// только по явному вызову; автоматических таймаутов нет. При отправке
// и отмене согласует резервы с реестром остатков.
type Processor struct {
	mu     sync.RWMutex
	orders map[string]*model.Order

	ledger *inventory.Ledger
	clk    clock.Clock
	ids    io.Reader
	logger *zap.Logger
}

// NewProcessor создаёт обработчик заказов поверх реестра остатков.
// Идентификаторы заказов порождаются из переданного источника случайных байтов.
func NewProcessor(ledger *inventory.Ledger, clk clock.Clock, ids io.Reader, logger *zap.Logger) *Processor {
	return &Processor{
		orders: make(map[string]*model.Order),
		ledger: ledger,
		clk:    clk,
		ids:    ids,
		logger: logger,
	}
}

// Create создаёт пустой заказ в статусе PENDING и возвращает его идентификатор.
func (p *Processor) Create(userID string) string {
	now := p.clk.Now()
	o := &model.Order{
		ID:        uuid.Must(uuid.NewRandomFromReader(p.ids)).String(),
		UserID:    userID,
		Status:    model.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	p.mu.Lock()
	p.orders[o.ID] = o
	p.mu.Unlock()

	p.logger.Debug("created order", zap.String("order", o.ID), zap.String("user", userID))
	return o.ID
}

// CreateFromCart создаёт заказ по содержимому корзины. Цена каждой позиции
// берётся из priceFor; товары, для которых цена не нашлась, пропускаются.
// Для пустой корзины заказ не создаётся.
func (p *Processor) CreateFromCart(userID string, cart map[string]int, priceFor func(productID string) (float64, bool)) (string, bool) {
	if len(cart) == 0 {
		return "", false
	}

	var items []model.OrderItem
	for productID, quantity := range cart {
		price, ok := priceFor(productID)
		if !ok {
			continue
		}
		items = append(items, model.OrderItem{ProductID: productID, Quantity: quantity, Price: price})
	}
	if len(items) == 0 {
		return "", false
	}

	id := p.Create(userID)
	for _, it := range items {
		p.AddItem(id, it)
	}

	p.logger.Info("created order from cart", zap.String("order", id), zap.String("user", userID))
	return id, true
}

// AddItem добавляет позицию в заказ. Сумма заказа нигде не кэшируется
// и пересчитывается при каждом чтении.
func (p *Processor) AddItem(id string, item model.OrderItem) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Items = append(o.Items, item)
	o.UpdatedAt = p.clk.Now()
	return nil
}

// Get возвращает копию заказа.
func (p *Processor) Get(id string) (model.Order, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	o, ok := p.orders[id]
	if !ok {
		return model.Order{}, ErrOrderNotFound
	}
	return copyOrder(o), nil
}

// OrdersByUser возвращает копии всех заказов пользователя.
func (p *Processor) OrdersByUser(userID string) []model.Order {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var res []model.Order
	for _, o := range p.orders {
		if o.UserID == userID {
			res = append(res, copyOrder(o))
		}
	}
	return res
}

// PendingOrders возвращает копии заказов в статусах PENDING и CONFIRMED.
func (p *Processor) PendingOrders() []model.Order {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var res []model.Order
	for _, o := range p.orders {
		if o.Status == model.OrderStatusPending || o.Status == model.OrderStatusConfirmed {
			res = append(res, copyOrder(o))
		}
	}
	return res
}

// Process подтверждает заказ: PENDING -> CONFIRMED.
func (p *Processor) Process(id string) error {
	return p.transition(id, model.OrderStatusConfirmed, model.OrderStatusPending)
}

// StartProcessing переводит заказ в сборку: CONFIRMED -> PROCESSING.
func (p *Processor) StartProcessing(id string) error {
	return p.transition(id, model.OrderStatusProcessing, model.OrderStatusConfirmed)
}

// Fulfill отправляет заказ: CONFIRMED/PROCESSING -> SHIPPED.
// Списывает зарезервированные остатки по каждой позиции.
func (p *Processor) Fulfill(id string) error {
	if err := p.transition(id, model.OrderStatusShipped, model.OrderStatusConfirmed, model.OrderStatusProcessing); err != nil {
		return err
	}

	o, err := p.Get(id)
	if err != nil {
		return err
	}
	for _, it := range o.Items {
		p.ledger.Fulfill(it.ProductID, it.Quantity)
	}

	p.logger.Info("fulfilled order", zap.String("order", id))
	return nil
}

// MarkDelivered завершает заказ: SHIPPED -> DELIVERED.
func (p *Processor) MarkDelivered(id string) error {
	return p.transition(id, model.OrderStatusDelivered, model.OrderStatusShipped)
}

// Cancel отменяет заказ из любого статуса до отправки и снимает резервы
// по его позициям. Повторная отмена и отмена доставленного заказа — no-op.
func (p *Processor) Cancel(id string) error {
	p.mu.Lock()
	o, ok := p.orders[id]
	if !ok {
		p.mu.Unlock()
		return ErrOrderNotFound
	}
	if o.Status.Terminal() {
		p.mu.Unlock()
		return nil
	}
	if o.Status == model.OrderStatusShipped {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, model.OrderStatusCancelled)
	}
	o.Status = model.OrderStatusCancelled
	o.UpdatedAt = p.clk.Now()
	items := copyOrder(o).Items
	p.mu.Unlock()

	for _, it := range items {
		p.ledger.Release(it.ProductID, it.Quantity)
	}

	p.logger.Info("cancelled order", zap.String("order", id))
	return nil
}

// Count возвращает число заказов.
func (p *Processor) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.orders)
}

// transition переводит заказ в статус next, если текущий статус входит в from.
func (p *Processor) transition(id string, next model.OrderStatus, from ...model.OrderStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.orders[id]
	if !ok {
		return ErrOrderNotFound
	}

	allowed := false
	for _, s := range from {
		if o.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}

	o.Status = next
	o.UpdatedAt = p.clk.Now()
	return nil
}

func copyOrder(o *model.Order) model.Order {
	cp := *o
	cp.Items = make([]model.OrderItem, len(o.Items))
	copy(cp.Items, o.Items)
	return cp
}
