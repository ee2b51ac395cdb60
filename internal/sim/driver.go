// Package sim реализует драйвер симуляции: фоновые задачи и цикл действий пользователей.
package sim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/shopsim-system/internal/analytics"
	"github.com/mmeshcher/shopsim-system/internal/catalog"
	"github.com/mmeshcher/shopsim-system/internal/inventory"
	"github.com/mmeshcher/shopsim-system/internal/model"
	"github.com/mmeshcher/shopsim-system/internal/notification"
	"github.com/mmeshcher/shopsim-system/internal/order"
	"github.com/mmeshcher/shopsim-system/internal/random"
	"github.com/mmeshcher/shopsim-system/internal/session"
	"github.com/mmeshcher/shopsim-system/internal/user"
)

const (
	sampleProducts = 1000
	sampleUsers    = 500
)

// Driver связывает компоненты симулятора: периодические задачи мутируют
// общее состояние через планировщик, а цикл Run имитирует синхронные
// действия пользователей из собственной горутины. Всё ветвление управляется
// внедрённым источником случайности.
type Driver struct {
	users         *user.Registry
	catalog       *catalog.Catalog
	sessions      *session.Store
	ledger        *inventory.Ledger
	orders        *order.Processor
	notifications *notification.Queue
	stats         *analytics.Aggregator

	rnd    *random.Rand
	logger *zap.Logger

	batchSize int
}

// Config задаёт параметры драйвера симуляции.
type Config struct {
	NotificationBatch int
}

// NewDriver создаёт драйвер поверх сконструированных компонентов.
func NewDriver(
	cfg Config,
	users *user.Registry,
	cat *catalog.Catalog,
	sessions *session.Store,
	ledger *inventory.Ledger,
	orders *order.Processor,
	notifications *notification.Queue,
	stats *analytics.Aggregator,
	rnd *random.Rand,
	logger *zap.Logger,
) *Driver {
	batch := cfg.NotificationBatch
	if batch <= 0 {
		batch = 10
	}
	return &Driver{
		users:         users,
		catalog:       cat,
		sessions:      sessions,
		ledger:        ledger,
		orders:        orders,
		notifications: notifications,
		stats:         stats,
		rnd:           rnd,
		logger:        logger,
		batchSize:     batch,
	}
}

// SeedSampleData наполняет каталог, склад и реестр пользователей стартовыми данными.
func (d *Driver) SeedSampleData() {
	for i := 1; i <= sampleProducts; i++ {
		p := model.Product{
			ID:          fmt.Sprintf("PROD-%d", i),
			Name:        fmt.Sprintf("Product %d", i),
			Description: fmt.Sprintf("Description for product %d", i),
			Price:       19.99 + float64(i%100),
			Category:    fmt.Sprintf("Category %d", i%10),
			Active:      true,
		}
		d.catalog.Add(p)
		d.ledger.AddStock(p.ID, 100+d.rnd.Intn(500))
	}

	for i := 1; i <= sampleUsers; i++ {
		_ = d.users.Register(model.User{
			ID:    fmt.Sprintf("USR-%d", i),
			Email: fmt.Sprintf("user%d@example.com", i),
			Name:  fmt.Sprintf("User %d", i),
		})
	}

	d.logger.Info("sample data initialized",
		zap.Int("products", sampleProducts),
		zap.Int("users", sampleUsers))
}

// Run выполняет основной цикл симуляции до отмены контекста: регистрация
// новых пользователей, просмотр каталога, оформление заказов и обращения
// в поддержку.
func (d *Driver) Run(ctx context.Context) {
	d.logger.Info("simulation loop started")

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("simulation loop stopped")
			return
		case <-ticker.C:
			d.step()
		}
	}
}

// step выполняет одну итерацию цикла симуляции.
func (d *Driver) step() {
	d.simulateRegistration()
	d.simulateBrowsing()
	d.simulateOrderPlacement()
	d.simulateSupportRequest()
}

func (d *Driver) randomEmail() string {
	return fmt.Sprintf("user%d@example.com", 1+d.rnd.Intn(sampleUsers))
}

func (d *Driver) randomProductID() string {
	return fmt.Sprintf("PROD-%d", 1+d.rnd.Intn(sampleProducts))
}

func (d *Driver) simulateRegistration() {
	if d.rnd.Float64() >= 0.05 {
		return
	}

	n := 1000 + d.rnd.Intn(10000)
	u := model.User{
		ID:    fmt.Sprintf("USR-NEW-%d", n),
		Email: fmt.Sprintf("newuser%d@example.com", n),
		Name:  fmt.Sprintf("New User %d", n),
	}
	if err := d.users.Register(u); err != nil {
		return
	}
	d.notifications.EnqueueWelcome(u)
}

func (d *Driver) simulateBrowsing() {
	if d.rnd.Float64() >= 0.8 {
		return
	}

	category := fmt.Sprintf("Category %d", d.rnd.Intn(10))
	products := d.catalog.ByCategory(category)
	if len(products) == 0 || d.rnd.Float64() >= 0.6 {
		return
	}

	p := products[d.rnd.Intn(len(products))]
	u, ok := d.users.ByEmail(d.randomEmail())
	if !ok {
		return
	}
	d.stats.TrackView(u.ID, p.ID)
}

func (d *Driver) simulateOrderPlacement() {
	if d.rnd.Float64() >= 0.1 {
		return
	}

	u, ok := d.users.ByEmail(d.randomEmail())
	if !ok {
		return
	}

	id := d.orders.Create(u.ID)
	itemCount := 1 + d.rnd.Intn(5)
	added := 0
	for i := 0; i < itemCount; i++ {
		productID := d.randomProductID()
		p, ok := d.catalog.Get(productID)
		if !ok || !d.ledger.InStock(productID) {
			continue
		}
		quantity := 1 + d.rnd.Intn(3)
		if !d.ledger.Reserve(productID, quantity) {
			continue
		}
		if err := d.orders.AddItem(id, model.OrderItem{ProductID: productID, Quantity: quantity, Price: p.Price}); err != nil {
			d.ledger.Release(productID, quantity)
			continue
		}
		added++
	}

	if added == 0 {
		_ = d.orders.Cancel(id)
		return
	}

	if err := d.orders.Process(id); err != nil {
		return
	}
	o, err := d.orders.Get(id)
	if err != nil {
		return
	}
	d.notifications.EnqueueOrderConfirmation(u.ID, o)
	d.stats.TrackPurchase(u.ID, o.TotalAmount())
}

func (d *Driver) simulateSupportRequest() {
	if d.rnd.Float64() >= 0.02 {
		return
	}

	u, ok := d.users.ByEmail(d.randomEmail())
	if !ok {
		return
	}
	d.notifications.EnqueueSupportTicket(u.ID, "Support issue from "+u.Name)
}
