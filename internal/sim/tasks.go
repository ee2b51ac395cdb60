package sim

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/shopsim-system/internal/model"
	"github.com/mmeshcher/shopsim-system/internal/scheduler"
)

const analyticsRetention = 24 * time.Hour

// RegisterTasks регистрирует периодические задачи симулятора в оркестраторе.
// Каждая задача читает и мутирует общее состояние только через методы
// компонентов и безопасна при наложении запусков.
func (d *Driver) RegisterTasks(o *scheduler.Orchestrator) {
	o.Schedule("user-activity", 0, 50*time.Millisecond, d.userActivityTask)
	o.Schedule("order-processing", 0, 200*time.Millisecond, d.orderProcessingTask)
	o.Schedule("inventory-management", 0, 500*time.Millisecond, d.inventoryTask)
	o.Schedule("analytics", 0, time.Second, d.analyticsTask)
	o.Schedule("session-cleanup", 0, 500*time.Millisecond, d.sessionCleanupTask)
	o.Schedule("notifications", 0, 300*time.Millisecond, d.notificationsTask)
	o.Schedule("stats-report", 5*time.Second, 5*time.Second, d.statsReportTask)
}

// userActivityTask имитирует вход пользователя и активность внутри сессии.
func (d *Driver) userActivityTask(ctx context.Context) {
	if d.rnd.Float64() >= 0.8 {
		return
	}

	u, ok := d.users.ByEmail(d.randomEmail())
	if !ok {
		return
	}

	sessionID := d.sessions.Create(u.ID)

	// Просмотры товаров в рамках сессии
	views := 1 + d.rnd.Intn(10)
	for i := 0; i < views; i++ {
		if p, ok := d.catalog.Get(d.randomProductID()); ok {
			d.stats.TrackView(u.ID, p.ID)
		}
	}

	if d.rnd.Float64() < 0.4 {
		d.sessions.AddToCart(sessionID, d.randomProductID(), 1+d.rnd.Intn(3))
	}

	if d.rnd.Float64() < 0.2 {
		cart := d.sessions.Cart(sessionID)
		d.orders.CreateFromCart(u.ID, cart, func(productID string) (float64, bool) {
			p, ok := d.catalog.Get(productID)
			return p.Price, ok
		})
	}

	if d.rnd.Float64() < 0.1 {
		d.sessions.Invalidate(sessionID)
	}
}

// orderProcessingTask отправляет часть подтверждённых заказов.
func (d *Driver) orderProcessingTask(ctx context.Context) {
	for _, o := range d.orders.PendingOrders() {
		if d.rnd.Float64() >= 0.3 {
			continue
		}
		if o.Status != model.OrderStatusConfirmed {
			continue
		}
		if err := d.orders.Fulfill(o.ID); err != nil {
			continue
		}
		if u, ok := d.users.ByID(o.UserID); ok {
			d.notifications.EnqueueShippingUpdate(u.ID, o.ID)
		}
	}
}

// inventoryTask пополняет заканчивающиеся товары.
func (d *Driver) inventoryTask(ctx context.Context) {
	for _, productID := range d.ledger.LowStockProducts(10) {
		restock := 50 + d.rnd.Intn(200)
		d.ledger.AddStock(productID, restock)
	}
}

// analyticsTask пишет сводку по аналитике и удаляет устаревшие почасовые корзины.
func (d *Driver) analyticsTask(ctx context.Context) {
	if views := d.stats.CurrentHourViews(); views > 0 {
		d.logger.Info("hourly report", zap.Int("views", views))
	}
	d.stats.PruneOlderThan(analyticsRetention)
}

// sessionCleanupTask переносит истёкшие сессии и запускает очистку старых.
func (d *Driver) sessionCleanupTask(ctx context.Context) {
	if swept := d.sessions.SweepExpired(); swept > 0 {
		d.logger.Debug("cleaned up expired sessions", zap.Int("count", swept))
	}
	d.sessions.PurgeExpired()
}

// notificationsTask выполняет очередную партию попыток доставки уведомлений.
func (d *Driver) notificationsTask(ctx context.Context) {
	d.notifications.DrainBatch(d.batchSize)
}

// statsReportTask пишет в журнал состояние памяти и размеры хранилищ.
func (d *Driver) statsReportTask(ctx context.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	d.logger.Info("memory stats",
		zap.Uint64("heap_alloc_mb", m.HeapAlloc/(1024*1024)),
		zap.Uint64("heap_sys_mb", m.HeapSys/(1024*1024)),
		zap.Uint32("num_gc", m.NumGC),
		zap.Int("users", d.users.Count()),
		zap.Int("products", d.catalog.Count()),
		zap.Int("orders", d.orders.Count()),
		zap.Int("active_sessions", d.sessions.ActiveCount()),
		zap.Int("expired_sessions", d.sessions.ExpiredCount()),
		zap.Int("pending_notifications", d.notifications.PendingCount()))
}
