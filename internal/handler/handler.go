// Package handler содержит HTTP-обработчики API статистики симулятора.
package handler

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"

	"go.uber.org/zap"

	"github.com/mmeshcher/shopsim-system/internal/analytics"
)

// SessionStats определяет счётчики хранилища сессий, доступные через API.
type SessionStats interface {
	ActiveCount() int
	ExpiredCount() int
	TotalCount() int
}

// InventoryStats определяет доступ к статистике склада.
type InventoryStats interface {
	ProductCount() int
	LowStockProducts(threshold int) []string
}

// NotificationStats определяет счётчики очереди уведомлений.
type NotificationStats interface {
	PendingCount() int
	SentCount() int
	DroppedCount() int
}

// AnalyticsStats определяет доступ к агрегированной аналитике.
type AnalyticsStats interface {
	TopProducts(n int) []analytics.Entry[int]
	TopSpenders(n int) []analytics.Entry[float64]
	TotalViews() int
	UniqueViewers() int
	TotalRevenue() float64
}

// Counter определяет компонент, сообщающий размер своего хранилища.
type Counter interface {
	Count() int
}

// Handler реализует HTTP-обработчики API статистики.
type Handler struct {
	sessions      SessionStats
	inventory     InventoryStats
	notifications NotificationStats
	stats         AnalyticsStats
	orders        Counter
	users         Counter
	products      Counter
	logger        *zap.Logger
}

// NewHandler создаёт обработчик поверх компонентов симулятора.
func NewHandler(
	sessions SessionStats,
	inventory InventoryStats,
	notifications NotificationStats,
	stats AnalyticsStats,
	orders, users, products Counter,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		sessions:      sessions,
		inventory:     inventory,
		notifications: notifications,
		stats:         stats,
		orders:        orders,
		users:         users,
		products:      products,
		logger:        logger,
	}
}

type overviewResponse struct {
	Users                int     `json:"users"`
	Products             int     `json:"products"`
	Orders               int     `json:"orders"`
	ActiveSessions       int     `json:"active_sessions"`
	ExpiredSessions      int     `json:"expired_sessions"`
	TotalSessions        int     `json:"total_sessions"`
	PendingNotifications int     `json:"pending_notifications"`
	SentNotifications    int     `json:"sent_notifications"`
	DroppedNotifications int     `json:"dropped_notifications"`
	TotalViews           int     `json:"total_views"`
	UniqueViewers        int     `json:"unique_viewers"`
	TotalRevenue         float64 `json:"total_revenue"`
	HeapAllocBytes       uint64  `json:"heap_alloc_bytes"`
	NumGC                uint32  `json:"num_gc"`
}

// Overview возвращает сводку по всем компонентам и памяти процесса.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	h.writeJSON(w, overviewResponse{
		Users:                h.users.Count(),
		Products:             h.products.Count(),
		Orders:               h.orders.Count(),
		ActiveSessions:       h.sessions.ActiveCount(),
		ExpiredSessions:      h.sessions.ExpiredCount(),
		TotalSessions:        h.sessions.TotalCount(),
		PendingNotifications: h.notifications.PendingCount(),
		SentNotifications:    h.notifications.SentCount(),
		DroppedNotifications: h.notifications.DroppedCount(),
		TotalViews:           h.stats.TotalViews(),
		UniqueViewers:        h.stats.UniqueViewers(),
		TotalRevenue:         h.stats.TotalRevenue(),
		HeapAllocBytes:       m.HeapAlloc,
		NumGC:                m.NumGC,
	})
}

// TopProducts возвращает товары по убыванию числа просмотров.
func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.stats.TopProducts(limitParam(r, 10)))
}

// TopSpenders возвращает пользователей по убыванию суммы покупок.
func (h *Handler) TopSpenders(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.stats.TopSpenders(limitParam(r, 10)))
}

type lowStockResponse struct {
	Threshold int      `json:"threshold"`
	Products  []string `json:"products"`
}

// LowStock возвращает товары с доступным остатком не выше порога.
func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	threshold := 10
	if v := r.URL.Query().Get("threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		threshold = n
	}

	products := h.inventory.LowStockProducts(threshold)
	if products == nil {
		products = []string{}
	}
	h.writeJSON(w, lowStockResponse{Threshold: threshold, Products: products})
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func limitParam(r *http.Request, def int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
