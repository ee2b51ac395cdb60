// Package analytics реализует счётчики просмотров, покупок и почасовую статистику.
package analytics

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/shopsim-system/internal/clock"
)

// hourLayout — формат метки почасовой корзины; метки сравниваются лексикографически.
const hourLayout = "2006-01-02-15"

// Aggregator накапливает просмотры товаров, суммы покупок по пользователям,
// историю просмотров каждого пользователя и почасовые счётчики. История
// просмотров не ограничена и растёт всё время жизни пользователя; почасовые
// корзины удаляются только явным вызовом PruneOlderThan.
type Aggregator struct {
	mu            sync.Mutex
	productViews  map[string]int
	userPurchases map[string]float64
	userViews     map[string][]string
	hourlyViews   map[string]int

	clk    clock.Clock
	logger *zap.Logger
}

// Entry — пара ключ-значение в результатах ранжирования.
type Entry[V int | float64] struct {
	Key   string
	Value V
}

// NewAggregator создаёт пустой агрегатор.
func NewAggregator(clk clock.Clock, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		productViews:  make(map[string]int),
		userPurchases: make(map[string]float64),
		userViews:     make(map[string][]string),
		hourlyViews:   make(map[string]int),
		clk:           clk,
		logger:        logger,
	}
}

// TrackView учитывает просмотр товара: счётчик товара, история пользователя
// и корзина текущего часа.
func (a *Aggregator) TrackView(userID, productID string) {
	hour := a.clk.Now().Format(hourLayout)

	a.mu.Lock()
	a.productViews[productID]++
	a.userViews[userID] = append(a.userViews[userID], productID)
	a.hourlyViews[hour]++
	a.mu.Unlock()

	a.logger.Debug("tracked product view", zap.String("user", userID), zap.String("product", productID))
}

// TrackPurchase добавляет сумму покупки к накопленному итогу пользователя.
func (a *Aggregator) TrackPurchase(userID string, amount float64) {
	a.mu.Lock()
	a.userPurchases[userID] += amount
	a.mu.Unlock()

	a.logger.Debug("tracked purchase", zap.String("user", userID), zap.Float64("amount", amount))
}

// TopProducts возвращает до n товаров по убыванию числа просмотров.
// При равных значениях порядок определяется возрастанием идентификатора.
func (a *Aggregator) TopProducts(n int) []Entry[int] {
	a.mu.Lock()
	entries := make([]Entry[int], 0, len(a.productViews))
	for k, v := range a.productViews {
		entries = append(entries, Entry[int]{Key: k, Value: v})
	}
	a.mu.Unlock()

	return topN(entries, n)
}

// TopSpenders возвращает до n пользователей по убыванию суммы покупок.
// При равных значениях порядок определяется возрастанием идентификатора.
func (a *Aggregator) TopSpenders(n int) []Entry[float64] {
	a.mu.Lock()
	entries := make([]Entry[float64], 0, len(a.userPurchases))
	for k, v := range a.userPurchases {
		entries = append(entries, Entry[float64]{Key: k, Value: v})
	}
	a.mu.Unlock()

	return topN(entries, n)
}

func topN[V int | float64](entries []Entry[V], n int) []Entry[V] {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Key < entries[j].Key
	})
	if n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// PruneOlderThan удаляет почасовые корзины, метка которых лексикографически
// меньше метки момента now-age. Возвращает число удалённых корзин.
func (a *Aggregator) PruneOlderThan(age time.Duration) int {
	cutoff := a.clk.Now().Add(-age).Format(hourLayout)

	a.mu.Lock()
	var pruned int
	for hour := range a.hourlyViews {
		if hour < cutoff {
			delete(a.hourlyViews, hour)
			pruned++
		}
	}
	a.mu.Unlock()

	if pruned > 0 {
		a.logger.Info("pruned hourly analytics", zap.Int("buckets", pruned))
	}
	return pruned
}

// CurrentHourViews возвращает число просмотров в корзине текущего часа.
func (a *Aggregator) CurrentHourViews() int {
	hour := a.clk.Now().Format(hourLayout)

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hourlyViews[hour]
}

// TotalViews возвращает суммарное число просмотров по всем товарам.
func (a *Aggregator) TotalViews() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	var total int
	for _, v := range a.productViews {
		total += v
	}
	return total
}

// UniqueViewers возвращает число пользователей с хотя бы одним просмотром.
func (a *Aggregator) UniqueViewers() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.userViews)
}

// TotalRevenue возвращает суммарную выручку по всем пользователям.
func (a *Aggregator) TotalRevenue() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	var total float64
	for _, v := range a.userPurchases {
		total += v
	}
	return total
}
