// Package catalog реализует потокобезопасный каталог товаров.
package catalog

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/shopsim-system/internal/model"
)

// Catalog хранит товары с индексом по категориям. Все методы возвращают
// копии: снаружи внутреннее состояние каталога изменить нельзя.
// Отсутствие товара — штатная ветка для вызывающего, не ошибка.
type Catalog struct {
	mu         sync.RWMutex
	products   map[string]*model.Product
	byCategory map[string][]string

	logger *zap.Logger
}

// New создаёт пустой каталог.
func New(logger *zap.Logger) *Catalog {
	return &Catalog{
		products:   make(map[string]*model.Product),
		byCategory: make(map[string][]string),
		logger:     logger,
	}
}

// Add добавляет товар в каталог и индекс категорий.
func (c *Catalog) Add(p model.Product) {
	c.mu.Lock()
	cp := p
	c.products[p.ID] = &cp
	c.byCategory[p.Category] = append(c.byCategory[p.Category], p.ID)
	c.mu.Unlock()

	c.logger.Debug("added product", zap.String("product", p.ID))
}

// Get возвращает копию товара и признак его наличия.
func (c *Catalog) Get(id string) (model.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	if !ok {
		return model.Product{}, false
	}
	return *p, true
}

// ByCategory возвращает активные товары указанной категории.
func (c *Catalog) ByCategory(category string) []model.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var res []model.Product
	for _, id := range c.byCategory[category] {
		if p, ok := c.products[id]; ok && p.Active {
			res = append(res, *p)
		}
	}
	return res
}

// Search возвращает активные товары, в названии или описании которых
// встречается запрос (без учёта регистра).
func (c *Catalog) Search(query string) []model.Product {
	query = strings.ToLower(query)

	c.mu.RLock()
	defer c.mu.RUnlock()

	var res []model.Product
	for _, p := range c.products {
		if !p.Active {
			continue
		}
		if strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.Description), query) {
			res = append(res, *p)
		}
	}
	return res
}

// Deactivate снимает товар с продажи; для отсутствующего товара — no-op.
func (c *Catalog) Deactivate(id string) {
	c.mu.Lock()
	p, ok := c.products[id]
	if ok {
		p.Active = false
	}
	c.mu.Unlock()

	if ok {
		c.logger.Info("deactivated product", zap.String("product", id))
	}
}

// Count возвращает число товаров в каталоге.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}
