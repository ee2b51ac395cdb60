package model

import "time"

// Session представляет пользовательскую сессию с корзиной и атрибутами.
// Время передаётся параметром: сущность не обращается к часам напрямую.
type Session struct {
	ID             string
	UserID         string
	CreatedAt      time.Time
	LastAccessedAt time.Time
	Cart           map[string]int
	Attributes     map[string]any
	Valid          bool
}

// NewSession создаёт действительную сессию с пустой корзиной.
func NewSession(id, userID string, now time.Time) *Session {
	return &Session{
		ID:             id,
		UserID:         userID,
		CreatedAt:      now,
		LastAccessedAt: now,
		Cart:           make(map[string]int),
		Attributes:     make(map[string]any),
		Valid:          true,
	}
}

// Touch обновляет время последнего обращения.
func (s *Session) Touch(now time.Time) {
	s.LastAccessedAt = now
}

// Expired сообщает, истекла ли сессия: с последнего обращения прошло больше timeout.
func (s *Session) Expired(now time.Time, timeout time.Duration) bool {
	return s.LastAccessedAt.Before(now.Add(-timeout))
}

// AddToCart добавляет товар в корзину; количества по одному товару суммируются.
func (s *Session) AddToCart(productID string, quantity int, now time.Time) {
	s.Touch(now)
	s.Cart[productID] += quantity
}

// RemoveFromCart убирает товар из корзины.
func (s *Session) RemoveFromCart(productID string, now time.Time) {
	s.Touch(now)
	delete(s.Cart, productID)
}

// ClearCart очищает корзину.
func (s *Session) ClearCart(now time.Time) {
	s.Touch(now)
	s.Cart = make(map[string]int)
}

// SetAttribute сохраняет произвольный атрибут сессии.
func (s *Session) SetAttribute(key string, value any, now time.Time) {
	s.Touch(now)
	s.Attributes[key] = value
}

// Invalidate помечает сессию недействительной и освобождает корзину и атрибуты.
func (s *Session) Invalidate() {
	s.Valid = false
	s.Cart = make(map[string]int)
	s.Attributes = make(map[string]any)
}

// Snapshot возвращает независимую копию сессии: изменения копии
// не затрагивают внутреннее состояние хранилища.
func (s *Session) Snapshot() Session {
	cp := *s
	cp.Cart = make(map[string]int, len(s.Cart))
	for k, v := range s.Cart {
		cp.Cart[k] = v
	}
	cp.Attributes = make(map[string]any, len(s.Attributes))
	for k, v := range s.Attributes {
		cp.Attributes[k] = v
	}
	return cp
}
