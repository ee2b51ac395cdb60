// Package session реализует хранилище пользовательских сессий.
package session

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/shopsim-system/internal/clock"
	"github.com/mmeshcher/shopsim-system/internal/model"
)

// ErrSessionNotFound возвращается, если сессия отсутствует, недействительна или истекла.
var ErrSessionNotFound = errors.New("session not found")

// Store хранит активные сессии и, в режиме retainExpired, отдельную таблицу
// истёкших сессий. Истёкшие сессии переносятся туда при очистке и удаляются
// только отдельной операцией PurgeExpired по горизонту от времени создания.
// Такое удержание воспроизводит неограниченный рост памяти, ради которого
// существует симулятор; при retainExpired=false истёкшие сессии просто
// отбрасываются.
type Store struct {
	mu      sync.Mutex
	active  map[string]*model.Session
	expired map[string]*model.Session

	timeout       time.Duration
	purgeHorizon  time.Duration
	retainExpired bool

	clk    clock.Clock
	ids    io.Reader
	logger *zap.Logger
}

// Config задаёт параметры хранилища сессий.
type Config struct {
	Timeout       time.Duration
	PurgeHorizon  time.Duration
	RetainExpired bool
}

// NewStore создаёт хранилище сессий. Идентификаторы сессий порождаются
// из переданного источника случайных байтов.
func NewStore(cfg Config, clk clock.Clock, ids io.Reader, logger *zap.Logger) *Store {
	return &Store{
		active:        make(map[string]*model.Session),
		expired:       make(map[string]*model.Session),
		timeout:       cfg.Timeout,
		purgeHorizon:  cfg.PurgeHorizon,
		retainExpired: cfg.RetainExpired,
		clk:           clk,
		ids:           ids,
		logger:        logger,
	}
}

// Create создаёт новую сессию для пользователя и возвращает её идентификатор.
func (s *Store) Create(userID string) string {
	id := uuid.Must(uuid.NewRandomFromReader(s.ids)).String()
	now := s.clk.Now()

	s.mu.Lock()
	s.active[id] = model.NewSession(id, userID, now)
	s.mu.Unlock()

	s.logger.Debug("created session", zap.String("session", id), zap.String("user", userID))
	return id
}

// Get возвращает копию сессии, если она активна, действительна и не истекла.
// Успешное чтение обновляет время последнего обращения: сессия под нагрузкой
// не истекает посреди серии вызовов.
func (s *Store) Get(id string) (model.Session, error) {
	now := s.clk.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.lookupLocked(id, now)
	if sess == nil {
		return model.Session{}, ErrSessionNotFound
	}
	sess.Touch(now)
	return sess.Snapshot(), nil
}

// lookupLocked возвращает живую активную сессию или nil. Вызывается под s.mu.
func (s *Store) lookupLocked(id string, now time.Time) *model.Session {
	sess, ok := s.active[id]
	if !ok || !sess.Valid || sess.Expired(now, s.timeout) {
		return nil
	}
	return sess
}

// Invalidate удаляет сессию из активных и помечает недействительной.
// Повторный вызов и вызов для отсутствующего идентификатора безвредны.
func (s *Store) Invalidate(id string) {
	s.mu.Lock()
	sess, ok := s.active[id]
	if ok {
		delete(s.active, id)
		sess.Invalidate()
	}
	s.mu.Unlock()

	if ok {
		s.logger.Debug("invalidated session", zap.String("session", id))
	}
}

// AddToCart добавляет товар в корзину сессии. Для отсутствующей,
// недействительной или истёкшей сессии операция молча пропускается.
func (s *Store) AddToCart(id, productID string, quantity int) {
	now := s.clk.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess := s.lookupLocked(id, now); sess != nil {
		sess.AddToCart(productID, quantity, now)
	}
}

// RemoveFromCart убирает товар из корзины сессии; для отсутствующей сессии — no-op.
func (s *Store) RemoveFromCart(id, productID string) {
	now := s.clk.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess := s.lookupLocked(id, now); sess != nil {
		sess.RemoveFromCart(productID, now)
	}
}

// ClearCart очищает корзину сессии; для отсутствующей сессии — no-op.
func (s *Store) ClearCart(id string) {
	now := s.clk.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess := s.lookupLocked(id, now); sess != nil {
		sess.ClearCart(now)
	}
}

// SetAttribute сохраняет атрибут в сессии; для отсутствующей сессии — no-op.
func (s *Store) SetAttribute(id, key string, value any) {
	now := s.clk.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess := s.lookupLocked(id, now); sess != nil {
		sess.SetAttribute(key, value, now)
	}
}

// Cart возвращает копию корзины сессии; для отсутствующей сессии — пустую корзину.
func (s *Store) Cart(id string) map[string]int {
	sess, err := s.Get(id)
	if err != nil {
		return map[string]int{}
	}
	return sess.Cart
}

// SweepExpired находит истёкшие активные сессии, инвалидирует их и, в режиме
// retainExpired, переносит в таблицу истёкших. Возвращает число обработанных сессий.
func (s *Store) SweepExpired() int {
	now := s.clk.Now()

	s.mu.Lock()
	var swept []string
	for id, sess := range s.active {
		if sess.Expired(now, s.timeout) {
			swept = append(swept, id)
		}
	}
	for _, id := range swept {
		sess := s.active[id]
		delete(s.active, id)
		sess.Invalidate()
		if s.retainExpired {
			s.expired[id] = sess
		}
	}
	s.mu.Unlock()

	if len(swept) > 0 {
		s.logger.Debug("swept expired sessions", zap.Int("count", len(swept)))
	}
	return len(swept)
}

// PurgeExpired удаляет из таблицы истёкших сессии, созданные раньше горизонта
// очистки. Горизонт отсчитывается от времени создания, а не от момента
// истечения, поэтому при постоянной нагрузке таблица растёт гораздо быстрее,
// чем очищается. Возвращает число удалённых сессий.
func (s *Store) PurgeExpired() int {
	cutoff := s.clk.Now().Add(-s.purgeHorizon)

	s.mu.Lock()
	var purged int
	for id, sess := range s.expired {
		if sess.CreatedAt.Before(cutoff) {
			delete(s.expired, id)
			purged++
		}
	}
	s.mu.Unlock()

	if purged > 0 {
		s.logger.Info("purged old expired sessions", zap.Int("count", purged))
	}
	return purged
}

// ActiveCount возвращает число активных сессий.
func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// ExpiredCount возвращает размер таблицы истёкших сессий.
// При retainExpired=false всегда 0.
func (s *Store) ExpiredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expired)
}

// TotalCount возвращает суммарное число сессий в обеих таблицах.
func (s *Store) TotalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active) + len(s.expired)
}
