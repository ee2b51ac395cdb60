// Package user реализует потокобезопасный реестр пользователей.
package user

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/shopsim-system/internal/clock"
	"github.com/mmeshcher/shopsim-system/internal/model"
)

// ErrUserExists возвращается при попытке зарегистрировать пользователя с занятым email.
var ErrUserExists = errors.New("user already exists")

// Registry хранит пользователей с доступом по email и по идентификатору.
// Методы чтения возвращают копии; отсутствие пользователя — штатная ветка.
type Registry struct {
	mu      sync.RWMutex
	byEmail map[string]*model.User
	byID    map[string]*model.User

	clk    clock.Clock
	logger *zap.Logger
}

// NewRegistry создаёт пустой реестр пользователей.
func NewRegistry(clk clock.Clock, logger *zap.Logger) *Registry {
	return &Registry{
		byEmail: make(map[string]*model.User),
		byID:    make(map[string]*model.User),
		clk:     clk,
		logger:  logger,
	}
}

// Register добавляет нового пользователя. Email должен быть уникален.
func (r *Registry) Register(u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return fmt.Errorf("%w: %s", ErrUserExists, u.Email)
	}

	cp := u
	cp.Active = true
	cp.CreatedAt = r.clk.Now()
	r.byEmail[cp.Email] = &cp
	r.byID[cp.ID] = &cp

	r.logger.Debug("registered user", zap.String("user", cp.ID), zap.String("email", cp.Email))
	return nil
}

// ByEmail возвращает копию пользователя по email, отмечая время входа.
func (r *Registry) ByEmail(email string) (model.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byEmail[email]
	if !ok {
		return model.User{}, false
	}
	u.LastLoginAt = r.clk.Now()
	return *u, true
}

// ByID возвращает копию пользователя по идентификатору.
func (r *Registry) ByID(id string) (model.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return model.User{}, false
	}
	return *u, true
}

// Deactivate отключает пользователя; для отсутствующего email — no-op.
func (r *Registry) Deactivate(email string) {
	r.mu.Lock()
	u, ok := r.byEmail[email]
	if ok {
		u.Active = false
	}
	r.mu.Unlock()

	if ok {
		r.logger.Info("deactivated user", zap.String("email", email))
	}
}

// Count возвращает число зарегистрированных пользователей.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byEmail)
}
