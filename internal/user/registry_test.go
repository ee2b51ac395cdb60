package user

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/shopsim-system/internal/clock"
	"github.com/mmeshcher/shopsim-system/internal/model"
)

func newTestRegistry() *Registry {
	clk := clock.NewFake(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewRegistry(clk, zap.NewNop())
}

func TestRegisterAndLookup(t *testing.T) {
	r := newTestRegistry()

	err := r.Register(model.User{ID: "USR-1", Email: "u1@example.com", Name: "User 1"})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if _, ok := r.ByEmail("u1@example.com"); !ok {
		t.Fatalf("ByEmail did not find registered user")
	}
	if _, ok := r.ByID("USR-1"); !ok {
		t.Fatalf("ByID did not find registered user")
	}
	if _, ok := r.ByEmail("missing@example.com"); ok {
		t.Fatalf("ByEmail found absent user")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r := newTestRegistry()

	_ = r.Register(model.User{ID: "USR-1", Email: "u1@example.com"})
	err := r.Register(model.User{ID: "USR-2", Email: "u1@example.com"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("Register duplicate = %v, want ErrUserExists", err)
	}
	if got := r.Count(); got != 1 {
		t.Fatalf("Count = %d, want 1", got)
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	r := newTestRegistry()
	_ = r.Register(model.User{ID: "USR-1", Email: "u1@example.com", Name: "User 1"})

	u, _ := r.ByID("USR-1")
	u.Name = "mutated"

	again, _ := r.ByID("USR-1")
	if again.Name != "User 1" {
		t.Fatalf("mutating returned user changed registry state")
	}
}
