package order

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/shopsim-system/internal/clock"
	"github.com/mmeshcher/shopsim-system/internal/inventory"
	"github.com/mmeshcher/shopsim-system/internal/model"
	"github.com/mmeshcher/shopsim-system/internal/random"
)

func newTestProcessor() (*Processor, *inventory.Ledger) {
	ledger := inventory.NewLedger(zap.NewNop())
	clk := clock.NewFake(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewProcessor(ledger, clk, random.New(1), zap.NewNop()), ledger
}

func TestTotalRecomputedFromItems(t *testing.T) {
	p, _ := newTestProcessor()

	id := p.Create("USR-1")
	if err := p.AddItem(id, model.OrderItem{ProductID: "p1", Quantity: 2, Price: 10.0}); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	if err := p.AddItem(id, model.OrderItem{ProductID: "p2", Quantity: 1, Price: 5.0}); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}

	o, err := p.Get(id)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got := o.TotalAmount(); got != 25.0 {
		t.Fatalf("TotalAmount = %v, want 25.0", got)
	}

	if err := p.AddItem(id, model.OrderItem{ProductID: "p3", Quantity: 3, Price: 1.0}); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	o, _ = p.Get(id)
	if got := o.TotalAmount(); got != 28.0 {
		t.Fatalf("TotalAmount after third item = %v, want 28.0", got)
	}
}

func TestStatusLifecycle(t *testing.T) {
	p, _ := newTestProcessor()
	id := p.Create("USR-1")

	steps := []struct {
		name string
		fn   func(string) error
		want model.OrderStatus
	}{
		{"process", p.Process, model.OrderStatusConfirmed},
		{"start processing", p.StartProcessing, model.OrderStatusProcessing},
		{"fulfill", p.Fulfill, model.OrderStatusShipped},
		{"deliver", p.MarkDelivered, model.OrderStatusDelivered},
	}

	for _, step := range steps {
		if err := step.fn(id); err != nil {
			t.Fatalf("%s error: %v", step.name, err)
		}
		o, _ := p.Get(id)
		if o.Status != step.want {
			t.Fatalf("%s: status = %s, want %s", step.name, o.Status, step.want)
		}
	}
}

func TestIllegalTransitions(t *testing.T) {
	p, _ := newTestProcessor()
	id := p.Create("USR-1")

	if err := p.Fulfill(id); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Fulfill on pending order = %v, want ErrInvalidTransition", err)
	}
	if err := p.MarkDelivered(id); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("MarkDelivered on pending order = %v, want ErrInvalidTransition", err)
	}

	if err := p.Process(id); err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if err := p.Process(id); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("repeated Process = %v, want ErrInvalidTransition", err)
	}
}

func TestCancelReleasesReservations(t *testing.T) {
	p, ledger := newTestProcessor()
	ledger.AddStock("P1", 10)
	ledger.Reserve("P1", 4)

	id := p.Create("USR-1")
	_ = p.AddItem(id, model.OrderItem{ProductID: "P1", Quantity: 4, Price: 2.0})

	if err := p.Cancel(id); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}

	o, _ := p.Get(id)
	if o.Status != model.OrderStatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", o.Status)
	}
	if got := ledger.AvailableStock("P1"); got != 10 {
		t.Fatalf("AvailableStock after cancel = %d, want 10", got)
	}

	// Повторная отмена — no-op
	if err := p.Cancel(id); err != nil {
		t.Fatalf("repeated Cancel = %v, want nil", err)
	}
}

func TestCancelShippedOrderFails(t *testing.T) {
	p, _ := newTestProcessor()
	id := p.Create("USR-1")

	_ = p.Process(id)
	if err := p.Fulfill(id); err != nil {
		t.Fatalf("Fulfill error: %v", err)
	}

	if err := p.Cancel(id); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Cancel on shipped order = %v, want ErrInvalidTransition", err)
	}

	if err := p.MarkDelivered(id); err != nil {
		t.Fatalf("MarkDelivered error: %v", err)
	}
	if err := p.Cancel(id); err != nil {
		t.Fatalf("Cancel on delivered order = %v, want nil no-op", err)
	}
}

func TestFulfillConsumesReservedStock(t *testing.T) {
	p, ledger := newTestProcessor()
	ledger.AddStock("P1", 10)
	ledger.Reserve("P1", 3)

	id := p.Create("USR-1")
	_ = p.AddItem(id, model.OrderItem{ProductID: "P1", Quantity: 3, Price: 1.0})
	_ = p.Process(id)

	if err := p.Fulfill(id); err != nil {
		t.Fatalf("Fulfill error: %v", err)
	}
	if got := ledger.AvailableStock("P1"); got != 7 {
		t.Fatalf("AvailableStock after fulfill = %d, want 7", got)
	}
}

func TestCreateFromCart(t *testing.T) {
	p, _ := newTestProcessor()

	prices := map[string]float64{"P1": 10.0, "P2": 5.0}
	priceFor := func(productID string) (float64, bool) {
		price, ok := prices[productID]
		return price, ok
	}

	id, ok := p.CreateFromCart("USR-1", map[string]int{"P1": 2, "UNKNOWN": 1}, priceFor)
	if !ok {
		t.Fatalf("CreateFromCart failed")
	}

	o, err := p.Get(id)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if len(o.Items) != 1 || o.TotalAmount() != 20.0 {
		t.Fatalf("items=%d total=%v, want 1 item with total 20.0", len(o.Items), o.TotalAmount())
	}

	if _, ok := p.CreateFromCart("USR-1", map[string]int{}, priceFor); ok {
		t.Fatalf("CreateFromCart with empty cart must not create an order")
	}
}

func TestGetNotFound(t *testing.T) {
	p, _ := newTestProcessor()

	if _, err := p.Get("missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("Get = %v, want ErrOrderNotFound", err)
	}
	if err := p.Cancel("missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("Cancel = %v, want ErrOrderNotFound", err)
	}
}

func TestOrdersByUserReturnsCopies(t *testing.T) {
	p, _ := newTestProcessor()

	id := p.Create("USR-1")
	_ = p.AddItem(id, model.OrderItem{ProductID: "P1", Quantity: 1, Price: 1.0})
	p.Create("USR-2")

	orders := p.OrdersByUser("USR-1")
	if len(orders) != 1 {
		t.Fatalf("OrdersByUser = %d orders, want 1", len(orders))
	}

	orders[0].Items[0].Quantity = 99
	o, _ := p.Get(id)
	if o.Items[0].Quantity != 1 {
		t.Fatalf("mutating returned order changed store state")
	}
}
