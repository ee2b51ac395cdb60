package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/mmeshcher/shopsim-system/internal/analytics"
)

type stubSessions struct {
	active, expired int
}

func (s *stubSessions) ActiveCount() int  { return s.active }
func (s *stubSessions) ExpiredCount() int { return s.expired }
func (s *stubSessions) TotalCount() int   { return s.active + s.expired }

type stubInventory struct {
	products int
	lowStock []string
}

func (s *stubInventory) ProductCount() int { return s.products }

func (s *stubInventory) LowStockProducts(threshold int) []string { return s.lowStock }

type stubNotifications struct {
	pending, sent, dropped int
}

func (s *stubNotifications) PendingCount() int { return s.pending }
func (s *stubNotifications) SentCount() int    { return s.sent }
func (s *stubNotifications) DroppedCount() int { return s.dropped }

type stubAnalytics struct {
	topProducts []analytics.Entry[int]
	topSpenders []analytics.Entry[float64]
}

func (s *stubAnalytics) TopProducts(n int) []analytics.Entry[int] {
	if n < len(s.topProducts) {
		return s.topProducts[:n]
	}
	return s.topProducts
}

func (s *stubAnalytics) TopSpenders(n int) []analytics.Entry[float64] { return s.topSpenders }
func (s *stubAnalytics) TotalViews() int                              { return 12 }
func (s *stubAnalytics) UniqueViewers() int                           { return 3 }
func (s *stubAnalytics) TotalRevenue() float64                        { return 99.5 }

type stubCounter int

func (s stubCounter) Count() int { return int(s) }

func newTestHandler() *Handler {
	return NewHandler(
		&stubSessions{active: 5, expired: 2},
		&stubInventory{products: 10, lowStock: []string{"P1"}},
		&stubNotifications{pending: 4, sent: 20, dropped: 1},
		&stubAnalytics{
			topProducts: []analytics.Entry[int]{{Key: "P1", Value: 7}, {Key: "P2", Value: 3}},
			topSpenders: []analytics.Entry[float64]{{Key: "U1", Value: 50.0}},
		},
		stubCounter(8), stubCounter(100), stubCounter(10),
		zap.NewNop(),
	)
}

func TestOverview(t *testing.T) {
	router := newTestHandler().SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/stats/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp overviewResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ActiveSessions != 5 || resp.ExpiredSessions != 2 || resp.TotalSessions != 7 {
		t.Fatalf("session counts = %d/%d/%d, want 5/2/7",
			resp.ActiveSessions, resp.ExpiredSessions, resp.TotalSessions)
	}
	if resp.Orders != 8 || resp.Users != 100 || resp.Products != 10 {
		t.Fatalf("unexpected counts: %+v", resp)
	}
}

func TestTopProductsLimit(t *testing.T) {
	router := newTestHandler().SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/stats/top-products?limit=1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var entries []analytics.Entry[int]
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(entries) != 1 || entries[0].Key != "P1" {
		t.Fatalf("entries = %v, want single P1", entries)
	}
}

func TestLowStockBadThreshold(t *testing.T) {
	router := newTestHandler().SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/stats/low-stock?threshold=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	router := newTestHandler().SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
