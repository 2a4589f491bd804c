package health

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// mockPinger implements Pinger for tests.
type mockPinger struct {
	pingErr error
	calls   int
}

func (m *mockPinger) PingContext(context.Context) error {
	m.calls++
	return m.pingErr
}

func TestCheck_NoStores(t *testing.T) {
	if err := NewChecker("validator").Check(context.Background()); err != nil {
		t.Errorf("Check = %v, want nil", err)
	}
	var nilChecker *Checker
	if err := nilChecker.Check(context.Background()); err != nil {
		t.Errorf("nil Check = %v, want nil", err)
	}
}

func TestCheck_AllReachable(t *testing.T) {
	holding, dlq := &mockPinger{}, &mockPinger{}
	c := NewChecker("validator").Add("holding", holding).Add("dlq", dlq)

	if err := c.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if holding.calls != 1 || dlq.calls != 1 {
		t.Errorf("pings = %d, %d; want 1 each", holding.calls, dlq.calls)
	}
}

func TestCheck_ReportsEveryFailure(t *testing.T) {
	c := NewChecker("replicator").
		Add("holding", &mockPinger{pingErr: errors.New("connection refused")}).
		Add("main", &mockPinger{}).
		Add("dlq", &mockPinger{pingErr: errors.New("timeout")})

	err := c.Check(context.Background())
	if err == nil {
		t.Fatal("Check should fail")
	}
	msg := err.Error()
	for _, want := range []string{"holding store: connection refused", "dlq store: timeout"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q should contain %q", msg, want)
		}
	}
	if strings.Contains(msg, "main store") {
		t.Errorf("error %q should not mention the healthy store", msg)
	}
}

func TestAdd_SkipsNil(t *testing.T) {
	c := NewChecker("intake").Add("holding", nil)
	if len(c.stores) != 0 {
		t.Errorf("stores = %d, want 0", len(c.stores))
	}
	if c.Service() != "intake" {
		t.Errorf("Service = %q", c.Service())
	}
}
