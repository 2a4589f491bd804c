package handler

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"sales-pipeline/internal/health"
)

// mockPinger implements health.Pinger for tests.
type mockPinger struct {
	pingErr error
}

func (m *mockPinger) PingContext(context.Context) error {
	return m.pingErr
}

func TestCheck_NilChecker(t *testing.T) {
	srv := NewServer(nil)
	resp, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", resp.GetStatus())
	}
}

func TestCheck_PingerSuccess(t *testing.T) {
	srv := NewServer(health.NewChecker("validator").Add("holding", &mockPinger{}))
	for _, svc := range []string{"", "validator"} {
		resp, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{Service: svc})
		if err != nil {
			t.Fatalf("Check(%q): %v", svc, err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Errorf("Check(%q) status = %v, want SERVING", svc, resp.GetStatus())
		}
	}
}

func TestCheck_PingerFailure(t *testing.T) {
	srv := NewServer(health.NewChecker("validator").
		Add("holding", &mockPinger{}).
		Add("dlq", &mockPinger{pingErr: errors.New("connection refused")}))
	resp, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Check must not return gRPC error on ping failure: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status = %v, want NOT_SERVING", resp.GetStatus())
	}
}

func TestCheck_UnknownService(t *testing.T) {
	srv := NewServer(health.NewChecker("validator"))
	_, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "replicator"})
	if status.Code(err) != codes.NotFound {
		t.Errorf("code = %v, want NotFound", status.Code(err))
	}
}
