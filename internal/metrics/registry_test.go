package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jpalmerr/relay/internal/events"
)

func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return string(body)
}

func TestRegistry_ObservesBus(t *testing.T) {
	reg := NewRegistry()
	bus := events.NewBus(events.WithObserver(reg), events.WithBufferSize(1))

	fast := bus.Messages.Subscribe(context.Background())
	defer fast.Close()
	slow := bus.Messages.Subscribe(context.Background())
	defer slow.Close()

	bus.Messages.Publish(events.MessageMutated{MutationType: events.Created, ID: 0})
	if _, err := fast.Next(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bus.Messages.Publish(events.MessageMutated{MutationType: events.Updated, ID: 0})

	body := scrape(t, reg)

	want := []string{
		`relay_broker_published_total{kind="message.mutated"} 2`,
		`relay_broker_deliveries_total{kind="message.mutated",result="delivered"} 3`,
		`relay_broker_deliveries_total{kind="message.mutated",result="dropped"} 1`,
		`relay_broker_subscribers{kind="message.mutated"} 2`,
	}
	for _, w := range want {
		if !strings.Contains(body, w) {
			t.Errorf("expected scrape to contain %q", w)
		}
	}
}

func TestRegistry_SubscriberGaugeFollowsClose(t *testing.T) {
	reg := NewRegistry()
	bus := events.NewBus(events.WithObserver(reg))

	stream := bus.Users.Subscribe(context.Background())
	stream.Close()

	body := scrape(t, reg)
	if !strings.Contains(body, `relay_broker_subscribers{kind="user.mutated"} 0`) {
		t.Error("expected subscriber gauge to drop to 0 after close")
	}
}

func TestRegistry_Connections(t *testing.T) {
	reg := NewRegistry()
	reg.ConnectionOpened("sse")
	reg.ConnectionOpened("sse")
	reg.ConnectionOpened("ws")
	reg.ConnectionClosed("sse")
	reg.SetSystemInfo("v1.2.3", "abc123")

	body := scrape(t, reg)
	for _, w := range []string{
		`relay_subscription_connections{transport="sse"} 1`,
		`relay_subscription_connections{transport="ws"} 1`,
		`relay_build_info{commit="abc123",version="v1.2.3"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(body, w) {
			t.Errorf("expected scrape to contain %q", w)
		}
	}
}
