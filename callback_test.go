package relay

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func post(t *testing.T, port int, path, body string) {
	t.Helper()
	resp, err := http.Post(fmt.Sprintf("http://localhost:%d%s", port, path), "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST %s: status %d", path, resp.StatusCode)
	}
}

func waitUntil(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestWithMutationCallback_ReceivesMutations(t *testing.T) {
	var (
		mu  sync.Mutex
		got []Mutation
	)
	cb := func(m Mutation) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, m)
	}

	r, err := New(
		WithPort(19201),
		WithLogger(testLogger()),
		WithSeed(SeedUser{Name: "ada"}),
		WithMutationCallback(cb),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	stop := runRelay(t, r)
	defer func() { _ = stop() }()

	post(t, 19201, "/api/messages", `{"user_id":0,"text":"hello"}`)
	post(t, 19201, "/api/users", `{"name":"grace"}`)

	waitUntil(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, "callback did not receive both mutations")

	mu.Lock()
	defer mu.Unlock()
	want := map[Mutation]bool{
		{Record: "message", Type: "created", ID: 0}: true,
		{Record: "user", Type: "created", ID: 1}:    true,
	}
	for _, m := range got {
		if !want[m] {
			t.Errorf("unexpected mutation %+v", m)
		}
	}
}

func TestWithMutationCallback_PanicRecovery(t *testing.T) {
	panicCb := func(m Mutation) {
		panic("intentional test panic")
	}

	var normalCalled atomic.Bool
	normalCb := func(m Mutation) {
		normalCalled.Store(true)
	}

	// capture output to verify the panic was logged
	var (
		logMu  sync.Mutex
		logBuf bytes.Buffer
	)
	logger := slog.New(slog.NewTextHandler(&lockedWriter{mu: &logMu, w: &logBuf}, nil))

	r, err := New(
		WithPort(19202),
		WithLogger(logger),
		WithMutationCallback(panicCb),
		WithMutationCallback(normalCb), // should still be called after panic
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	stop := runRelay(t, r)

	post(t, 19202, "/api/users", `{"name":"ada"}`)
	waitUntil(t, normalCalled.Load, "subsequent callbacks should still run after panic")

	if err := stop(); err != nil {
		t.Errorf("Start() error = %v, want nil", err)
	}

	logMu.Lock()
	defer logMu.Unlock()
	out := logBuf.String()
	if !strings.Contains(out, "mutation callback panicked") || !strings.Contains(out, "correlation_id=") {
		t.Errorf("panic should have been logged with a correlation id, got: %s", out)
	}
}

func TestWithMutationCallback_NilIsSafe(t *testing.T) {
	r, err := New(WithPort(19203), WithLogger(testLogger()), WithMutationCallback(nil))
	if err != nil {
		t.Fatalf("New() error = %v, want nil (nil callback should be accepted)", err)
	}
	if len(r.mutationCallbacks) != 0 {
		t.Errorf("nil callback should not be registered")
	}
}

func TestWithMutationCallback_ExecutionOrder(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) func(Mutation) {
		return func(Mutation) {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
		}
	}

	r, err := New(
		WithPort(19204),
		WithLogger(testLogger()),
		WithMutationCallback(record("first")),
		WithMutationCallback(record("second")),
		WithMutationCallback(record("third")),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	stop := runRelay(t, r)
	defer func() { _ = stop() }()

	post(t, 19204, "/api/users", `{"name":"ada"}`)

	waitUntil(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	}, "callbacks not invoked")

	mu.Lock()
	defer mu.Unlock()
	if strings.Join(order, ",") != "first,second,third" {
		t.Errorf("order = %v, want registration order", order)
	}
}

// lockedWriter serializes writes so the test can read the buffer safely.
type lockedWriter struct {
	mu *sync.Mutex
	w  *bytes.Buffer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
