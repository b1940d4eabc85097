package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/relay"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, err := relay.New(
		relay.WithPort(8080),
		relay.WithTitle("relay demo"),
		relay.WithTickInterval(500*time.Millisecond),
		relay.WithMetrics(),
		relay.WithSeed(
			relay.SeedUser{Name: "ada", Messages: []string{"hello", "is this thing on?"}},
			relay.SeedUser{Name: "grace", Messages: []string{"loud and clear"}},
		),
		relay.WithMutationCallback(func(m relay.Mutation) {
			slog.Info("mutation", "record", m.Record, "type", m.Type, "id", m.ID)
		}),
	)
	if err != nil {
		slog.Error("failed to create relay", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   relay demo                                          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║   or: curl -N localhost:8080/api/sse/messages         ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Seeded users ada (0) and grace (1) chat every       ║")
	fmt.Println("  ║   few seconds.                                        ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	go RunChatter(ctx, "http://localhost:8080", []int{0, 1})

	if err := r.Start(ctx); err != nil {
		slog.Error("relay error", "error", err)
		os.Exit(1)
	}
}
