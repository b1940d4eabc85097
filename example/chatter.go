package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

// lines are picked at random for simulated messages.
var lines = []string{
	"anyone around?",
	"deploy looks green",
	"lunch?",
	"rebasing now",
	"ship it",
}

// RunChatter posts a random message as a random seeded user every 2-6
// seconds until ctx is done, so the playground has live traffic to show.
// Every third message is edited shortly after it is sent.
func RunChatter(ctx context.Context, baseURL string, users []int) {
	client := &http.Client{Timeout: 5 * time.Second}
	sent := 0

	for {
		wait := time.Duration(2+rand.Intn(5)) * time.Second
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		body := map[string]any{
			"user_id": users[rand.Intn(len(users))],
			"text":    lines[rand.Intn(len(lines))],
		}
		var msg struct {
			ID int `json:"id"`
		}
		if err := call(ctx, client, http.MethodPost, baseURL+"/api/messages", body, &msg); err != nil {
			slog.Warn("chatter post failed", "error", err)
			continue
		}

		sent++
		if sent%3 == 0 {
			edit := map[string]any{"text": "(edited) " + lines[rand.Intn(len(lines))]}
			url := fmt.Sprintf("%s/api/messages/%d", baseURL, msg.ID)
			if err := call(ctx, client, http.MethodPut, url, edit, nil); err != nil {
				slog.Warn("chatter edit failed", "error", err)
			}
		}
	}
}

func call(ctx context.Context, client *http.Client, method, url string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: status %d", method, url, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
