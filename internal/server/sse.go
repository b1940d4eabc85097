package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// streamWriteTimeout is the maximum time allowed for a single SSE or
// WebSocket write. It must not exceed the shutdown timeout.
const streamWriteTimeout = 5 * time.Second

// writeSubscribeError reports a subscription that could not be opened.
func (s *Server) writeSubscribeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errUnknownTopic):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.writeError(w, http.StatusBadRequest, err.Error())
	}
}

// handleSSE streams a subscription via Server-Sent Events.
//
// The handler uses write deadlines so a slow or vanished client cannot pin
// the goroutine in a blocked write past shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	sub, err := s.openSubscription(r.Context(), chi.URLParam(r, "topic"), r.URL.Query())
	if err != nil {
		s.writeSubscribeError(w, err)
		return
	}
	defer sub.close()

	id := uuid.NewString()
	s.connOpened("sse")
	defer s.connClosed("sse")
	s.logger.Debug("sse subscription opened", "subscription_id", id, "topic", sub.topic)
	defer s.logger.Debug("sse subscription closed", "subscription_id", id, "topic", sub.topic)

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(format string, args ...any) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}
		if _, err := fmt.Fprintf(w, format, args...); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Subscription-ID", id)

	// a comment line commits the headers so clients see the stream open
	if err := writeAndFlush(": subscribed %s\n\n", sub.topic); err != nil {
		return
	}

	for {
		// Next returns once the request context is done, which also covers
		// server shutdown because request contexts derive from BaseContext.
		payload, err := sub.next(r.Context())
		if err != nil {
			return
		}
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.Error("failed to encode event", "topic", sub.topic, "error", err)
			continue
		}
		if err := writeAndFlush("data: %s\n\n", data); err != nil {
			return
		}
	}
}
