package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// handleWS streams a subscription over a WebSocket as JSON text frames.
//
// The query is validated before the upgrade so a bad request still gets a
// plain HTTP error response.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub, err := s.openSubscription(ctx, chi.URLParam(r, "topic"), r.URL.Query())
	if err != nil {
		s.writeSubscribeError(w, err)
		return
	}
	defer sub.close()

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer func() { _ = ws.CloseNow() }()

	id := uuid.NewString()
	s.connOpened("ws")
	defer s.connClosed("ws")
	s.logger.Debug("websocket subscription opened", "subscription_id", id, "topic", sub.topic, "remote", r.RemoteAddr)
	defer s.logger.Debug("websocket subscription closed", "subscription_id", id, "topic", sub.topic)

	// read loop detects client disconnects; incoming frames are ignored
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		payload, err := sub.next(ctx)
		if err != nil {
			_ = ws.Close(websocket.StatusNormalClosure, "")
			return
		}
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.Error("failed to encode event", "topic", sub.topic, "error", err)
			continue
		}

		writeCtx, writeCancel := context.WithTimeout(ctx, streamWriteTimeout)
		err = ws.Write(writeCtx, websocket.MessageText, data)
		writeCancel()
		if err != nil {
			s.logger.Debug("websocket write failed", "subscription_id", id, "error", err)
			return
		}
	}
}
