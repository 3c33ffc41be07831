package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jpalmerr/sensorboard/internal/store"
)

// EventName is the push event carrying a just-ingested sample.
const EventName = "nuevos_datos"

// clientReadLimit bounds frames read from WebSocket clients, which only
// ever send control frames.
const clientReadLimit = 512

// PushMessage is the JSON frame sent to WebSocket clients.
type PushMessage struct {
	Event string       `json:"event"`
	Data  store.Sample `json:"data"`
}

// handleWebSocket pushes every committed sample to the client.
//
// A client that cannot accept a frame within the write timeout is
// disconnected; ingest callers never see the failure.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	clientID := uuid.NewString()
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	s.logger.Debug("push client connected", "client_id", clientID, "transport", "websocket")
	defer s.logger.Debug("push client disconnected", "client_id", clientID, "transport", "websocket")

	// the read loop processes close and ping frames and detects disconnects
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(clientReadLimit)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case sample, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(pushWriteTimeout))
			if err := conn.WriteJSON(PushMessage{Event: EventName, Data: sample}); err != nil {
				return
			}

		case <-gone:
			return

		case <-r.Context().Done():
			// server shutdown
			deadline := time.Now().Add(time.Second)
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
			return
		}
	}
}

// handleSSE streams committed samples via Server-Sent Events.
//
// The handler uses write deadlines so a slow or disconnected client cannot
// block it past shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// may not be supported by some ResponseWriter implementations
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(pushWriteTimeout)); err != nil {
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", EventName, data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientID := uuid.NewString()
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	s.logger.Debug("push client connected", "client_id", clientID, "transport", "sse")
	defer s.logger.Debug("push client disconnected", "client_id", clientID, "transport", "sse")

	// commit headers so clients see the stream open before the first event
	if err := rc.Flush(); err != nil {
		return
	}

	for {
		select {
		case sample, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(sample)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on client disconnect and on server shutdown
			return
		}
	}
}
