package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/invoice-workbench/backend/internal/session"
)

// WebSocket message types for the progress protocol
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeProgress  = "progress"
	MsgTypeComplete  = "complete"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

// WebSocket message structure
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WebSocket progress payload
type WSProgressPayload struct {
	BatchID  string      `json:"batchId"`
	Resolved bool        `json:"resolved"`
	Files    interface{} `json:"files"`
}

// WebSocket error payload
type WSErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler pushes per-file upload states over a WebSocket connection
// as an alternative to the SSE stream.
type WebSocketHandler struct {
	sessions *session.Manager
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket progress handler
func NewWebSocketHandler(sessions *session.Manager) *WebSocketHandler {
	return &WebSocketHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
	}
}

// HandleProgressSocket upgrades the connection and streams batch progress
// until the batch resolves or the client disconnects.
func (wsh *WebSocketHandler) HandleProgressSocket(c echo.Context) error {
	wsID := workspaceID(c)

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	fmt.Printf("[WebSocket] Client connected for progress (%s)\n", shortID(wsID))

	wsh.sendMessage(ws, WSMessage{
		Type:      MsgTypeConnected,
		Timestamp: time.Now().UnixMilli(),
	})

	// Reader loop answers pings and observes disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg WSMessage
			if err := ws.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					fmt.Printf("[WebSocket] Connection error: %v\n", err)
				}
				return
			}
			if msg.Type == MsgTypePing {
				wsh.sendMessage(ws, WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
			}
		}
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	timeout := time.NewTimer(5 * time.Minute)
	defer timeout.Stop()

	for {
		select {
		case <-ticker.C:
			tracker, batchID, ok := wsh.sessions.Tracker(wsID)
			if !ok {
				wsh.sendError(ws, "no batch in progress", "NO_BATCH")
				return nil
			}

			resolved := tracker.Resolved()
			msgType := MsgTypeProgress
			if resolved {
				msgType = MsgTypeComplete
			}

			wsh.sendMessage(ws, WSMessage{
				Type:      msgType,
				ID:        batchID,
				Timestamp: time.Now().UnixMilli(),
				Payload: mustJSON(WSProgressPayload{
					BatchID:  batchID,
					Resolved: resolved,
					Files:    tracker.Snapshot(),
				}),
			})

			if resolved {
				return nil
			}

		case <-timeout.C:
			wsh.sendError(ws, "stream timeout", "TIMEOUT")
			return nil

		case <-done:
			fmt.Println("[WebSocket] Client disconnected")
			return nil
		}
	}
}

// Helper methods

func (wsh *WebSocketHandler) sendMessage(ws *websocket.Conn, msg WSMessage) {
	if err := ws.WriteJSON(msg); err != nil {
		fmt.Printf("[WebSocket] Failed to send message: %v\n", err)
	}
}

func (wsh *WebSocketHandler) sendError(ws *websocket.Conn, message, code string) {
	wsh.sendMessage(ws, WSMessage{
		Type:      MsgTypeError,
		Timestamp: time.Now().UnixMilli(),
		Payload: mustJSON(WSErrorPayload{
			Message: message,
			Code:    code,
		}),
	})
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
