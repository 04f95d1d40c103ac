package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/sheet-dashboard/backend/internal/auth"
	"github.com/sheet-dashboard/backend/internal/models"
	"github.com/sheet-dashboard/backend/internal/store"
)

// WebSocket message types for the upload feed
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected     = "connected"
	MsgTypeUploadCreated = string(store.EventUploadCreated)
	MsgTypeChartAppended = string(store.EventChartAppended)
	MsgTypeError         = "error"
	MsgTypePong          = "pong"
)

const wsWriteWait = 10 * time.Second

// WebSocket message structure
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WSEventPayload describes a store mutation
type WSEventPayload struct {
	Upload  *models.UploadSummary `json:"upload,omitempty"`
	ChartID string                `json:"chartId,omitempty"`
	Stats   models.Stats          `json:"stats"`
}

// WebSocket error response
type WSErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler pushes upload store events to connected clients
type WebSocketHandler struct {
	store          UploadStore
	identity       IdentityStore
	upgrader       websocket.Upgrader
	maxMessageSize int64
	logger         *log.Logger
}

// NewWebSocketHandler creates a new upload feed handler. When identity is set,
// clients must present a session token as a bearer header or ?token= query.
func NewWebSocketHandler(store UploadStore, identity IdentityStore, maxMessageSize int64, logger *log.Logger) *WebSocketHandler {
	if logger == nil {
		logger = log.New("api")
	}
	if maxMessageSize <= 0 {
		maxMessageSize = 64 * 1024
	}
	return &WebSocketHandler{
		store:    store,
		identity: identity,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		maxMessageSize: maxMessageSize,
		logger:         logger,
	}
}

// HandleWebSocket upgrades the connection and streams store events until the client leaves
func (wsh *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	if wsh.identity != nil {
		token := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if token == "" {
			token = c.QueryParam("token")
		}
		if _, ok := wsh.identity.Lookup(token); !ok {
			return NewUnauthorizedError("authentication required")
		}
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()
	ws.SetReadLimit(wsh.maxMessageSize)

	events, unsubscribe := wsh.store.Subscribe()
	defer unsubscribe()

	wsh.logger.Infof("[WebSocket] Client connected to upload feed")

	out := make(chan WSMessage, 8)
	stop := make(chan struct{})
	done := make(chan struct{})
	defer close(stop)
	go wsh.readLoop(ws, out, stop, done)

	if err := wsh.sendMessage(ws, WSMessage{
		Type:      MsgTypeConnected,
		Payload:   mustJSON(WSEventPayload{Stats: wsh.store.Stats()}),
		Timestamp: time.Now().UnixMilli(),
	}); err != nil {
		return nil
	}

	for {
		select {
		case <-done:
			wsh.logger.Infof("[WebSocket] Client disconnected")
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := wsh.sendMessage(ws, wsh.eventMessage(ev)); err != nil {
				return nil
			}
		case msg := <-out:
			if err := wsh.sendMessage(ws, msg); err != nil {
				return nil
			}
		}
	}
}

// readLoop answers client messages until the connection fails.
func (wsh *WebSocketHandler) readLoop(ws *websocket.Conn, out chan<- WSMessage, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsh.logger.Warnf("[WebSocket] Connection error: %v", err)
			}
			return
		}

		var reply WSMessage
		switch msg.Type {
		case MsgTypePing:
			// Respond with pong to keep connection alive
			reply = WSMessage{Type: MsgTypePong, ID: msg.ID, Timestamp: time.Now().UnixMilli()}
		default:
			reply = errorMessage("Unknown message type: "+msg.Type, "INVALID_TYPE")
		}
		select {
		case out <- reply:
		case <-stop:
			return
		}
	}
}

func (wsh *WebSocketHandler) eventMessage(ev store.Event) WSMessage {
	payload := WSEventPayload{ChartID: ev.ChartID, Stats: wsh.store.Stats()}
	if u, ok := wsh.store.GetUpload(ev.UploadID); ok {
		summary := u.Summary()
		payload.Upload = &summary
	}
	return WSMessage{
		Type:      string(ev.Type),
		ID:        ev.UploadID,
		Payload:   mustJSON(payload),
		Timestamp: ev.At.UnixMilli(),
	}
}

func (wsh *WebSocketHandler) sendMessage(ws *websocket.Conn, msg WSMessage) error {
	ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := ws.WriteJSON(msg); err != nil {
		wsh.logger.Warnf("[WebSocket] Failed to send message: %v", err)
		return err
	}
	return nil
}

func errorMessage(message, code string) WSMessage {
	return WSMessage{
		Type:      MsgTypeError,
		Timestamp: time.Now().UnixMilli(),
		Payload: mustJSON(WSErrorResponse{
			Type:    MsgTypeError,
			Message: message,
			Code:    code,
		}),
	}
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
