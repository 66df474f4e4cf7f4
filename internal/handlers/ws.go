package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"fixaphone-web/internal/contextutil"
	"fixaphone-web/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxCommandSize = 8 << 10
)

// Socket command types sent by the widget.
const (
	CommandSend  = "send"
	CommandClear = "clear"
)

// SocketCommand is a widget command received over the socket.
type SocketCommand struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// SocketError is pushed when a command is rejected.
type SocketError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// SocketHello is the first frame on a new connection.
type SocketHello struct {
	Type    string          `json:"type"`
	Session SessionResponse `json:"session"`
}

// ChatSocketHandler streams session events to the widget over a websocket and
// accepts send and clear commands from it.
type ChatSocketHandler struct {
	chatService service.ChatService
	upgrader    websocket.Upgrader
}

// NewChatSocketHandler creates a new ChatSocketHandler.
func NewChatSocketHandler(chatService service.ChatService) *ChatSocketHandler {
	return &ChatSocketHandler{
		chatService: chatService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// ServeHTTP upgrades the connection and runs it until either side closes.
func (h *ChatSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	info, err := h.chatService.OpenSession(ctx, cookieSessionID(r))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to open chat session")
		return
	}
	sessionID := info.View.ID

	events, unsubscribe, err := h.chatService.Subscribe(ctx, sessionID)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to subscribe to chat session")
		return
	}
	defer unsubscribe()

	header := http.Header{}
	header.Add("Set-Cookie", sessionCookie(r, sessionID).String())
	conn, err := h.upgrader.Upgrade(w, r, header)
	if err != nil {
		// The upgrader has already replied.
		logger.WarnContext(ctx, "websocket upgrade failed", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	ctx = contextutil.WithAttrs(ctx, "session_id", sessionID)
	logger = contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "chat socket connected")

	// Hello is written before the writer goroutine starts.
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(SocketHello{
		Type: "session",
		Session: SessionResponse{
			SessionID:   sessionID,
			State:       info.View.State,
			Created:     info.Created,
			Transcript:  info.View.Transcript,
			HistoryLen:  info.View.HistoryLen,
			Suggestions: info.Suggestions,
		},
	}); err != nil {
		logger.WarnContext(ctx, "chat socket hello failed", "error", err)
		return
	}

	out := make(chan any, 8)

	done := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(ctx, conn, events, out, done)
	}()

	h.readLoop(ctx, conn, sessionID, out)

	close(done)
	<-writerDone
	logger.InfoContext(ctx, "chat socket closed")
}

// readLoop handles commands until the connection fails.
func (h *ChatSocketHandler) readLoop(ctx context.Context, conn *websocket.Conn, sessionID string, out chan<- any) {
	logger := contextutil.LoggerFromContext(ctx)

	conn.SetReadLimit(maxCommandSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Sends outlive the connection; the session keeps the reply.
	sendCtx := context.WithoutCancel(ctx)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WarnContext(ctx, "chat socket read failed", "error", err)
			}
			return
		}

		var cmd SocketCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			logger.WarnContext(ctx, "invalid socket command", "error", err)
			pushError(out, &service.ValidationError{Field: "command", Message: "must be a JSON object"})
			continue
		}

		switch cmd.Type {
		case CommandSend:
			go func(message string) {
				if _, err := h.chatService.Send(sendCtx, sessionID, message); err != nil {
					pushError(out, err)
				}
			}(cmd.Message)
		case CommandClear:
			if _, err := h.chatService.Clear(ctx, sessionID); err != nil {
				pushError(out, err)
			}
		default:
			pushError(out, &service.ValidationError{Field: "type", Message: "unknown command " + cmd.Type})
		}
	}
}

// writeLoop is the connection's only writer.
func (h *ChatSocketHandler) writeLoop(ctx context.Context, conn *websocket.Conn, events <-chan service.Event, out <-chan any, done <-chan struct{}) {
	logger := contextutil.LoggerFromContext(ctx)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(v any) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(v); err != nil {
			logger.WarnContext(ctx, "chat socket write failed", "error", err)
			// Unblock the reader.
			_ = conn.Close()
			return false
		}
		return true
	}

	for {
		select {
		case <-done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case ev, ok := <-events:
			if !ok {
				// Session evicted.
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session expired"), time.Now().Add(writeWait))
				_ = conn.Close()
				return
			}
			if !write(ev) {
				return
			}
		case v := <-out:
			if !write(v) {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

// pushError queues an error frame, dropping it if the writer is behind.
func pushError(out chan<- any, err error) {
	msg := "Failed to process command"
	switch {
	case isBusy(err):
		msg = "A message is already being sent"
	case isValidation(err):
		msg = err.Error()
	case isNotFound(err):
		msg = "Resource not found"
	}
	select {
	case out <- SocketError{Type: "error", Error: msg}:
	default:
	}
}
