package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"fixaphone-web/internal/contextutil"
	"fixaphone-web/internal/render"
	"fixaphone-web/internal/service"
)

// SessionCookie is the cookie that carries the chat session id.
const SessionCookie = "fixaphone_session"

// ChatHandler handles HTTP requests for the chat widget.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// SessionResponse describes a chat session.
//
// swagger:model SessionResponse
type SessionResponse struct {
	SessionID   string          `json:"session_id"`
	State       service.State   `json:"state"`
	Created     bool            `json:"created"`
	Transcript  []render.Bubble `json:"transcript"`
	HistoryLen  int             `json:"history_len"`
	Suggestions []string        `json:"suggestions"`
}

// ChatRequest represents the HTTP request payload for sending a message.
//
// swagger:model ChatRequest
type ChatRequest struct {
	// Session id; the session cookie is used when empty
	SessionID string `json:"session_id,omitempty"`
	// The user's message
	Message string `json:"message"`
}

// ChatResponse represents the outcome of a send.
//
// swagger:model ChatResponse
type ChatResponse struct {
	SessionID string `json:"session_id"`
	// Set when the message was blank and nothing was sent
	Ignored bool `json:"ignored"`
	// Set when the reply could not be fetched and the apology was shown instead
	Failed     bool            `json:"failed"`
	Messages   []render.Bubble `json:"messages"`
	HistoryLen int             `json:"history_len"`
}

// ClearRequest represents the HTTP request payload for clearing a chat.
type ClearRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// OpenSession resumes the caller's chat session or starts a new one.
//
// swagger:route GET /api/chat/session chat openSession
//
// Returns the session transcript, greeting included, and suggested questions.
//
// responses:
//
//	'200':
//	  description: Session opened
//	  schema:
//	    "$ref": "#/definitions/SessionResponse"
func (h *ChatHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	info, err := h.chatService.OpenSession(ctx, cookieSessionID(r))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to open chat session")
		return
	}

	http.SetCookie(w, sessionCookie(r, info.View.ID))
	writeJSON(w, ctx, http.StatusOK, SessionResponse{
		SessionID:   info.View.ID,
		State:       info.View.State,
		Created:     info.Created,
		Transcript:  info.View.Transcript,
		HistoryLen:  info.View.HistoryLen,
		Suggestions: info.Suggestions,
	})
}

// SendMessage sends one user message and waits for the reply.
//
// swagger:route POST /api/chat/messages chat sendMessage
//
// Sends a message to the assistant. A blank message is ignored. A failed
// completion still returns 200 with failed set and the apology bubble.
//
// responses:
//
//	'200':
//	  description: Message processed
//	  schema:
//	    "$ref": "#/definitions/ChatResponse"
//	'400':
//	  description: Invalid request
//	'404':
//	  description: Unknown session
//	'409':
//	  description: A message is already in flight for this session
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = cookieSessionID(r)
	}

	res, err := h.chatService.Send(ctx, sessionID, req.Message)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process chat message")
		return
	}

	writeJSON(w, ctx, http.StatusOK, ChatResponse{
		SessionID:  sessionID,
		Ignored:    res.Ignored,
		Failed:     res.Failed,
		Messages:   res.Messages,
		HistoryLen: res.HistoryLen,
	})
}

// ClearChat resets the conversation to the greeting.
func (h *ChatHandler) ClearChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// The body is optional; the cookie identifies the session otherwise.
	var req ClearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = cookieSessionID(r)
	}

	view, err := h.chatService.Clear(ctx, sessionID)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to clear chat")
		return
	}

	writeJSON(w, ctx, http.StatusOK, SessionResponse{
		SessionID:  view.ID,
		State:      view.State,
		Transcript: view.Transcript,
		HistoryLen: view.HistoryLen,
	})
}

func cookieSessionID(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func sessionCookie(r *http.Request, id string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
}
