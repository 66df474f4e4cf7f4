package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_completer.go -package=mocks fixaphone-web/internal/service Completer
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService fixaphone-web/internal/service ChatService
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_booking_service.go -package=mocks -mock_names=BookingService=MockBookingService fixaphone-web/internal/service BookingService

import (
	"context"
	"log/slog"

	"fixaphone-web/internal/contextutil"
)

// SessionInfo is returned when a widget opens or resumes a session.
type SessionInfo struct {
	View        View
	Created     bool
	Suggestions []string
}

// ChatService provides chat widget functionality.
type ChatService interface {
	// OpenSession resumes the session with the given id or starts a new one.
	OpenSession(ctx context.Context, sessionID string) (SessionInfo, error)
	// Send processes one user message in the session.
	Send(ctx context.Context, sessionID, message string) (SendResult, error)
	// Clear resets the session's conversation.
	Clear(ctx context.Context, sessionID string) (View, error)
	// Subscribe streams the session's events until the returned func is called.
	Subscribe(ctx context.Context, sessionID string) (<-chan Event, func(), error)
}

// chatService implements ChatService on top of a SessionStore.
type chatService struct {
	store       *SessionStore
	suggestions []string
}

// NewChatService creates a new ChatService.
func NewChatService(store *SessionStore, cfg ChatConfig) ChatService {
	return &chatService{
		store:       store,
		suggestions: cfg.Suggestions,
	}
}

// OpenSession resumes or starts a session.
func (s *chatService) OpenSession(ctx context.Context, sessionID string) (SessionInfo, error) {
	session, created := s.store.Open(sessionID)
	if created {
		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "chat session started", "session_id", session.ID())
	}
	return SessionInfo{
		View:        session.View(),
		Created:     created,
		Suggestions: s.suggestions,
	}, nil
}

// Send processes a chat message.
func (s *chatService) Send(ctx context.Context, sessionID, message string) (SendResult, error) {
	session, err := s.lookup(ctx, sessionID)
	if err != nil {
		return SendResult{}, err
	}
	return session.Send(ctx, message)
}

// Clear resets a session's conversation.
func (s *chatService) Clear(ctx context.Context, sessionID string) (View, error) {
	session, err := s.lookup(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	view, err := session.Clear()
	if err != nil {
		return View{}, WrapError(err, "failed to clear chat")
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "chat session cleared", "session_id", sessionID)
	return view, nil
}

// Subscribe streams a session's events.
func (s *chatService) Subscribe(ctx context.Context, sessionID string) (<-chan Event, func(), error) {
	session, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	events, cancel := session.Subscribe()
	return events, cancel, nil
}

func (s *chatService) lookup(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, invalidf("session_id", "cannot be empty")
	}
	session, err := s.store.Get(sessionID)
	if err != nil {
		logger := contextutil.LoggerFromContext(ctx)
		logger.LogAttrs(ctx, slog.LevelWarn, "unknown chat session", slog.String("session_id", sessionID))
		return nil, WrapError(err, "chat session "+sessionID)
	}
	return session, nil
}
