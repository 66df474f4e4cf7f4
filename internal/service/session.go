package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"fixaphone-web/internal/contextutil"
	"fixaphone-web/internal/conversation"
	"fixaphone-web/internal/llm"
	"fixaphone-web/internal/metrics"
	"fixaphone-web/internal/render"
)

// FallbackMessage is shown in place of a reply when the completion request
// fails. It is never added to the conversation history.
const FallbackMessage = "I apologize, but I'm having trouble connecting right now. " +
	"Please try again later or contact our support team directly."

// subscriberBuffer is the event backlog kept per subscriber before events are dropped.
const subscriberBuffer = 32

// State is the send state of a chat session.
type State int

const (
	// StateIdle accepts a new send.
	StateIdle State = iota
	// StateSending has one completion request in flight; input is disabled.
	StateSending
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = StateIdle
	case "sending":
		*s = StateSending
	default:
		return fmt.Errorf("unknown session state %q", text)
	}
	return nil
}

// EventType names a UI-facing change in a session.
type EventType string

const (
	EventInputDisabled EventType = "input_disabled"
	EventMessage       EventType = "message"
	EventTyping        EventType = "typing"
	EventInputEnabled  EventType = "input_enabled"
	EventCleared       EventType = "cleared"
)

// Event is published to session subscribers as the session changes.
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	Message   *render.Bubble `json:"message,omitempty"`
	// Typing is set on typing events while the indicator is shown.
	Typing bool `json:"typing,omitempty"`
	// Focus asks the view to put the cursor back in the input.
	Focus      bool            `json:"focus,omitempty"`
	Transcript []render.Bubble `json:"transcript,omitempty"`
}

// SendResult describes the outcome of a send attempt.
type SendResult struct {
	// Ignored is set when the input was blank; nothing else happened.
	Ignored bool
	// Failed is set when the completion request failed and the fallback
	// message was shown instead of a reply.
	Failed bool
	// Messages holds the bubbles appended to the transcript, user first.
	Messages   []render.Bubble
	HistoryLen int
}

// View is a point-in-time copy of a session.
type View struct {
	ID         string          `json:"id"`
	State      State           `json:"state"`
	Transcript []render.Bubble `json:"transcript"`
	HistoryLen int             `json:"history_len"`
}

// Completer sends a conversation to the completion endpoint.
// This interface is defined from the service layer's perspective (consumer-first).
type Completer interface {
	// Complete returns the reply to the given conversation.
	Complete(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// ChatConfig holds the settings shared by every chat session.
type ChatConfig struct {
	SystemPrompt string
	Greeting     string
	Suggestions  []string
	Params       llm.ChatParams
	IdleTimeout  time.Duration
}

// Session is one chat widget conversation. It moves Idle -> Sending -> Idle
// for every non-blank send and rejects a send while another is in flight.
type Session struct {
	id        string
	cfg       ChatConfig
	completer Completer
	renderer  *render.Renderer
	metrics   *metrics.Metrics
	now       func() time.Time

	mu          sync.Mutex
	state       State
	history     *conversation.History
	transcript  []render.Bubble
	lastActive  time.Time
	subscribers map[int]chan Event
	nextSub     int
}

// NewSession creates an idle session whose transcript holds the greeting.
// A nil m records to an unexported registry.
func NewSession(id string, cfg ChatConfig, completer Completer, renderer *render.Renderer, m *metrics.Metrics) *Session {
	if m == nil {
		m = metrics.NewNop()
	}
	s := &Session{
		id:          id,
		cfg:         cfg,
		completer:   completer,
		renderer:    renderer,
		metrics:     m,
		now:         time.Now,
		history:     conversation.New(cfg.SystemPrompt),
		subscribers: make(map[int]chan Event),
	}
	s.transcript = s.greeting()
	s.lastActive = s.now()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current send state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View returns a copy of the session's visible state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// History returns a copy of the conversation sent to the model.
func (s *Session) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Snapshot()
}

// Send runs one turn: blank input is ignored, a send while another is in
// flight fails with ErrSessionBusy, otherwise the user message is recorded,
// the completion endpoint is called once and either the reply or the
// fallback message is appended.
//
// The completion request is not cancelled when ctx is; once sent it runs to
// completion.
func (s *Session) Send(ctx context.Context, input string) (SendResult, error) {
	logger := contextutil.LoggerFromContext(ctx).With("session_id", s.id)

	text := strings.TrimSpace(input)
	if text == "" {
		s.metrics.RecordSend(metrics.SendIgnored)
		logger.DebugContext(ctx, "ignoring blank chat message")
		return SendResult{Ignored: true, HistoryLen: s.View().HistoryLen}, nil
	}

	userBubble, snapshot, err := s.begin(text)
	if err != nil {
		s.metrics.RecordSend(metrics.SendBusy)
		logger.WarnContext(ctx, "chat send rejected", "error", err)
		return SendResult{}, err
	}

	reply, err := s.complete(context.WithoutCancel(ctx), snapshot)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get completion", "error", err, "history_len", len(snapshot))
	}

	result := s.finish(userBubble, reply, err)
	if result.Failed {
		s.metrics.RecordSend(metrics.SendFailed)
	} else {
		s.metrics.RecordSend(metrics.SendOK)
		logger.InfoContext(ctx, "chat message processed successfully",
			"message_length", len(text), "reply_length", len(reply), "history_len", result.HistoryLen)
	}
	return result, nil
}

// Clear resets the conversation to the system prompt and the transcript to
// the greeting. It fails with ErrSessionBusy while a send is in flight.
func (s *Session) Clear() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return View{}, ErrSessionBusy
	}

	s.history.Reset()
	s.transcript = s.greeting()
	s.lastActive = s.now()
	s.publish(Event{Type: EventCleared, Transcript: cloneBubbles(s.transcript)})
	return s.viewLocked(), nil
}

// Subscribe registers for session events. The returned func unsubscribes and
// closes the channel; it is safe to call more than once. Events are dropped
// for a subscriber whose buffer is full.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(ch)
			}
		})
	}
}

// idleSince reports when the session last changed and whether it may be evicted.
func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive, s.state == StateIdle
}

// close drops every subscriber.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

func (s *Session) begin(text string) (render.Bubble, []llm.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return render.Bubble{}, nil, ErrSessionBusy
	}
	s.state = StateSending
	s.lastActive = s.now()
	s.publish(Event{Type: EventInputDisabled})

	bubble := s.renderer.Render(text, render.CategoryUser)
	s.transcript = append(s.transcript, bubble)
	s.publish(Event{Type: EventMessage, Message: &bubble})

	s.history.AppendUser(text)
	s.publish(Event{Type: EventTyping, Typing: true})

	return bubble, s.history.Snapshot(), nil
}

func (s *Session) complete(ctx context.Context, snapshot []llm.Message) (string, error) {
	s.metrics.CompletionsInFlight.Inc()
	defer s.metrics.CompletionsInFlight.Dec()

	start := time.Now()
	reply, err := s.completer.Complete(ctx, snapshot, s.cfg.Params)
	status := "success"
	if err != nil {
		status = "failure"
	}
	s.metrics.RecordCompletion(status, time.Since(start))
	return reply, err
}

func (s *Session) finish(userBubble render.Bubble, reply string, err error) SendResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bubble render.Bubble
	if err != nil {
		bubble = s.renderer.Render(FallbackMessage, render.CategorySupportError)
	} else {
		bubble = s.renderer.Render(reply, render.CategorySupport)
		s.history.AppendAssistant(reply)
	}
	s.transcript = append(s.transcript, bubble)
	s.publish(Event{Type: EventMessage, Message: &bubble})
	s.publish(Event{Type: EventTyping})
	s.publish(Event{Type: EventInputEnabled, Focus: true})

	s.state = StateIdle
	s.lastActive = s.now()

	return SendResult{
		Failed:     err != nil,
		Messages:   []render.Bubble{userBubble, bubble},
		HistoryLen: s.history.Len(),
	}
}

// publish must be called with s.mu held.
func (s *Session) publish(ev Event) {
	ev.SessionID = s.id
	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Session) viewLocked() View {
	return View{
		ID:         s.id,
		State:      s.state,
		Transcript: cloneBubbles(s.transcript),
		HistoryLen: s.history.Len(),
	}
}

func (s *Session) greeting() []render.Bubble {
	if s.cfg.Greeting == "" {
		return nil
	}
	return []render.Bubble{s.renderer.Render(s.cfg.Greeting, render.CategorySupport)}
}

func cloneBubbles(in []render.Bubble) []render.Bubble {
	out := make([]render.Bubble, len(in))
	copy(out, in)
	return out
}
