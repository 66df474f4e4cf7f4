package service_test

import (
	"context"
	"errors"
	"testing"

	"fixaphone-web/internal/llm"
	"fixaphone-web/internal/metrics"
	"fixaphone-web/internal/render"
	"fixaphone-web/internal/service"
	"fixaphone-web/internal/service/mocks"

	"go.uber.org/mock/gomock"
)

// testContext returns a context for testing.
// The default logger is already set to discard in init().
func testContext() context.Context {
	return context.Background()
}

func newTestChatService(completer service.Completer) (service.ChatService, *service.SessionStore) {
	cfg := testConfig()
	m := metrics.NewNop()
	renderer := render.NewRenderer()
	store := service.NewSessionStore(func(id string) *service.Session {
		return service.NewSession(id, cfg, completer, renderer, m)
	}, cfg.IdleTimeout, m)
	return service.NewChatService(store, cfg), store
}

func TestNewChatService(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _ := newTestChatService(mocks.NewMockCompleter(ctrl))
	if svc == nil {
		t.Fatal("NewChatService() returned nil")
	}
}

func TestChatService_OpenSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, store := newTestChatService(mocks.NewMockCompleter(ctrl))

	info, err := svc.OpenSession(testContext(), "")
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}
	if !info.Created {
		t.Error("OpenSession(\"\") should create a session")
	}
	if info.View.ID == "" {
		t.Error("OpenSession() returned an empty id")
	}
	if len(info.View.Transcript) != 1 {
		t.Errorf("new session transcript len = %d, want greeting only", len(info.View.Transcript))
	}
	if len(info.Suggestions) != 1 {
		t.Errorf("suggestions = %v, want configured list", info.Suggestions)
	}

	again, err := svc.OpenSession(testContext(), info.View.ID)
	if err != nil {
		t.Fatalf("OpenSession() resume error = %v", err)
	}
	if again.Created || again.View.ID != info.View.ID {
		t.Errorf("OpenSession() resume = %+v, want existing session %s", again, info.View.ID)
	}

	other, err := svc.OpenSession(testContext(), "forged-id")
	if err != nil {
		t.Fatalf("OpenSession() unknown id error = %v", err)
	}
	if !other.Created || other.View.ID == "forged-id" {
		t.Errorf("OpenSession() unknown id = %+v, want a fresh id", other)
	}

	if store.Len() != 2 {
		t.Errorf("store holds %d sessions, want 2", store.Len())
	}
}

func TestChatService_Send(t *testing.T) {
	tests := []struct {
		name      string
		sessionID func(open string) string
		message   string
		setupMock func(*mocks.MockCompleter)
		wantErr   bool
		checkErr  func(*testing.T, error)
		checkRes  func(*testing.T, service.SendResult)
	}{
		{
			name:      "success",
			sessionID: func(open string) string { return open },
			message:   "Do you repair Samsung batteries?",
			setupMock: func(m *mocks.MockCompleter) {
				m.EXPECT().
					Complete(gomock.Any(), gomock.Any(), testParams).
					Return("Yes, 2000-3500 NPR.", nil)
			},
			checkRes: func(t *testing.T, res service.SendResult) {
				if len(res.Messages) != 2 || res.HistoryLen != 3 {
					t.Errorf("Send() = %+v, want 2 bubbles and history 3", res)
				}
			},
		},
		{
			name:      "blank message",
			sessionID: func(open string) string { return open },
			message:   "   ",
			setupMock: func(m *mocks.MockCompleter) {},
			checkRes: func(t *testing.T, res service.SendResult) {
				if !res.Ignored {
					t.Error("Send() should ignore blank input")
				}
			},
		},
		{
			name:      "empty session id",
			sessionID: func(string) string { return "" },
			message:   "hello",
			setupMock: func(m *mocks.MockCompleter) {},
			wantErr:   true,
			checkErr: func(t *testing.T, err error) {
				var validationErr *service.ValidationError
				if !errors.As(err, &validationErr) {
					t.Fatalf("expected ValidationError, got %T", err)
				}
				if validationErr.Field != "session_id" {
					t.Errorf("field = %q, want session_id", validationErr.Field)
				}
			},
		},
		{
			name:      "unknown session",
			sessionID: func(string) string { return "missing" },
			message:   "hello",
			setupMock: func(m *mocks.MockCompleter) {},
			wantErr:   true,
			checkErr: func(t *testing.T, err error) {
				if !errors.Is(err, service.ErrNotFound) {
					t.Errorf("error = %v, want ErrNotFound", err)
				}
			},
		},
		{
			name:      "completion failure",
			sessionID: func(open string) string { return open },
			message:   "hello",
			setupMock: func(m *mocks.MockCompleter) {
				m.EXPECT().
					Complete(gomock.Any(), gomock.Any(), gomock.Any()).
					Return("", &llm.CompletionError{Reason: llm.ReasonNoChoices})
			},
			checkRes: func(t *testing.T, res service.SendResult) {
				if !res.Failed {
					t.Error("Send() should report the failure")
				}
				if res.HistoryLen != 2 {
					t.Errorf("history len = %d, want 2", res.HistoryLen)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockCompleter := mocks.NewMockCompleter(ctrl)
			tt.setupMock(mockCompleter)
			svc, _ := newTestChatService(mockCompleter)

			info, err := svc.OpenSession(testContext(), "")
			if err != nil {
				t.Fatalf("OpenSession() error = %v", err)
			}

			res, err := svc.Send(testContext(), tt.sessionID(info.View.ID), tt.message)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Send() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.checkErr != nil {
				tt.checkErr(t, err)
			}
			if tt.checkRes != nil {
				tt.checkRes(t, res)
			}
		})
	}
}

func TestChatService_Clear(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCompleter := mocks.NewMockCompleter(ctrl)
	mockCompleter.EXPECT().
		Complete(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("Hello there", nil)
	svc, _ := newTestChatService(mockCompleter)

	info, _ := svc.OpenSession(testContext(), "")
	if _, err := svc.Send(testContext(), info.View.ID, "hi"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	view, err := svc.Clear(testContext(), info.View.ID)
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if view.HistoryLen != 1 || len(view.Transcript) != 1 {
		t.Errorf("Clear() = %+v, want reset session", view)
	}

	if _, err := svc.Clear(testContext(), "missing"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Clear() unknown session error = %v, want ErrNotFound", err)
	}
}

func TestChatService_Clear_Busy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	started := make(chan struct{})
	release := make(chan struct{})
	mockCompleter := mocks.NewMockCompleter(ctrl)
	mockCompleter.EXPECT().
		Complete(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error) {
			close(started)
			<-release
			return "done", nil
		})
	svc, _ := newTestChatService(mockCompleter)
	info, _ := svc.OpenSession(testContext(), "")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Send(testContext(), info.View.ID, "fix my phone")
	}()
	<-started

	_, err := svc.Clear(testContext(), info.View.ID)
	close(release)
	<-done

	if !errors.Is(err, service.ErrSessionBusy) {
		t.Errorf("Clear() error = %v, want ErrSessionBusy", err)
	}
	if err != nil && err.Error() != "failed to clear chat: session busy" {
		t.Errorf("Clear() error message = %q", err.Error())
	}
}

func TestChatService_Subscribe(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _ := newTestChatService(mocks.NewMockCompleter(ctrl))
	info, _ := svc.OpenSession(testContext(), "")

	events, cancel, err := svc.Subscribe(testContext(), info.View.ID)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer cancel()

	if _, err := svc.Clear(testContext(), info.View.ID); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	ev := <-events
	if ev.Type != service.EventCleared || ev.SessionID != info.View.ID {
		t.Errorf("event = %+v, want cleared for %s", ev, info.View.ID)
	}

	if _, _, err := svc.Subscribe(testContext(), "missing"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Subscribe() unknown session error = %v, want ErrNotFound", err)
	}
}
