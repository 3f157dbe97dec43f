package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/techtribe/studio-api/internal/apperr"
	"github.com/techtribe/studio-api/internal/models"
)

func newTestBridge(t *testing.T) (*AdminBridge, *Service) {
	t.Helper()
	repo := NewRepo(openTestDB(t))
	auth := stubAuth{users: map[string]*models.User{
		"admin-token":   {ID: "u1", Role: models.RoleAdmin},
		"editor-token":  {ID: "u2", Role: models.RoleEditor},
		"blocked-token": {ID: "u3", Role: models.RoleAdmin, IsBlocked: true},
	}}
	opts := Options{Timeout: 5 * time.Second}
	return NewAdminBridge(auth, repo, opts, nil), NewService(repo, nil, nil, opts, nil)
}

func TestAdminBridge_ReplyRoundTrips(t *testing.T) {
	bridge, svc := newTestBridge(t)
	ctx := context.Background()

	sent, err := svc.Send(ctx, SendInput{SessionID: "visitor-1", Message: "salam"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	content := "  Salam! Sizə 499 AZN-lik paketi tövsiyə edirəm.\n"
	msg, err := bridge.Reply(ctx, "admin-token", sent.ConversationID, content)
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if msg.Sender != SenderAdmin || msg.Seq != 3 {
		t.Fatalf("unexpected message %+v", msg)
	}

	msgs, err := bridge.Open(ctx, "admin-token", sent.ConversationID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	last := msgs[len(msgs)-1]
	if last.Sender != SenderAdmin || last.Content != content {
		t.Fatalf("admin reply must round-trip byte for byte, got %q", last.Content)
	}

	// the visitor sees it on the next fetch
	hist, err := svc.History(ctx, "visitor-1")
	if err != nil || len(hist.Messages) != 3 {
		t.Fatalf("history after reply: n=%d err=%v", len(hist.Messages), err)
	}

	list, err := bridge.List(ctx, "admin-token")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].MessageCount != 3 || list[0].LastMessage != content {
		t.Fatalf("unexpected summary %+v", list)
	}
}

func TestAdminBridge_Authorization(t *testing.T) {
	bridge, svc := newTestBridge(t)
	ctx := context.Background()
	sent, err := svc.Send(ctx, SendInput{SessionID: "visitor-2", Message: "salam"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	cases := []struct {
		token string
		want  error
	}{
		{"", apperr.ErrUnauthenticated},
		{"deleted-user-token", apperr.ErrUnauthenticated},
		{"editor-token", apperr.ErrPermissionDenied},
		{"blocked-token", apperr.ErrPermissionDenied},
	}
	for _, tc := range cases {
		t.Run(tc.token, func(t *testing.T) {
			if _, err := bridge.List(ctx, tc.token); !errors.Is(err, tc.want) {
				t.Fatalf("list: expected %v, got %v", tc.want, err)
			}
			if _, err := bridge.Open(ctx, tc.token, sent.ConversationID); !errors.Is(err, tc.want) {
				t.Fatalf("open: expected %v, got %v", tc.want, err)
			}
			if _, err := bridge.Reply(ctx, tc.token, sent.ConversationID, "hi"); !errors.Is(err, tc.want) {
				t.Fatalf("reply: expected %v, got %v", tc.want, err)
			}
		})
	}

	hist, _ := svc.History(ctx, "visitor-2")
	if len(hist.Messages) != 2 {
		t.Fatalf("rejected replies must not be stored, got %d messages", len(hist.Messages))
	}
}

func TestAdminBridge_Errors(t *testing.T) {
	bridge, svc := newTestBridge(t)
	ctx := context.Background()
	sent, _ := svc.Send(ctx, SendInput{SessionID: "visitor-3", Message: "salam"})

	if _, err := bridge.Open(ctx, "admin-token", "01HNOPE0000000000000000000"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("open unknown: expected not found, got %v", err)
	}
	if _, err := bridge.Reply(ctx, "admin-token", "01HNOPE0000000000000000000", "hi"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("reply unknown: expected not found, got %v", err)
	}
	if _, err := bridge.Reply(ctx, "admin-token", sent.ConversationID, " \n "); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("reply empty: expected validation, got %v", err)
	}
}
