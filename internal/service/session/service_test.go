package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/zhouzirui/mood-story/backend/internal/model/story"
	"github.com/zhouzirui/mood-story/backend/internal/service/session"
)

func TestServiceGetSession(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, sess.ID())
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if got.ID() != sess.ID() {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID(), sess.ID())
	}
	if got.History().Len() != 0 || got.Prompt() != "" {
		t.Fatal("new session should be empty")
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := session.NewService()
	if _, err := svc.GetSession(context.Background(), "missing"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestServiceReset(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	sess, _ := svc.CreateSession(ctx)

	sess.Append(story.Record{Input: "one"})
	sess.Append(story.Record{Input: "two"})
	if err := svc.SetPrompt(ctx, sess.ID(), "draft"); err != nil {
		t.Fatalf("SetPrompt err: %v", err)
	}

	if err := svc.Reset(ctx, sess.ID()); err != nil {
		t.Fatalf("Reset err: %v", err)
	}
	summary := sess.Summary()
	if summary.HistoryLength != 0 || summary.CurrentPrompt != "" {
		t.Fatalf("expected cleared session, got %+v", summary)
	}

	if err := svc.Reset(ctx, sess.ID()); err != nil {
		t.Fatalf("second Reset err: %v", err)
	}
}

func TestServiceAcquireBusy(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	sess, _ := svc.CreateSession(ctx)

	held, err := svc.Acquire(ctx, sess.ID())
	if err != nil {
		t.Fatalf("Acquire err: %v", err)
	}

	if _, err := svc.Acquire(ctx, sess.ID()); !errors.Is(err, session.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}
	if err := svc.Reset(ctx, sess.ID()); !errors.Is(err, session.ErrSessionBusy) {
		t.Fatalf("expected reset to be refused while busy, got %v", err)
	}

	held.Release()
	if _, err := svc.Acquire(ctx, sess.ID()); err != nil {
		t.Fatalf("Acquire after release err: %v", err)
	}
}

func TestServiceDeleteSession(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	sess, _ := svc.CreateSession(ctx)

	if err := svc.DeleteSession(ctx, sess.ID()); err != nil {
		t.Fatalf("DeleteSession err: %v", err)
	}
	if svc.Count() != 0 {
		t.Fatalf("expected no sessions, got %d", svc.Count())
	}
	if err := svc.DeleteSession(ctx, sess.ID()); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
