package net_test

import (
	"context"
	"testing"

	pnet "insightboard/internal/platform/net"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	ctx = pnet.WithRequestID(ctx, "req-1")
	ctx = pnet.WithSession(ctx, "board-a")
	ctx = pnet.WithUser(ctx, "dashboard")
	ctx = pnet.WithToken(ctx, "tok")

	cases := []struct {
		name string
		got  string
		want string
	}{
		{"request", pnet.RequestID(ctx), "req-1"},
		{"session", pnet.SessionID(ctx), "board-a"},
		{"user", pnet.UserID(ctx), "dashboard"},
		{"token", pnet.Token(ctx), "tok"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Fatalf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
}

func TestEmptyValuesLeaveContextAlone(t *testing.T) {
	base := pnet.WithSession(context.Background(), "kept")
	ctx := pnet.WithSession(base, "")
	ctx = pnet.WithToken(ctx, "")
	ctx = pnet.WithRequestID(ctx, "")
	if ctx != base {
		t.Fatalf("empty values should not derive a new context")
	}
	if pnet.SessionID(ctx) != "kept" {
		t.Fatalf("session lost")
	}
	if pnet.Token(context.Background()) != "" || pnet.RequestID(context.Background()) != "" {
		t.Fatalf("bare context should be empty")
	}
}
