package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func TestNewPicksImplementation(t *testing.T) {
	if _, ok := New(config.MailConfig{}, logger.Nop()).(*Log); !ok {
		t.Fatal("expected log mailer without smtp host")
	}
	if _, ok := New(config.MailConfig{Host: "smtp.test", Port: 587}, logger.Nop()).(*SMTP); !ok {
		t.Fatal("expected smtp mailer with host")
	}
}

func TestSMTPSendRendersMessage(t *testing.T) {
	m := NewSMTP(config.MailConfig{Host: "smtp.test", Port: 2525, From: "shop@test"})
	m.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	var gotAddr string
	var gotTo []string
	var gotMsg string
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	err := m.Send(context.Background(), Message{To: "buyer@test", Subject: "Pedido confirmado", Body: "line1\nline2"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotAddr != "smtp.test:2525" || len(gotTo) != 1 || gotTo[0] != "buyer@test" {
		t.Fatalf("unexpected envelope %s %v", gotAddr, gotTo)
	}
	for _, want := range []string{"From: shop@test\r\n", "To: buyer@test\r\n", "Subject: Pedido confirmado\r\n", "line1\r\nline2"} {
		if !strings.Contains(gotMsg, want) {
			t.Fatalf("message missing %q:\n%s", want, gotMsg)
		}
	}
}

func TestSMTPSendErrors(t *testing.T) {
	m := NewSMTP(config.MailConfig{Host: "smtp.test", Port: 25})
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("relay down") }

	if err := m.Send(context.Background(), Message{To: "a@test"}); err == nil || !strings.Contains(err.Error(), "relay down") {
		t.Fatalf("expected relay error, got %v", err)
	}
	if err := m.Send(context.Background(), Message{To: "a@test\r\nBcc: x@test"}); err == nil {
		t.Fatal("expected header injection to be rejected")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Send(ctx, Message{To: "a@test"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled context, got %v", err)
	}
}

func TestLogMailerValidates(t *testing.T) {
	l := NewLog(logger.Nop())
	if err := l.Send(context.Background(), Message{To: "a@test", Subject: "hi"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := l.Send(context.Background(), Message{}); err == nil {
		t.Fatal("expected missing recipient to fail")
	}
}
