package email

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendText_NotConfigured(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{})
	assert.False(t, m.Configured())
	assert.ErrorIs(t, m.SendText(context.Background(), "a@b.az", "s", "b"), ErrNotConfigured)
}

func TestSendText_BuildsMessage(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.az", User: "bot@techtribe.az", Pass: "p"})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, m.SendText(context.Background(), "info@techtribe.az", "Əlaqə", "line1\nline2"))
	assert.Equal(t, "smtp.example.az:587", gotAddr)
	assert.Equal(t, "bot@techtribe.az", gotFrom)
	assert.Equal(t, []string{"info@techtribe.az"}, gotTo)

	raw := string(gotMsg)
	assert.True(t, strings.Contains(raw, "Subject: =?utf-8?q?"), raw)
	assert.True(t, strings.HasSuffix(raw, "line1\r\nline2"))
}

func TestSendText_Errors(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.az", From: "bot@techtribe.az"})
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("relay refused") }
	assert.Error(t, m.SendText(context.Background(), "info@techtribe.az", "s", "b"))

	block := make(chan struct{})
	defer close(block)
	m.send = func(string, smtp.Auth, string, []string, []byte) error { <-block; return nil }
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.SendText(ctx, "info@techtribe.az", "s", "b"), context.DeadlineExceeded)
}
