package notification

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestKillAlert(t *testing.T) {
	a := KillAlert("run-9", "5 consecutive losses", 312, -421.5)
	assert.Equal(t, AlertCritical, a.Level)
	assert.Equal(t, "run-9", a.RunID)
	assert.Equal(t, "trading halted at bar 312: 5 consecutive losses (daily P&L $-421.50)", a.Message)
}

func TestWebhookNotifier_PostsJSON(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Send(context.Background(), KillAlert("run-1", "daily loss", 10, -500))
	require.NoError(t, err)
	assert.Equal(t, "CRITICAL", gjson.GetBytes(body, "level").String())
	assert.Equal(t, "run-1", gjson.GetBytes(body, "run_id").String())
	assert.True(t, gjson.GetBytes(body, "ts").Exists())
}

func TestWebhookNotifier_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Send(context.Background(), Alert{Title: "x"})
	assert.ErrorContains(t, err, "unexpected status 502")
}

func TestTelegramNotifier_EscapesMarkdown(t *testing.T) {
	var path string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42")
	n.apiBase = srv.URL
	require.NoError(t, n.Send(context.Background(), Alert{Level: AlertWarning, Title: "P&L -1.5", Message: "ok"}))

	assert.Equal(t, "/botTOKEN/sendMessage", path)
	assert.Equal(t, "42", gjson.GetBytes(body, "chat_id").String())
	assert.Contains(t, gjson.GetBytes(body, "text").String(), `P&L \-1\.5`)
}

type failingNotifier struct{ err error }

func (f failingNotifier) Send(context.Context, Alert) error { return f.err }

func TestMulti_JoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	m := Multi{NewLogNotifier(), failingNotifier{boom}}
	assert.ErrorIs(t, m.Send(context.Background(), Alert{}), boom)
	assert.NoError(t, Multi{NewLogNotifier()}.Send(context.Background(), Alert{}))
}
