package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNotifyTelegramQuote(t *testing.T) {
	type sent struct{ path, chat, text string }
	got := make(chan sent, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		got <- sent{path: r.URL.Path, chat: r.PostForm.Get("chat_id"), text: r.PostForm.Get("text")}
	}))
	defer srv.Close()

	env := newTestEnv(t)
	env.TelegramAPIURL = srv.URL
	env.ApplySettings(Settings{TelegramBotToken: "tok", TelegramChatID: "42"})

	env.NotifyTelegramQuote(QuoteRecord{ID: "q1", Contact: QuoteContact{Name: "Jan", Email: "jan@example.nl"}})

	select {
	case s := <-got:
		assert.Equal(t, "/bottok/sendMessage", s.path)
		assert.Equal(t, "42", s.chat)
		assert.Contains(t, s.text, "Jan")
	case <-time.After(2 * time.Second):
		t.Fatal("telegram message was not sent")
	}
}

func TestNotifyTelegramQuote_SkipsWithoutChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected telegram call")
	}))
	defer srv.Close()

	env := newTestEnv(t)
	env.TelegramAPIURL = srv.URL
	env.ApplySettings(Settings{TelegramBotToken: "tok"})

	env.NotifyTelegramQuote(QuoteRecord{ID: "q1"})
	time.Sleep(50 * time.Millisecond)
}
