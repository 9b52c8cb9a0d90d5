package handlers

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// sendTelegramMessage низкоуровневый отправитель сообщений
func (e *Env) sendTelegramMessage(ctx context.Context, token, chatID, text string) error {
	apiURL := strings.TrimRight(e.TelegramAPIURL, "/") + "/bot" + token + "/sendMessage"

	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)
	form.Set("parse_mode", "HTML")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("non-OK status %s", resp.Status)
	}
	return nil
}

// quoteMessage текст уведомления о заявке
func quoteMessage(q QuoteRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📐 Новая заявка: <b>%s</b>\n\n", html.EscapeString(q.ProductName))
	fmt.Fprintf(&b, "Клиент: %s\n", html.EscapeString(q.Contact.Name))
	fmt.Fprintf(&b, "Email: %s\n", html.EscapeString(q.Contact.Email))
	if q.Contact.Phone != "" {
		fmt.Fprintf(&b, "Телефон: %s\n", html.EscapeString(q.Contact.Phone))
	}
	fmt.Fprintf(&b, "Индекс: %s", html.EscapeString(q.Postcode))
	if q.DistanceKm > 0 {
		fmt.Fprintf(&b, " (%.1f км)", q.DistanceKm)
	}
	fmt.Fprintf(&b, "\nРазмер: %d × %d см, %.2f м²\n\n", q.Dimensions.Depth, q.Dimensions.Length, q.Area)

	for _, l := range q.Lines {
		fmt.Fprintf(&b, "%s: %s\n", html.EscapeString(l.Name), html.EscapeString(l.Value))
	}
	fmt.Fprintf(&b, "\nИтого: %.0f €", q.Price.Total)
	if q.Contact.Note != "" {
		fmt.Fprintf(&b, "\n\n%s", html.EscapeString(q.Contact.Note))
	}
	return b.String()
}

// NotifyTelegramQuote уведомление о новой заявке, если бот настроен.
func (e *Env) NotifyTelegramQuote(q QuoteRecord) {
	s := e.Settings()
	token := strings.TrimSpace(s.TelegramBotToken)
	chatID := strings.TrimSpace(s.TelegramChatID)
	if token == "" || chatID == "" {
		e.Log.Debug("telegram: skip send, bot token or chat id is empty", "quote", q.ID)
		return
	}

	text := quoteMessage(q)

	// ВАЖНО: не используем request-context, а отдельный фоновой контекст
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.sendTelegramMessage(ctx, token, chatID, text); err != nil {
			e.Log.Warn("telegram: notify failed", "quote", q.ID, "err", err)
		}
	}()
}
