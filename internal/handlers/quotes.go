package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"configurator-backend/internal/configurator"
)

var validate = validator.New()

// QuoteContact контакты клиента из формы третьего шага.
type QuoteContact struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Note  string `json:"note,omitempty" validate:"max=2000"`
}

// QuoteRecord отправленная заявка: снапшот конфигурации и контакты.
type QuoteRecord struct {
	ID        string       `json:"id"`
	SessionID string       `json:"sessionId"`
	CreatedAt time.Time    `json:"createdAt"`
	Contact   QuoteContact `json:"contact"`
	configurator.Quote
}

type quoteError struct {
	Error  string                        `json:"error"`
	Issues []configurator.DimensionIssue `json:"dimensionIssues,omitempty"`
}

// POST /api/sessions/{id}/quote
func (e *Env) handleQuote(w http.ResponseWriter, r *http.Request, entry *sessionEntry) {
	var contact QuoteContact
	if !decodeJSON(w, r, &contact) {
		return
	}
	contact.Name = strings.TrimSpace(contact.Name)
	contact.Email = strings.TrimSpace(contact.Email)
	if err := validate.Struct(contact); err != nil {
		e.writeJSONStatus(w, http.StatusBadRequest, quoteError{Error: err.Error()})
		return
	}

	entry.mu.Lock()
	q, err := entry.session.Quote()
	issues := entry.session.DimensionIssues()
	entry.mu.Unlock()

	switch {
	case errors.Is(err, configurator.ErrNotReady):
		e.writeJSONStatus(w, http.StatusConflict, quoteError{Error: err.Error()})
		return
	case errors.Is(err, configurator.ErrInvalidDimensions):
		e.writeJSONStatus(w, http.StatusUnprocessableEntity, quoteError{Error: err.Error(), Issues: issues})
		return
	case errors.Is(err, configurator.ErrInvalidPostcode):
		e.writeJSONStatus(w, http.StatusUnprocessableEntity, quoteError{Error: err.Error()})
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rec := QuoteRecord{
		ID:        uuid.NewString(),
		SessionID: entry.id,
		CreatedAt: time.Now().UTC(),
		Contact:   contact,
		Quote:     q,
	}

	if err := e.saveQuote(r.Context(), rec); err != nil {
		e.Log.Error("save quote", "quote", rec.ID, "err", err)
		http.Error(w, "cannot save quote", http.StatusInternalServerError)
		return
	}

	quotesSubmitted.WithLabelValues(q.Product).Inc()
	quoteTotal.WithLabelValues(q.Product).Observe(q.Price.Total)
	e.Log.Info("quote submitted", "quote", rec.ID, "session", entry.id, "product", q.Product, "total", q.Price.Total)

	e.NotifyTelegramQuote(rec)
	e.writeJSONStatus(w, http.StatusCreated, rec)
}

// saveQuote пишет заявку в таблицу quotes. Без БД заявка только логируется.
func (e *Env) saveQuote(ctx context.Context, rec QuoteRecord) error {
	if e.DB == nil {
		return nil
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}

	_, err = e.DB.ExecContext(ctx, `
INSERT INTO quotes (id, session_id, product, name, email, phone, postcode, total, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`,
		rec.ID,
		rec.SessionID,
		rec.Product,
		rec.Contact.Name,
		rec.Contact.Email,
		nullableString(rec.Contact.Phone),
		rec.Postcode,
		rec.Price.Total,
		string(payload),
		rec.CreatedAt,
	)
	return err
}

// nullableString превращает пустую строку в NULL для БД.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
