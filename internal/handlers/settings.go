package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

// AdminSettings настройки, доступные администратору через API.
// Хеш пароля наружу не отдаём, токен бота только на запись.
type AdminSettings struct {
	OSRMBaseURL      string `json:"osrmBaseUrl"`
	NominatimBaseURL string `json:"nominatimBaseUrl"`
	DepotAddress     string `json:"depotAddress"`
	TelegramBotToken string `json:"telegramBotToken,omitempty"`
	TelegramChatID   string `json:"telegramChatId"`
	HasTelegramToken bool   `json:"hasTelegramToken"`
}

func adminView(s Settings) AdminSettings {
	return AdminSettings{
		OSRMBaseURL:      s.OSRMBaseURL,
		NominatimBaseURL: s.NominatimBaseURL,
		DepotAddress:     s.DepotAddress,
		TelegramChatID:   s.TelegramChatID,
		HasTelegramToken: s.TelegramBotToken != "",
	}
}

// LoadSettings читает настройки из таблицы settings (id = 1) и применяет их.
// Без БД остаются настройки по умолчанию.
func (e *Env) LoadSettings(ctx context.Context) error {
	if e.DB == nil {
		e.ApplySettings(e.Settings())
		return nil
	}

	var osrm, nominatim, depot, token, chat, hash sql.NullString
	err := e.DB.QueryRowContext(ctx, `
SELECT osrm_base_url, nominatim_base_url, depot_address,
       telegram_bot_token, telegram_chat_id, admin_password_hash
FROM settings
WHERE id = 1;
`).Scan(&osrm, &nominatim, &depot, &token, &chat, &hash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("load settings: %w", err)
	}

	e.ApplySettings(Settings{
		OSRMBaseURL:       osrm.String,
		NominatimBaseURL:  nominatim.String,
		DepotAddress:      depot.String,
		TelegramBotToken:  token.String,
		TelegramChatID:    chat.String,
		AdminPasswordHash: hash.String,
	})
	return nil
}

// UpdateSettings сохраняет настройки в БД (если она есть) и применяет их.
func (e *Env) UpdateSettings(ctx context.Context, s Settings) error {
	if e.DB != nil {
		_, err := e.DB.ExecContext(ctx, `
INSERT INTO settings (id, osrm_base_url, nominatim_base_url, depot_address,
                      telegram_bot_token, telegram_chat_id, admin_password_hash)
VALUES (1, $1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE
  SET osrm_base_url       = EXCLUDED.osrm_base_url,
      nominatim_base_url  = EXCLUDED.nominatim_base_url,
      depot_address       = EXCLUDED.depot_address,
      telegram_bot_token  = EXCLUDED.telegram_bot_token,
      telegram_chat_id    = EXCLUDED.telegram_chat_id,
      admin_password_hash = EXCLUDED.admin_password_hash;
`,
			s.OSRMBaseURL,
			s.NominatimBaseURL,
			s.DepotAddress,
			s.TelegramBotToken,
			s.TelegramChatID,
			s.AdminPasswordHash,
		)
		if err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
	}
	e.ApplySettings(s)
	return nil
}

// GET/POST /api/admin/settings
func (e *Env) HandleAdminSettings(w http.ResponseWriter, r *http.Request) {
	if !e.requireAdmin(w, r) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		e.writeJSON(w, adminView(e.Settings()))

	case http.MethodPost:
		var req AdminSettings
		if !decodeJSON(w, r, &req) {
			return
		}

		// Обновляем только если что-то прислали
		s := e.Settings()
		if req.OSRMBaseURL != "" {
			s.OSRMBaseURL = req.OSRMBaseURL
		}
		if req.NominatimBaseURL != "" {
			s.NominatimBaseURL = req.NominatimBaseURL
		}
		if req.DepotAddress != "" {
			s.DepotAddress = req.DepotAddress
		}
		if req.TelegramBotToken != "" {
			s.TelegramBotToken = req.TelegramBotToken
		}
		if req.TelegramChatID != "" {
			s.TelegramChatID = req.TelegramChatID
		}

		if err := e.UpdateSettings(r.Context(), s); err != nil {
			e.Log.Error("update settings", "err", err)
			http.Error(w, "cannot save settings", http.StatusInternalServerError)
			return
		}
		e.Log.Info("settings updated", "depot", s.DepotAddress)
		e.writeJSON(w, adminView(s))

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
