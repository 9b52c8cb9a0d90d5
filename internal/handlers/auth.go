package handlers

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

const adminLogin = "admin"

var ErrWeakPassword = errors.New("password must be at least 8 characters")

// requireAdmin проверяет Basic-авторизацию администратора.
// Пароль хранится bcrypt-хешем в settings.admin_password_hash.
func (e *Env) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	hash := e.Settings().AdminPasswordHash
	if hash == "" {
		http.Error(w, "admin password is not configured", http.StatusForbidden)
		return false
	}

	login, password, ok := r.BasicAuth()
	if !ok || login != adminLogin ||
		bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		w.Header().Set("WWW-Authenticate", `Basic realm="configurator"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

// SetAdminPassword сохраняет новый пароль администратора (bcrypt-хеш).
func (e *Env) SetAdminPassword(ctx context.Context, password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s := e.Settings()
	s.AdminPasswordHash = string(hash)
	return e.UpdateSettings(ctx, s)
}
