package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"configurator-backend/internal/domain"
)

const maxCatalogSize = 1 << 20

// GET /api/products
func (e *Env) HandleProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	e.writeJSON(w, e.Products.List())
}

// HandleProductCatalog обслуживает /api/products/{id}/catalog:
//
//	GET  -> каталог продукта
//	POST -> замена каталога (только админ; тело YAML или JSON)
//
// Открытые сессии продолжают работать со старым каталогом.
func (e *Env) HandleProductCatalog(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/products/"), "/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "catalog" {
		http.NotFound(w, r)
		return
	}
	productID := parts[0]

	switch r.Method {
	case http.MethodGet:
		c, ok := e.Products.Get(productID)
		if !ok {
			http.Error(w, "unknown product", http.StatusNotFound)
			return
		}
		e.writeJSON(w, c)

	case http.MethodPost:
		if !e.requireAdmin(w, r) {
			return
		}
		defer r.Body.Close()

		data, err := io.ReadAll(io.LimitReader(r.Body, maxCatalogSize))
		if err != nil {
			http.Error(w, "cannot read body: "+err.Error(), http.StatusBadRequest)
			return
		}
		// JSON является подмножеством YAML, один разборщик на оба формата
		c, err := domain.LoadCatalog(data)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, domain.ErrInvalidCatalog) {
				status = http.StatusUnprocessableEntity
			}
			http.Error(w, err.Error(), status)
			return
		}
		if c.Product != productID {
			http.Error(w, "catalog product does not match url", http.StatusBadRequest)
			return
		}

		e.Products.Put(c)
		e.Log.Info("catalog replaced", "product", c.Product, "components", len(c.Components), "rules", len(c.Rules))
		e.writeJSON(w, c)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
