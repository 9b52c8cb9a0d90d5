package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"configurator-backend/internal/configurator"
)

type createSessionRequest struct {
	Product string `json:"product"`
}

type selectRequest struct {
	Component string `json:"component"`
	Option    string `json:"option"`
}

type dimensionRequest struct {
	Axis  configurator.Axis `json:"axis"`
	Value int               `json:"value"`
}

type ancillaryRequest struct {
	Key     string `json:"key"`
	Enabled bool   `json:"enabled"`
}

type postcodeRequest struct {
	Postcode string `json:"postcode"`
}

type viewRequest struct {
	View configurator.View `json:"view"`
}

type sessionResponse struct {
	ID       string `json:"id"`
	BaseView string `json:"baseView,omitempty"`
	Changed  bool   `json:"changed"`
	Error    string `json:"error,omitempty"`
	configurator.State
}

func (e *Env) sessionState(entry *sessionEntry, changed bool) sessionResponse {
	st := entry.session.State()
	return sessionResponse{
		ID:       entry.id,
		BaseView: entry.session.Catalog().BaseViews[string(st.Navigation.View)],
		Changed:  changed,
		State:    st,
	}
}

// HandleSessions обслуживает POST /api/sessions: новая сессия для продукта.
func (e *Env) HandleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	catalog, ok := e.Products.Get(req.Product)
	if !ok {
		http.Error(w, "unknown product", http.StatusNotFound)
		return
	}

	entry := e.Sessions.Create(catalog)
	sessionsCreated.WithLabelValues(catalog.Product).Inc()
	e.Log.Info("session created", "session", entry.id, "product", catalog.Product)

	entry.mu.Lock()
	resp := e.sessionState(entry, true)
	entry.mu.Unlock()
	e.writeJSONStatus(w, http.StatusCreated, resp)
}

// HandleSession обслуживает /api/sessions/{id} и /api/sessions/{id}/{action}.
//
// GET  {id}            -> текущее состояние
// POST {id}/select     -> выбор опции
// POST {id}/dimensions -> размер
// POST {id}/ancillary  -> доплаты
// POST {id}/postcode   -> индекс (расстояние считается с задержкой)
// POST {id}/view       -> вкладка на первом шаге
// POST {id}/advance, {id}/retreat
// POST {id}/quote      -> заявка
func (e *Env) HandleSession(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" || len(parts) > 2 {
		http.NotFound(w, r)
		return
	}

	entry, ok := e.Sessions.Get(parts[0])
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		entry.mu.Lock()
		resp := e.sessionState(entry, false)
		entry.mu.Unlock()
		e.writeJSON(w, resp)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch parts[1] {
	case "select":
		var req selectRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		e.mutate(w, entry, func(s *configurator.Session) bool {
			changed := s.SelectOption(req.Component, req.Option)
			if changed {
				selectionsTotal.WithLabelValues(s.Catalog().Product, req.Component).Inc()
			}
			return changed
		})

	case "dimensions":
		var req dimensionRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Axis != configurator.AxisDepth && req.Axis != configurator.AxisLength {
			http.Error(w, "axis must be depth or length", http.StatusBadRequest)
			return
		}
		e.mutate(w, entry, func(s *configurator.Session) bool {
			return s.SetDimension(req.Axis, req.Value)
		})

	case "ancillary":
		var req ancillaryRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		e.mutate(w, entry, func(s *configurator.Session) bool {
			return s.SetAncillary(req.Key, req.Enabled)
		})

	case "postcode":
		var req postcodeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		e.handlePostcode(w, entry, req.Postcode)

	case "view":
		var req viewRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		e.mutate(w, entry, func(s *configurator.Session) bool {
			return s.SwitchView(req.View)
		})

	case "advance":
		entry.mu.Lock()
		err := entry.session.Advance()
		resp := e.sessionState(entry, err == nil)
		entry.mu.Unlock()
		if errors.Is(err, configurator.ErrInvalidPostcode) {
			resp.Error = err.Error()
			e.writeJSONStatus(w, http.StatusUnprocessableEntity, resp)
			return
		}
		e.writeJSON(w, resp)

	case "retreat":
		e.mutate(w, entry, func(s *configurator.Session) bool {
			return s.Retreat()
		})

	case "quote":
		e.handleQuote(w, r, entry)

	default:
		http.NotFound(w, r)
	}
}

// mutate выполняет операцию под мьютексом сессии и отдаёт новое состояние.
func (e *Env) mutate(w http.ResponseWriter, entry *sessionEntry, op func(s *configurator.Session) bool) {
	entry.mu.Lock()
	changed := op(entry.session)
	resp := e.sessionState(entry, changed)
	entry.mu.Unlock()
	e.writeJSON(w, resp)
}

// handlePostcode сохраняет индекс сразу, а расстояние запрашивает после паузы во вводе.
func (e *Env) handlePostcode(w http.ResponseWriter, entry *sessionEntry, raw string) {
	entry.mu.Lock()
	changed := entry.session.SetPostcode(raw)
	snap := entry.session.Snapshot()
	resp := e.sessionState(entry, changed)
	entry.mu.Unlock()

	pc := snap.Postcode
	geo := e.geocoder()
	switch {
	case !configurator.ValidPostcode(pc) || geo == nil:
		entry.postcode.Cancel()
	case changed || !snap.HasDistance:
		// повторная отправка того же индекса повторяет неудавшийся запрос
		entry.postcode.Trigger(func() { e.resolveDistance(entry, geo, pc) })
	}
	e.writeJSON(w, resp)
}

func (e *Env) resolveDistance(entry *sessionEntry, geo configurator.DistanceResolver, postcode string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	km, err := geo.DistanceKm(ctx, postcode)
	if err != nil {
		geocodeRequests.WithLabelValues("error").Inc()
		e.Log.Warn("distance lookup failed", "session", entry.id, "postcode", postcode, "err", err)
		return
	}

	entry.mu.Lock()
	applied := entry.session.ApplyDistance(postcode, km)
	entry.mu.Unlock()

	if applied {
		geocodeRequests.WithLabelValues("applied").Inc()
	} else {
		geocodeRequests.WithLabelValues("stale").Inc()
	}
	e.Log.Debug("distance resolved", "session", entry.id, "postcode", postcode, "km", km, "applied", applied)
}
