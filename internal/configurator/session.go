package configurator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"configurator-backend/internal/domain"
)

var (
	ErrNotReady          = errors.New("configuration is not at the contact step")
	ErrQuotePostcode     = fmt.Errorf("quote: %w", ErrInvalidPostcode)
	ErrInvalidDimensions = errors.New("dimensions out of range")
)

// DistanceResolver внешний геокодер: индекс -> расстояние от склада, км.
type DistanceResolver interface {
	DistanceKm(ctx context.Context, postcode string) (float64, error)
}

// SummaryLine строка сводки: компонент и его активное значение.
type SummaryLine struct {
	Component string   `json:"component"`
	Name      string   `json:"name"`
	Value     string   `json:"value"`
	Options   []string `json:"options"`
}

// DimensionIssue размер вне допустимого диапазона.
type DimensionIssue struct {
	Axis  Axis `json:"axis"`
	Value int  `json:"value"`
	Min   int  `json:"min"`
	Max   int  `json:"max"`
}

// Quote снапшот для отправки заявки.
type Quote struct {
	Product     string        `json:"product"`
	ProductName string        `json:"productName"`
	Lines       []SummaryLine `json:"lines"`
	Dimensions  Dimensions    `json:"dimensions"`
	Area        float64       `json:"area"`
	Price       Breakdown     `json:"price"`
	Postcode    string        `json:"postcode"`
	DistanceKm  float64       `json:"distanceKm,omitempty"`
}

// State полная проекция сессии для слоя представления.
type State struct {
	Product    string           `json:"product"`
	Selection  Snapshot         `json:"snapshot"`
	Visibility Visibility       `json:"visibility"`
	Price      Breakdown        `json:"price"`
	Layers     []Layer          `json:"layers"`
	Navigation NavState         `json:"navigation"`
	Summary    []SummaryLine    `json:"summary,omitempty"`
	Issues     []DimensionIssue `json:"dimensionIssues,omitempty"`
}

// Session одна сессия конфигурирования. Не потокобезопасна: вызывающий
// обязан сериализовать доступ. Каждая операция выполняет полный пересчёт
// (правила -> цена -> слои -> сводка) до возврата.
type Session struct {
	catalog    *domain.Catalog
	store      *Store
	rules      *RuleEngine
	nav        *Navigator
	compositor *Compositor

	visibility  Visibility
	breakdown   Breakdown
	summary     []SummaryLine
	corrections []Correction
}

// NewSession создаёт сессию со значениями по умолчанию.
func NewSession(c *domain.Catalog) *Session {
	s := &Session{
		catalog:    c,
		store:      NewStore(c),
		rules:      NewRuleEngine(c),
		nav:        NewNavigator(),
		compositor: &Compositor{},
	}
	s.recompute()
	return s
}

func (s *Session) recompute() {
	snap := s.store.Snapshot()
	vis, corrections := s.rules.Recompute(snap)
	for _, c := range corrections {
		s.store.force(c.Component, c.To)
	}
	if len(corrections) > 0 {
		snap = s.store.Snapshot()
	}
	s.corrections = corrections
	s.visibility = vis
	s.breakdown = Price(s.catalog, snap)
	s.compositor.Sync(s.catalog, snap, vis)
	if s.nav.State().Step >= StepLocation {
		s.summary = s.buildSummary(snap)
	}
}

// SelectOption выбирает опцию компонента. Неизвестные ID игнорируются.
func (s *Session) SelectOption(componentID, optionID string) bool {
	if !s.store.SelectOption(componentID, optionID) {
		return false
	}
	s.recompute()
	return true
}

// SetDimension меняет размер; значения вне диапазона принимаются и помечаются.
func (s *Session) SetDimension(axis Axis, value int) bool {
	if !s.store.SetDimension(axis, value) {
		return false
	}
	s.recompute()
	return true
}

// SetAncillary включает доплату (задний подъезд и т.п.).
func (s *Session) SetAncillary(key string, enabled bool) bool {
	if !s.store.SetAncillary(key, enabled) {
		return false
	}
	s.recompute()
	return true
}

// SetPostcode сохраняет индекс; доплата за доставку сбрасывается до ApplyDistance.
// Валидный индекс снимает признак ошибки навигации.
func (s *Session) SetPostcode(raw string) bool {
	if ValidPostcode(raw) {
		s.nav.ClearPostcodeError()
	}
	if !s.store.SetPostcode(raw) {
		return false
	}
	s.recompute()
	return true
}

// ApplyDistance применяет результат геокодинга, если индекс не поменялся.
func (s *Session) ApplyDistance(postcode string, km float64) bool {
	if !s.store.SetDistance(postcode, km) {
		return false
	}
	s.recompute()
	return true
}

// Advance переходит на следующий шаг/вид.
func (s *Session) Advance() error {
	moved, err := s.nav.Advance(ValidPostcode(s.store.postcode))
	if err != nil {
		return err
	}
	if moved && s.nav.State().Step == StepLocation {
		s.summary = s.buildSummary(s.store.Snapshot())
	}
	return nil
}

// Retreat возвращается на шаг/вид назад
func (s *Session) Retreat() bool {
	if !s.nav.Retreat() {
		return false
	}
	if s.nav.State().Step < StepLocation {
		s.summary = nil
	}
	return true
}

// SwitchView переключает вид на первом шаге, выбор и цена не меняются.
func (s *Session) SwitchView(v View) bool {
	return s.nav.SwitchView(v)
}

func (s *Session) Catalog() *domain.Catalog      { return s.catalog }
func (s *Session) Snapshot() Snapshot            { return s.store.Snapshot() }
func (s *Session) Visibility() Visibility        { return s.visibility }
func (s *Session) Price() Breakdown              { return s.breakdown }
func (s *Session) Navigation() NavState          { return s.nav.State() }
func (s *Session) LastCorrections() []Correction { return s.corrections }

// Layers возвращает слои превью для вида
func (s *Session) Layers(view View) []Layer {
	return s.compositor.Layers(view)
}

// Summary возвращает сводку (видимые компоненты и их значения).
func (s *Session) Summary() []SummaryLine {
	if s.summary != nil {
		return s.summary
	}
	return s.buildSummary(s.store.Snapshot())
}

func (s *Session) buildSummary(snap Snapshot) []SummaryLine {
	lines := make([]SummaryLine, 0, len(s.catalog.Components))
	for i := range s.catalog.Components {
		comp := &s.catalog.Components[i]
		if !s.visibility.ComponentVisible(comp.ID) {
			continue
		}
		ids := snap.Active(comp.ID)
		labels := make([]string, 0, len(ids))
		for _, id := range ids {
			if o, ok := comp.Option(id); ok {
				labels = append(labels, o.Label)
			}
		}
		lines = append(lines, SummaryLine{
			Component: comp.ID,
			Name:      comp.Name,
			Value:     strings.Join(labels, ", "),
			Options:   append([]string(nil), ids...),
		})
	}
	return lines
}

// DimensionIssues возвращает размеры вне границ каталога.
func (s *Session) DimensionIssues() []DimensionIssue {
	d := s.store.dims
	var out []DimensionIssue
	for _, c := range []struct {
		axis  Axis
		value int
		r     domain.Range
	}{
		{AxisDepth, d.Depth, s.catalog.Dimensions.Depth},
		{AxisLength, d.Length, s.catalog.Dimensions.Length},
	} {
		if !c.r.Contains(c.value) {
			out = append(out, DimensionIssue{Axis: c.axis, Value: c.value, Min: c.r.Min, Max: c.r.Max})
		}
	}
	return out
}

// State собирает проекцию для текущего вида.
func (s *Session) State() State {
	nav := s.nav.State()
	return State{
		Product:    s.catalog.Product,
		Selection:  s.store.Snapshot(),
		Visibility: s.visibility,
		Price:      s.breakdown,
		Layers:     s.compositor.Layers(nav.View),
		Navigation: nav,
		Summary:    s.summary,
		Issues:     s.DimensionIssues(),
	}
}

// Quote собирает снапшот заявки. Доступно только на шаге контактов,
// при допустимых размерах и валидном индексе (его могли поменять на шаге 3).
func (s *Session) Quote() (Quote, error) {
	if s.nav.State().Step != StepContact {
		return Quote{}, ErrNotReady
	}
	if len(s.DimensionIssues()) > 0 {
		return Quote{}, ErrInvalidDimensions
	}
	snap := s.store.Snapshot()
	if !ValidPostcode(snap.Postcode) {
		return Quote{}, ErrQuotePostcode
	}
	return Quote{
		Product:     s.catalog.Product,
		ProductName: s.catalog.Name,
		Lines:       s.buildSummary(snap),
		Dimensions:  snap.Dimensions,
		Area:        snap.Dimensions.Area(),
		Price:       s.breakdown,
		Postcode:    snap.Postcode,
		DistanceKm:  snap.DistanceKm,
	}, nil
}
