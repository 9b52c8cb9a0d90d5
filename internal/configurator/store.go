// Package configurator содержит движок состояния конфигуратора: выбор опций,
// правила видимости, расчёт цены, слои превью и шаги мастера.
package configurator

import (
	"configurator-backend/internal/domain"
)

type Axis string

const (
	AxisDepth  Axis = "depth"
	AxisLength Axis = "length"
)

// Dimensions хранит размеры в сантиметрах как их ввёл пользователь.
type Dimensions struct {
	Depth  int `json:"depth"`
	Length int `json:"length"`
}

// Area возвращает площадь в м².
func (d Dimensions) Area() float64 {
	return float64(d.Depth) * float64(d.Length) / 10000
}

// Snapshot неизменяемая копия состояния стора.
type Snapshot struct {
	Selection     map[string][]string `json:"selection"`
	Dimensions    Dimensions          `json:"dimensions"`
	Ancillaries   map[string]bool     `json:"ancillaries"`
	Postcode      string              `json:"postcode"`
	PostcodeValid bool                `json:"postcodeValid"`
	DistanceKm    float64             `json:"distanceKm"`
	HasDistance   bool                `json:"hasDistance"`
}

// Active возвращает активные опции компонента
func (s Snapshot) Active(componentID string) []string {
	return s.Selection[componentID]
}

// IsActive сообщает, активна ли опция.
func (s Snapshot) IsActive(componentID, optionID string) bool {
	return contains(s.Selection[componentID], optionID)
}

// Store единственный источник правды по выбору пользователя.
type Store struct {
	catalog     *domain.Catalog
	selection   map[string][]string
	dims        Dimensions
	ancillaries map[string]bool
	postcode    string
	distanceKm  float64
	hasDistance bool
}

// NewStore создаёт стор со значениями по умолчанию из каталога.
func NewStore(c *domain.Catalog) *Store {
	s := &Store{
		catalog:     c,
		selection:   make(map[string][]string, len(c.Components)),
		ancillaries: map[string]bool{},
		dims: Dimensions{
			Depth:  c.Dimensions.Depth.Default,
			Length: c.Dimensions.Length.Default,
		},
	}
	for i := range c.Components {
		comp := &c.Components[i]
		s.selection[comp.ID] = comp.DefaultSelection()
	}
	return s
}

// SelectOption выбирает опцию. Для multi переключает её с учётом опции "нет".
// Неизвестные ID молча игнорируются. Возвращает true, если выбор изменился.
func (s *Store) SelectOption(componentID, optionID string) bool {
	comp, ok := s.catalog.Component(componentID)
	if !ok {
		return false
	}
	opt, ok := comp.Option(optionID)
	if !ok {
		return false
	}

	active := s.selection[comp.ID]
	var next []string
	if comp.Arity == domain.AritySingle {
		next = []string{opt.ID}
	} else {
		next = toggle(comp, active, opt)
	}
	if equalIDs(active, next) {
		return false
	}
	s.selection[comp.ID] = next
	return true
}

func toggle(comp *domain.Component, active []string, opt *domain.Option) []string {
	none := comp.NoneOption()
	if opt.None {
		return []string{opt.ID}
	}

	set := map[string]bool{}
	for _, id := range active {
		set[id] = true
	}
	if set[opt.ID] {
		delete(set, opt.ID)
	} else {
		set[opt.ID] = true
		for _, o := range comp.Options {
			if o.None || (opt.Group != "" && o.Group == opt.Group && o.ID != opt.ID) {
				delete(set, o.ID)
			}
		}
	}

	next := make([]string, 0, len(set))
	for _, o := range comp.Options {
		if set[o.ID] && !o.None {
			next = append(next, o.ID)
		}
	}
	if len(next) == 0 && none != nil {
		next = []string{none.ID}
	}
	return next
}

// force выставляет выбор без проверок (коррекции движка правил).
func (s *Store) force(componentID string, ids []string) {
	s.selection[componentID] = append([]string(nil), ids...)
}

// SetDimension сохраняет значение как есть, даже вне допустимых границ.
func (s *Store) SetDimension(axis Axis, value int) bool {
	switch axis {
	case AxisDepth:
		if s.dims.Depth == value {
			return false
		}
		s.dims.Depth = value
	case AxisLength:
		if s.dims.Length == value {
			return false
		}
		s.dims.Length = value
	default:
		return false
	}
	return true
}

// SetAncillary включает/выключает доплату из каталога.
func (s *Store) SetAncillary(key string, enabled bool) bool {
	if _, ok := s.catalog.Ancillary(key); !ok {
		return false
	}
	if s.ancillaries[key] == enabled {
		return false
	}
	if enabled {
		s.ancillaries[key] = true
	} else {
		delete(s.ancillaries, key)
	}
	return true
}

// SetPostcode сохраняет введённый индекс. Доплата за доставку сбрасывается
// до следующей успешной проверки.
func (s *Store) SetPostcode(raw string) bool {
	pc := NormalizePostcode(raw)
	if pc == s.postcode {
		return false
	}
	s.postcode = pc
	s.distanceKm = 0
	s.hasDistance = false
	return true
}

// SetDistance применяет расстояние, только если индекс всё ещё актуален и валиден.
func (s *Store) SetDistance(postcode string, km float64) bool {
	if NormalizePostcode(postcode) != s.postcode || !ValidPostcode(s.postcode) || km < 0 {
		return false
	}
	s.distanceKm = km
	s.hasDistance = true
	return true
}

// Snapshot возвращает копию текущего состояния
func (s *Store) Snapshot() Snapshot {
	sel := make(map[string][]string, len(s.selection))
	for k, v := range s.selection {
		sel[k] = append([]string(nil), v...)
	}
	anc := make(map[string]bool, len(s.ancillaries))
	for k, v := range s.ancillaries {
		anc[k] = v
	}
	return Snapshot{
		Selection:     sel,
		Dimensions:    s.dims,
		Ancillaries:   anc,
		Postcode:      s.postcode,
		PostcodeValid: ValidPostcode(s.postcode),
		DistanceKm:    s.distanceKm,
		HasDistance:   s.hasDistance,
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
