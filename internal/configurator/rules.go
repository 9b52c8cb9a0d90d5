package configurator

import (
	"configurator-backend/internal/domain"
)

// Visibility описывает, какие компоненты и опции сейчас скрыты правилами.
type Visibility struct {
	HiddenComponents map[string]bool            `json:"hiddenComponents"`
	HiddenOptions    map[string]map[string]bool `json:"hiddenOptions"`
}

// ComponentVisible сообщает, виден ли компонент
func (v Visibility) ComponentVisible(id string) bool {
	return !v.HiddenComponents[id]
}

// OptionVisible сообщает, видна ли опция (и её компонент).
func (v Visibility) OptionVisible(componentID, optionID string) bool {
	if v.HiddenComponents[componentID] {
		return false
	}
	return !v.HiddenOptions[componentID][optionID]
}

// Correction принудительная замена выбора компонента.
type Correction struct {
	Component string   `json:"component"`
	From      []string `json:"from"`
	To        []string `json:"to"`
}

// RuleEngine считает видимость по правилам каталога. Граф правил проверен
// при загрузке каталога (один уровень, без циклов), поэтому хватает одного прохода.
type RuleEngine struct {
	catalog *domain.Catalog
}

func NewRuleEngine(c *domain.Catalog) *RuleEngine {
	return &RuleEngine{catalog: c}
}

// Recompute возвращает видимость и коррекции выбора для снапшота.
func (e *RuleEngine) Recompute(snap Snapshot) (Visibility, []Correction) {
	vis := Visibility{
		HiddenComponents: map[string]bool{},
		HiddenOptions:    map[string]map[string]bool{},
	}
	var corrections []Correction

	for _, rule := range e.catalog.Rules {
		trig, ok := e.catalog.Component(rule.Trigger)
		if !ok {
			continue
		}
		dep, ok := e.catalog.Component(rule.Dependent)
		if !ok {
			continue
		}
		active := snap.Active(dep.ID)

		trigOpt := activeSingle(trig, snap)
		matched := trigOpt != nil && rule.Matches(*trigOpt)
		shown := matched
		if rule.Effect == domain.EffectHide {
			shown = !matched
		}

		var hiddenOpts map[string]bool
		if shown && rule.FilterOptions && trigOpt != nil {
			hiddenOpts = filterOptions(rule, dep, *trigOpt)
			if len(hiddenOpts) == len(dep.Options) {
				shown = false
			}
		}

		if !shown {
			vis.HiddenComponents[dep.ID] = true
			if def := dep.DefaultSelection(); !equalIDs(active, def) {
				corrections = append(corrections, Correction{Component: dep.ID, From: active, To: def})
			}
			continue
		}

		if len(hiddenOpts) == 0 {
			continue
		}
		vis.HiddenOptions[dep.ID] = hiddenOpts
		if next := keepVisible(dep, active, hiddenOpts); !equalIDs(active, next) {
			corrections = append(corrections, Correction{Component: dep.ID, From: active, To: next})
		}
	}

	return vis, corrections
}

func activeSingle(comp *domain.Component, snap Snapshot) *domain.Option {
	ids := snap.Active(comp.ID)
	if len(ids) == 0 {
		return nil
	}
	opt, ok := comp.Option(ids[0])
	if !ok {
		return nil
	}
	return opt
}

// filterOptions скрывает опции dependent, не разделяющие семейство с trigger.
// Опция "нет" никогда не скрывается.
func filterOptions(rule domain.Rule, dep *domain.Component, trig domain.Option) map[string]bool {
	hidden := map[string]bool{}
	for _, o := range dep.Options {
		if o.None {
			continue
		}
		if !sharesFamily(rule, o, trig) {
			hidden[o.ID] = true
		}
	}
	return hidden
}

func sharesFamily(rule domain.Rule, o, trig domain.Option) bool {
	for _, f := range trig.Families {
		if !rule.Covers(f) || !o.HasFamily(f) {
			continue
		}
		if rule.NeedsTone(f) && o.Tone != trig.Tone {
			continue
		}
		return true
	}
	return false
}

// keepVisible убирает из выбора скрытые опции: single переходит на default,
// если он виден, иначе на первую видимую; multi откатывается к видимой
// части default, а если её нет, к "нет".
func keepVisible(dep *domain.Component, active []string, hidden map[string]bool) []string {
	if dep.Arity == domain.ArityMulti {
		var next []string
		for _, id := range active {
			if !hidden[id] {
				next = append(next, id)
			}
		}
		if len(next) > 0 {
			return next
		}
		for _, id := range dep.DefaultSelection() {
			if !hidden[id] {
				next = append(next, id)
			}
		}
		if len(next) == 0 {
			if none := dep.NoneOption(); none != nil {
				return []string{none.ID}
			}
		}
		return next
	}

	if len(active) == 1 && !hidden[active[0]] {
		return active
	}
	if def := dep.DefaultOption(); def != nil && !hidden[def.ID] {
		return []string{def.ID}
	}
	for _, o := range dep.Options {
		if !hidden[o.ID] {
			return []string{o.ID}
		}
	}
	return active
}
