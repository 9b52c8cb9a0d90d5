package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Arity string

const (
	AritySingle Arity = "single"
	ArityMulti  Arity = "multi" // чекбоксы с опцией "нет"
)

type LayerClass string

const (
	ClassExterior LayerClass = "exterior"
	ClassInterior LayerClass = "interior"
)

// Family описывает семейство материала опции (кирпич, кералит, кедр...).
type Family string

const (
	FamilyBrick   Family = "brick"
	FamilyKeralit Family = "keralit"
	FamilyCedar   Family = "cedar"
	FamilyPlaster Family = "plaster"
	FamilyGlass   Family = "glass"
)

// порядок важен: проверяются подстроки в lower-case подписи
var familyKeywords = []struct {
	keyword string
	family  Family
}{
	{"brick", FamilyBrick},
	{"steenstrip", FamilyBrick},
	{"keralit", FamilyKeralit},
	{"cedar", FamilyCedar},
	{"ceder", FamilyCedar},
	{"plaster", FamilyPlaster},
	{"stucco", FamilyPlaster},
	{"glass", FamilyGlass},
}

var toneKeywords = []string{"red", "grey", "anthracite", "black", "white", "sand"}

var ErrInvalidCatalog = errors.New("invalid catalog")

// Option описывает одно значение компонента (и его слой превью)
type Option struct {
	ID      string     `yaml:"id" json:"id" validate:"required"`
	Label   string     `yaml:"label" json:"label" validate:"required"`
	Price   float64    `yaml:"price" json:"price" validate:"gte=0"`
	Image   string     `yaml:"image,omitempty" json:"image,omitempty"`
	Class   LayerClass `yaml:"class" json:"class" validate:"oneof=exterior interior"`
	Z       int        `yaml:"z" json:"z"`
	Default bool       `yaml:"default,omitempty" json:"default,omitempty"`
	None    bool       `yaml:"none,omitempty" json:"none,omitempty"`
	Group   string     `yaml:"group,omitempty" json:"group,omitempty"`

	// заполняются при загрузке каталога, если не заданы явно
	Families []Family `yaml:"families,omitempty" json:"families,omitempty"`
	Tone     string   `yaml:"tone,omitempty" json:"tone,omitempty"`
}

// HasFamily сообщает, помечена ли опция одним из семейств.
func (o Option) HasFamily(fams ...Family) bool {
	for _, f := range o.Families {
		for _, want := range fams {
			if f == want {
				return true
			}
		}
	}
	return false
}

type Component struct {
	ID      string   `yaml:"id" json:"id" validate:"required"`
	Name    string   `yaml:"name" json:"name" validate:"required"`
	Arity   Arity    `yaml:"arity" json:"arity" validate:"oneof=single multi"`
	Options []Option `yaml:"options" json:"options" validate:"required,min=1,dive"`
}

// Option ищет опцию по ID
func (c *Component) Option(id string) (*Option, bool) {
	for i := range c.Options {
		if c.Options[i].ID == id {
			return &c.Options[i], true
		}
	}
	return nil, false
}

// DefaultOption возвращает первую опцию с флагом default (для single обязана быть).
func (c *Component) DefaultOption() *Option {
	for i := range c.Options {
		if c.Options[i].Default {
			return &c.Options[i]
		}
	}
	return nil
}

// NoneOption возвращает опцию-отрицание multi-компонента.
func (c *Component) NoneOption() *Option {
	for i := range c.Options {
		if c.Options[i].None {
			return &c.Options[i]
		}
	}
	return nil
}

// DefaultSelection возвращает стартовый набор активных опций.
func (c *Component) DefaultSelection() []string {
	if c.Arity == ArityMulti {
		var ids []string
		for _, o := range c.Options {
			if o.Default && !o.None {
				ids = append(ids, o.ID)
			}
		}
		if len(ids) == 0 {
			if none := c.NoneOption(); none != nil {
				ids = []string{none.ID}
			}
		}
		return ids
	}
	if d := c.DefaultOption(); d != nil {
		return []string{d.ID}
	}
	return nil
}

type RuleEffect string

const (
	EffectShow RuleEffect = "show" // виден только когда предикат выполнен
	EffectHide RuleEffect = "hide" // скрыт, когда предикат выполнен
)

// Rule: значение trigger управляет видимостью dependent.
type Rule struct {
	Trigger   string     `yaml:"trigger" json:"trigger" validate:"required"`
	Dependent string     `yaml:"dependent" json:"dependent" validate:"required"`
	Families  []Family   `yaml:"families" json:"families" validate:"required,min=1"`
	Effect    RuleEffect `yaml:"effect" json:"effect" validate:"oneof=show hide"`

	// оставить у dependent только опции того же семейства, что и у trigger
	FilterOptions bool `yaml:"filterOptions,omitempty" json:"filterOptions,omitempty"`
	// для этих семейств дополнительно должен совпасть цвет (tone)
	MatchTone []Family `yaml:"matchTone,omitempty" json:"matchTone,omitempty"`
}

// Matches проверяет предикат правила для активной опции trigger.
func (r Rule) Matches(active Option) bool {
	return active.HasFamily(r.Families...)
}

// Covers сообщает, входит ли семейство в предикат правила.
func (r Rule) Covers(f Family) bool {
	for _, rf := range r.Families {
		if rf == f {
			return true
		}
	}
	return false
}

// NeedsTone сообщает, нужно ли совпадение цвета для семейства f.
func (r Rule) NeedsTone(f Family) bool {
	for _, t := range r.MatchTone {
		if t == f {
			return true
		}
	}
	return false
}

type Range struct {
	Min     int `yaml:"min" json:"min"`
	Max     int `yaml:"max" json:"max" validate:"gtefield=Min"`
	Default int `yaml:"default" json:"default"`
}

// Contains сообщает, лежит ли v в [Min, Max].
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

type DimensionBounds struct {
	Depth  Range `yaml:"depth" json:"depth"`
	Length Range `yaml:"length" json:"length"`
}

// AreaRate описывает двухступенчатую цену за м².
type AreaRate struct {
	Threshold float64 `yaml:"threshold" json:"threshold" validate:"gt=0"`
	Rate1     float64 `yaml:"rate1" json:"rate1" validate:"gte=0"`
	Rate2     float64 `yaml:"rate2" json:"rate2" validate:"gte=0"`
}

// Ancillary описывает доплату за внешний признак (задний подъезд, пробой стены).
type Ancillary struct {
	Key   string  `yaml:"key" json:"key" validate:"required"`
	Label string  `yaml:"label" json:"label"`
	Price float64 `yaml:"price" json:"price" validate:"gte=0"`
}

// Catalog описывает один продукт: компоненты, правила и прайс.
type Catalog struct {
	Product     string            `yaml:"product" json:"product" validate:"required"`
	Name        string            `yaml:"name" json:"name" validate:"required"`
	BaseViews   map[string]string `yaml:"baseViews,omitempty" json:"baseViews,omitempty"` // view -> базовая картинка
	Dimensions  DimensionBounds   `yaml:"dimensions" json:"dimensions"`
	BaseRate    *AreaRate         `yaml:"baseRate,omitempty" json:"baseRate,omitempty"`
	Transport   TransportPricing  `yaml:"transport" json:"transport"`
	Ancillaries []Ancillary       `yaml:"ancillaries,omitempty" json:"ancillaries,omitempty" validate:"dive"`
	Components  []Component       `yaml:"components" json:"components" validate:"required,min=1,dive"`
	Rules       []Rule            `yaml:"rules,omitempty" json:"rules,omitempty" validate:"dive"`
}

// Component ищет компонент по ID
func (c *Catalog) Component(id string) (*Component, bool) {
	for i := range c.Components {
		if c.Components[i].ID == id {
			return &c.Components[i], true
		}
	}
	return nil, false
}

// Ancillary ищет доплату по ключу
func (c *Catalog) Ancillary(key string) (Ancillary, bool) {
	for _, a := range c.Ancillaries {
		if a.Key == key {
			return a, true
		}
	}
	return Ancillary{}, false
}

// RuleFor возвращает правило, которому подчинён компонент.
func (c *Catalog) RuleFor(dependent string) (Rule, bool) {
	for _, r := range c.Rules {
		if r.Dependent == dependent {
			return r, true
		}
	}
	return Rule{}, false
}

var catalogValidate = validator.New()

// Prepare проставляет теги семейств и проверяет каталог.
func (c *Catalog) Prepare() error {
	for i := range c.Components {
		for j := range c.Components[i].Options {
			tagOption(&c.Components[i].Options[j])
		}
	}
	return c.Validate()
}

// Validate проверяет структуру каталога и граф правил.
func (c *Catalog) Validate() error {
	if err := catalogValidate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	seen := map[string]bool{}
	for i := range c.Components {
		comp := &c.Components[i]
		if seen[comp.ID] {
			return fmt.Errorf("%w: duplicate component %q", ErrInvalidCatalog, comp.ID)
		}
		seen[comp.ID] = true
		if err := validateComponent(comp); err != nil {
			return err
		}
	}

	triggers := map[string]bool{}
	for _, r := range c.Rules {
		triggers[r.Trigger] = true
	}
	dependents := map[string]bool{}
	for _, r := range c.Rules {
		trig, ok := c.Component(r.Trigger)
		if !ok {
			return fmt.Errorf("%w: rule trigger %q not found", ErrInvalidCatalog, r.Trigger)
		}
		if trig.Arity != AritySingle {
			return fmt.Errorf("%w: rule trigger %q must be single", ErrInvalidCatalog, r.Trigger)
		}
		if _, ok := c.Component(r.Dependent); !ok {
			return fmt.Errorf("%w: rule dependent %q not found", ErrInvalidCatalog, r.Dependent)
		}
		if r.Trigger == r.Dependent || triggers[r.Dependent] {
			// только один уровень зависимостей, без циклов
			return fmt.Errorf("%w: component %q is both trigger and dependent", ErrInvalidCatalog, r.Dependent)
		}
		if dependents[r.Dependent] {
			return fmt.Errorf("%w: component %q has more than one rule", ErrInvalidCatalog, r.Dependent)
		}
		dependents[r.Dependent] = true
	}

	for _, d := range []struct {
		name string
		r    Range
	}{{"depth", c.Dimensions.Depth}, {"length", c.Dimensions.Length}} {
		if d.r.Max <= 0 {
			return fmt.Errorf("%w: %s bounds missing", ErrInvalidCatalog, d.name)
		}
		if !d.r.Contains(d.r.Default) {
			return fmt.Errorf("%w: %s default %d out of bounds", ErrInvalidCatalog, d.name, d.r.Default)
		}
	}
	return nil
}

func validateComponent(comp *Component) error {
	ids := map[string]bool{}
	defaults, nones := 0, 0
	noneDefault := false
	for _, o := range comp.Options {
		if ids[o.ID] {
			return fmt.Errorf("%w: duplicate option %q in %q", ErrInvalidCatalog, o.ID, comp.ID)
		}
		ids[o.ID] = true
		if o.None {
			nones++
			noneDefault = o.Default
			continue
		}
		if o.Default {
			defaults++
		}
	}
	if noneDefault && defaults > 0 {
		return fmt.Errorf("%w: none option of %q combined with defaults", ErrInvalidCatalog, comp.ID)
	}

	switch comp.Arity {
	case AritySingle:
		if defaults != 1 {
			return fmt.Errorf("%w: component %q needs exactly one default, got %d", ErrInvalidCatalog, comp.ID, defaults)
		}
		if nones > 0 {
			return fmt.Errorf("%w: single component %q cannot have a none option", ErrInvalidCatalog, comp.ID)
		}
	case ArityMulti:
		if nones != 1 {
			return fmt.Errorf("%w: multi component %q needs exactly one none option", ErrInvalidCatalog, comp.ID)
		}
	}
	return nil
}

// tagOption выводит семейства и цвет из подписи (подстроки в lower-case).
func tagOption(o *Option) {
	label := strings.ToLower(o.Label + " " + o.ID)
	if len(o.Families) == 0 {
		for _, fk := range familyKeywords {
			if strings.Contains(label, fk.keyword) && !o.HasFamily(fk.family) {
				o.Families = append(o.Families, fk.family)
			}
		}
	}
	if o.Tone == "" {
		for _, t := range toneKeywords {
			if strings.Contains(label, t) {
				o.Tone = t
			}
		}
	}
}
