package configurator

import "errors"

type View string

const (
	ViewExterior View = "exterior"
	ViewInterior View = "interior"
)

const (
	StepDesign   = 1 // выбор опций, два вида
	StepLocation = 2 // сводка и индекс
	StepContact  = 3 // заявка
)

var ErrInvalidPostcode = errors.New("invalid postcode")

// NavState текущее положение в мастере
type NavState struct {
	Step          int  `json:"step"`
	View          View `json:"view"`
	PostcodeError bool `json:"postcodeError"`
}

// Navigator линейный мастер: 1/exterior -> 1/interior -> 2 -> 3.
type Navigator struct {
	state NavState
}

func NewNavigator() *Navigator {
	return &Navigator{state: NavState{Step: StepDesign, View: ViewExterior}}
}

func (n *Navigator) State() NavState {
	return n.state
}

// Advance делает шаг вперёд. Переход 2 -> 3 требует валидного индекса;
// при отказе состояние не меняется, выставляется признак ошибки.
func (n *Navigator) Advance(postcodeOK bool) (bool, error) {
	switch {
	case n.state.Step == StepDesign && n.state.View == ViewExterior:
		n.state.View = ViewInterior
	case n.state.Step == StepDesign:
		// сводка и контакты показывают готовый продукт снаружи
		n.state.Step = StepLocation
		n.state.View = ViewExterior
	case n.state.Step == StepLocation:
		if !postcodeOK {
			n.state.PostcodeError = true
			return false, ErrInvalidPostcode
		}
		n.state.PostcodeError = false
		n.state.Step = StepContact
	default:
		return false, nil
	}
	return true, nil
}

// Retreat делает шаг назад, всегда разрешён.
func (n *Navigator) Retreat() bool {
	switch {
	case n.state.Step == StepContact:
		n.state.Step = StepLocation
	case n.state.Step == StepLocation:
		n.state.Step = StepDesign
		n.state.View = ViewInterior
		n.state.PostcodeError = false
	case n.state.View == ViewInterior:
		n.state.View = ViewExterior
	default:
		return false
	}
	return true
}

// ClearPostcodeError снимает признак ошибки индекса.
func (n *Navigator) ClearPostcodeError() {
	n.state.PostcodeError = false
}

// SwitchView переключает вид (вкладки) на первом шаге.
func (n *Navigator) SwitchView(v View) bool {
	if n.state.Step != StepDesign || (v != ViewExterior && v != ViewInterior) || n.state.View == v {
		return false
	}
	n.state.View = v
	return true
}
