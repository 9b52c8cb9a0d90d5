package configurator

import (
	"configurator-backend/internal/domain"
)

// PriceLine строка доплаты в разбивке цены
type PriceLine struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// Breakdown разбивка цены. Всегда вычисляется заново из снапшота.
type Breakdown struct {
	Exterior   float64     `json:"exterior"`
	Interior   float64     `json:"interior"`
	Base       float64     `json:"base"`
	Total      float64     `json:"total"`
	Area       float64     `json:"area"`
	Surcharges []PriceLine `json:"surcharges,omitempty"` // уже включены в Exterior
}

const transportKey = "transport"

// Price считает цену конфигурации. Чистая функция.
func Price(c *domain.Catalog, snap Snapshot) Breakdown {
	var b Breakdown

	for i := range c.Components {
		comp := &c.Components[i]
		for _, id := range snap.Active(comp.ID) {
			opt, ok := comp.Option(id)
			if !ok || opt.None {
				continue
			}
			switch opt.Class {
			case domain.ClassInterior:
				b.Interior += opt.Price
			default:
				b.Exterior += opt.Price
			}
		}
	}

	for _, a := range c.Ancillaries {
		if snap.Ancillaries[a.Key] {
			b.Exterior += a.Price
			b.Surcharges = append(b.Surcharges, PriceLine{Key: a.Key, Label: a.Label, Amount: a.Price})
		}
	}
	if snap.HasDistance {
		if fee := c.Transport.Surcharge(snap.DistanceKm); fee > 0 {
			b.Exterior += fee
			b.Surcharges = append(b.Surcharges, PriceLine{Key: transportKey, Label: "Transport", Amount: fee})
		}
	}

	b.Area = snap.Dimensions.Area()
	b.Base = BasePrice(c.BaseRate, b.Area)
	b.Total = b.Base + b.Exterior + b.Interior
	return b
}

// BasePrice считает двухступенчатую цену по площади, округление half-up.
// Без тарифа (или при неположительной площади) базовая цена 0.
func BasePrice(rate *domain.AreaRate, area float64) float64 {
	if rate == nil || area <= 0 {
		return 0
	}
	if area <= rate.Threshold {
		return domain.RoundHalfUp(area * rate.Rate1)
	}
	return domain.RoundHalfUp(rate.Threshold*rate.Rate1 + (area-rate.Threshold)*rate.Rate2)
}
