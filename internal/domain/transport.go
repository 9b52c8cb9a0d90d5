package domain

import "math"

// TransportPricing описывает доплату за доставку по расстоянию от склада.
type TransportPricing struct {
	FreeKm     float64 `yaml:"freeKm" json:"freeKm" validate:"gte=0"`         // бесплатный радиус, км
	PricePerKm float64 `yaml:"pricePerKm" json:"pricePerKm" validate:"gte=0"` // цена за км сверх радиуса
	Minimum    float64 `yaml:"minimum" json:"minimum" validate:"gte=0"`       // минимальная доплата, если радиус превышен
	RoundTrip  bool    `yaml:"roundTrip" json:"roundTrip"`                    // считать путь туда и обратно
}

// Surcharge считает доплату за доставку на distanceKm (в одну сторону).
func (t TransportPricing) Surcharge(distanceKm float64) float64 {
	if distanceKm <= t.FreeKm || t.PricePerKm <= 0 {
		return 0
	}
	km := distanceKm - t.FreeKm
	if t.RoundTrip {
		km *= 2
	}
	return math.Max(RoundHalfUp(km*t.PricePerKm), t.Minimum)
}

// RoundHalfUp округляет до целой единицы валюты, .5 вверх.
func RoundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
