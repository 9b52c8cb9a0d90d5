package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "configurator_sessions_created_total",
		Help: "Configurator sessions opened",
	}, []string{"product"})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "configurator_sessions_active",
		Help: "Configurator sessions held in memory",
	})

	selectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "configurator_selections_total",
		Help: "Option selections that changed a session",
	}, []string{"product", "component"})

	quotesSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "configurator_quotes_submitted_total",
		Help: "Quote requests accepted",
	}, []string{"product"})

	quoteTotal = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "configurator_quote_total_price",
		Help:    "Total price of submitted quotes",
		Buckets: []float64{5000, 10000, 25000, 50000, 75000, 100000, 150000, 250000},
	}, []string{"product"})

	geocodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "configurator_geocode_requests_total",
		Help: "Postcode distance lookups by outcome",
	}, []string{"outcome"})
)
