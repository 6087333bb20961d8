package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	clicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heartclick_clicks_total",
			Help: "Clicks on the game surface by outcome.",
		},
		[]string{"outcome"},
	)

	purchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heartclick_purchases_total",
			Help: "Shop purchases by item.",
		},
		[]string{"item"},
	)

	victoriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heartclick_victories_total",
		Help: "Sessions that reached full affection.",
	})

	videoPlaysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heartclick_video_plays_total",
			Help: "Fullscreen video plays by video id.",
		},
		[]string{"video"},
	)

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "heartclick_sessions_active",
		Help: "Sessions currently held in memory.",
	})

	sessionsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heartclick_sessions_evicted_total",
		Help: "Idle sessions closed by the janitor.",
	})
)
