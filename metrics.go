package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	feedLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "podview_feed_loads_total",
		Help: "Feed loads by outcome (ok, fetch, parse)",
	}, []string{"result"})

	feedLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "podview_feed_load_duration_seconds",
		Help:    "Time spent fetching, parsing and mapping a feed",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms up to ~25s
	})

	feedEpisodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "podview_feed_episodes",
		Help:    "Number of episodes in successfully loaded feeds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)
