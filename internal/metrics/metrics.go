package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "riddleme"

var (
	// AnswersTotal counts answer submissions by result (correct, wrong, duplicate).
	AnswersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answer submissions by result",
		},
		[]string{"result"},
	)

	// GenerationsTotal counts provider calls by result.
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Riddle generation attempts by result",
		},
		[]string{"result"},
	)

	// RotationsTotal counts riddle rotations by trigger.
	RotationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rotations_total",
			Help:      "Riddle rotations by trigger",
		},
		[]string{"trigger"},
	)

	// RequestDuration tracks HTTP handler latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)

	// FeedSubscribers is the number of connected live-feed clients.
	FeedSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_subscribers",
			Help:      "Connected websocket feed subscribers",
		},
	)
)
