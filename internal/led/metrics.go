package led

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spiled",
		Subsystem: "device",
		Name:      "frames_total",
		Help:      "Frames transferred to the bus",
	}, []string{"device"})

	transferFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spiled",
		Subsystem: "device",
		Name:      "transfer_failures_total",
		Help:      "Bus transfers that could not be submitted",
	}, []string{"device"})

	setupFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spiled",
		Subsystem: "device",
		Name:      "setup_failures_total",
		Help:      "Failed attempts to open and configure a device",
	}, []string{"device"})

	transferSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "spiled",
		Subsystem: "device",
		Name:      "transfer_seconds",
		Help:      "Duration of one bus transfer, settle delay included",
		Buckets:   []float64{.0001, .0005, .001, .002, .005, .01, .025, .05},
	}, []string{"device"})
)
