package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_api_requests_total",
			Help: "Total number of backend API calls issued by the chat client.",
		},
		[]string{"op", "status"},
	)
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_client_api_request_duration_seconds",
			Help:    "Backend API call latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	pollTicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_client_poll_ticks_total",
			Help: "Total number of inbox poll ticks fired.",
		},
	)
	pollErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_client_poll_errors_total",
			Help: "Total number of inbox poll refreshes that failed.",
		},
	)
	messagesSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_client_messages_sent_total",
			Help: "Total number of messages sent through the store.",
		},
	)
	eventPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_client_event_publish_errors_total",
			Help: "Total number of activity event publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		apiRequestsTotal,
		apiRequestDuration,
		pollTicksTotal,
		pollErrorsTotal,
		messagesSentTotal,
		eventPublishErrorsTotal,
	)
}

// ObserveAPIRequest records one backend call. A status of 0 means the request
// never produced an HTTP response.
func ObserveAPIRequest(op string, status int, elapsed time.Duration) {
	apiRequestsTotal.WithLabelValues(op, strconv.Itoa(status)).Inc()
	apiRequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func IncPollTick() {
	pollTicksTotal.Inc()
}

func IncPollError() {
	pollErrorsTotal.Inc()
}

func IncMessageSent() {
	messagesSentTotal.Inc()
}

func IncEventPublishError() {
	eventPublishErrorsTotal.Inc()
}
