package metrics

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	inboundMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lista_inbound_messages_total",
			Help: "Inbound WhatsApp messages by outcome (handled/duplicate/rate_limited/ignored).",
		},
		[]string{"outcome"},
	)

	dialogTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lista_dialog_transitions_total",
			Help: "Conversation state transitions.",
		},
		[]string{"from", "to"},
	)

	dialogErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lista_dialog_errors_total",
			Help: "Dialog faults that forced a session reset, by catalog error type.",
		},
		[]string{"type"},
	)

	catalogFetchMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lista_catalog_fetch_latency_ms",
			Help:    "Catalog (Google Sheets) read latency in milliseconds.",
			Buckets: []float64{25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
		},
		[]string{"op", "success"},
	)

	outboundFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lista_outbound_failures_total",
			Help: "Replies that the WhatsApp API rejected or that failed to send.",
		},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			inboundMessages, dialogTransitions, dialogErrors,
			catalogFetchMs, outboundFailures,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncInbound(outcome string) {
	inboundMessages.WithLabelValues(norm(outcome)).Inc()
}

func IncTransition(from, to string) {
	dialogTransitions.WithLabelValues(norm(from), norm(to)).Inc()
}

func IncDialogError(errType string) {
	dialogErrors.WithLabelValues(norm(errType)).Inc()
}

func ObserveCatalogFetch(op string, elapsed time.Duration, success bool) {
	catalogFetchMs.WithLabelValues(norm(op), strconv.FormatBool(success)).
		Observe(float64(elapsed.Milliseconds()))
}

func IncOutboundFailure() {
	outboundFailures.Inc()
}
