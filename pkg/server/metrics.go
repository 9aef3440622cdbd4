package server

import (
	"net/http"

	"github.com/ITestLab/atlassianwebhookapi/pkg/signature"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "webhook"

type serverMetrics struct {
	registry *prometheus.Registry

	signatureValidationsTotal *prometheus.CounterVec
	requestBodyBytes          prometheus.Histogram
}

// Create the metrics on a dedicated registry, so multiple servers can coexist in one process
func newServerMetrics() *serverMetrics {
	m := &serverMetrics{
		registry: prometheus.NewRegistry(),
		signatureValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "signature_validations_total",
				Help:      "The total number of webhook signature validations by result",
			},
			[]string{"result"},
		),
		requestBodyBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "request_body_bytes",
				Help:      "Size of the captured raw request bodies in bytes",
				Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
			},
		),
	}

	m.registry.MustRegister(
		m.signatureValidationsTotal,
		m.requestBodyBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Initialize all results, so they are exported before the first request
	for _, status := range []signature.Status{
		signature.StatusValid,
		signature.StatusMissingSignature,
		signature.StatusMalformedSignature,
		signature.StatusUnsupportedAlgorithm,
		signature.StatusSignatureMismatch,
	} {
		m.signatureValidationsTotal.WithLabelValues(status.String())
	}

	return m
}

func (m *serverMetrics) observeValidation(result signature.Result) {
	m.signatureValidationsTotal.WithLabelValues(result.Status.String()).Inc()
}

func (m *serverMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
