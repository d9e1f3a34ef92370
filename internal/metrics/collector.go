// Package metrics exposes Prometheus instruments for the studio services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests and multiple services in one
// process do not collide on the default one. A nil Collector records nothing.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	imageBytes         prometheus.Histogram

	galleryOps *prometheus.CounterVec
}

// NewCollector registers every instrument under namespace.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{registry: reg}

	c.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	c.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	c.generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Image generations by flow and outcome",
		},
		[]string{"flow", "outcome"},
	)
	c.generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time spent waiting for the image model",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 180},
		},
		[]string{"flow"},
	)
	c.imageBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generated_image_bytes",
			Help:      "Size of stored images in bytes",
			Buckets:   prometheus.ExponentialBuckets(64*1024, 2, 8),
		},
	)
	c.galleryOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gallery_operations_total",
			Help:      "Gallery document operations by kind and result",
		},
		[]string{"op", "result"},
	)

	reg.MustRegister(
		c.httpRequestsTotal,
		c.httpRequestDuration,
		c.generationsTotal,
		c.generationDuration,
		c.imageBytes,
		c.galleryOps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, took time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

// RecordGeneration counts one generation attempt. outcome is "success" or an
// error kind.
func (c *Collector) RecordGeneration(flow, outcome string, took time.Duration, size int) {
	if c == nil {
		return
	}
	c.generationsTotal.WithLabelValues(flow, outcome).Inc()
	c.generationDuration.WithLabelValues(flow).Observe(took.Seconds())
	if size > 0 {
		c.imageBytes.Observe(float64(size))
	}
}

func (c *Collector) RecordGalleryOp(op string, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.galleryOps.WithLabelValues(op, result).Inc()
}
