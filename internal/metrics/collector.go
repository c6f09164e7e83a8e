// Package metrics collects Prometheus metrics for request dispatch and tool calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DefaultNamespace はメトリクス名の接頭辞
const DefaultNamespace = "mcp_notes"

// ステータスラベル
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Collector はdispatch層のメトリクス収集器
// グローバルのDefaultRegistererは使わず、自前のRegistryに登録する
type Collector struct {
	registry *prometheus.Registry

	dispatchRequestsTotal *prometheus.CounterVec
	dispatchDuration      *prometheus.HistogramVec
	toolCallsTotal        *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector は指定namespaceでCollectorを生成
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.dispatchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_requests_total",
			Help:      "Total number of dispatched requests",
		},
		[]string{"kind", "status"},
	)

	c.dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Dispatch duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"kind"},
	)

	c.toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of tool invocations",
		},
		[]string{"tool", "status"},
	)

	c.registry.MustRegister(
		c.dispatchRequestsTotal,
		c.dispatchDuration,
		c.toolCallsTotal,
		collectors.NewGoCollector(),
	)

	return c
}

// RecordDispatch はdispatch 1件分を記録
func (c *Collector) RecordDispatch(kind string, err error, duration time.Duration) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}

	c.dispatchRequestsTotal.WithLabelValues(kind, status).Inc()
	c.dispatchDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordToolCall はツール呼び出し1件分を記録
// isErrorはハンドラーがisError付きの結果を返した場合もtrue
func (c *Collector) RecordToolCall(tool string, isError bool) {
	status := StatusOK
	if isError {
		status = StatusError
	}
	c.toolCallsTotal.WithLabelValues(tool, status).Inc()
}

// Registry は内部のRegistryを返す
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler は /metrics 用のHTTPハンドラーを返す
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(c.logger),
	})
}
