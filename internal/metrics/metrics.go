// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// source.MetricsRecorderとして上流クライアントに注入される。
type Collector struct {
	upstreamSuccess *prometheus.CounterVec
	upstreamFail    *prometheus.CounterVec
	upstreamLatency prometheus.Histogram
	cacheResult     *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogview_upstream_fetch_success_total",
			Help: "上流フェッチ成功のエンドポイント別合計数",
		}, []string{"endpoint"}),
		upstreamFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogview_upstream_fetch_fail_total",
			Help: "上流フェッチ失敗のエンドポイント・ステータスコード別合計数",
		}, []string{"endpoint", "status_code"}),
		upstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blogview_upstream_fetch_latency_seconds",
			Help:    "上流フェッチのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		cacheResult: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogview_revalidate_cache_total",
			Help: "再検証キャッシュのヒット・ミス別合計数",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogview_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.upstreamSuccess,
		c.upstreamFail,
		c.upstreamLatency,
		c.cacheResult,
		c.httpStatus,
	)

	return c
}

// RecordUpstreamSuccess は上流フェッチ成功を記録する。
func (c *Collector) RecordUpstreamSuccess(endpoint string) {
	c.upstreamSuccess.WithLabelValues(endpoint).Inc()
}

// RecordUpstreamFailure は上流フェッチ失敗を記録する。
// statusCodeが0の場合はネットワークエラーを表す。
func (c *Collector) RecordUpstreamFailure(endpoint string, statusCode int) {
	c.upstreamFail.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
}

// RecordUpstreamLatency は上流フェッチのレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(duration time.Duration) {
	c.upstreamLatency.Observe(duration.Seconds())
}

// RecordCacheResult は再検証キャッシュのヒット・ミスを記録する。
func (c *Collector) RecordCacheResult(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheResult.WithLabelValues(result).Inc()
}

// RecordHTTPStatus は本サービス自身が返したHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
