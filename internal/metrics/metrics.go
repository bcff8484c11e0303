// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(method, route string, duration time.Duration)
	RecordMagicLinkIssued()
	RecordMagicLinkRedeemed()
	RecordMailFailure()
	RecordAIRequest(kind string)
	RecordAIFailure(kind string)
	RecordRateLimited(scope string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus        *prometheus.CounterVec
	requestLatency    *prometheus.HistogramVec
	magicLinkIssued   prometheus.Counter
	magicLinkRedeemed prometheus.Counter
	mailFail          prometheus.Counter
	aiRequests        *prometheus.CounterVec
	aiFail            *prometheus.CounterVec
	rateLimited       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "abroadly_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "abroadly_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		magicLinkIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "abroadly_magic_link_issued_total",
			Help: "発行されたマジックリンクの合計数",
		}),
		magicLinkRedeemed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "abroadly_magic_link_redeemed_total",
			Help: "検証に成功したマジックリンクの合計数",
		}),
		mailFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "abroadly_mail_fail_total",
			Help: "メール送信失敗の合計数",
		}),
		aiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "abroadly_ai_requests_total",
			Help: "AI呼び出し種別ごとのリクエスト数",
		}, []string{"kind"}),
		aiFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "abroadly_ai_fail_total",
			Help: "AI呼び出し種別ごとの失敗数",
		}, []string{"kind"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "abroadly_rate_limited_total",
			Help: "レート制限で拒否したリクエスト数",
		}, []string{"scope"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.magicLinkIssued,
		c.magicLinkRedeemed,
		c.mailFail,
		c.aiRequests,
		c.aiFail,
		c.rateLimited,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシをルート別に記録する。
func (c *Collector) RecordRequestLatency(method, route string, duration time.Duration) {
	c.requestLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordMagicLinkIssued はマジックリンクの発行を記録する。
func (c *Collector) RecordMagicLinkIssued() {
	c.magicLinkIssued.Inc()
}

// RecordMagicLinkRedeemed はマジックリンクの検証成功を記録する。
func (c *Collector) RecordMagicLinkRedeemed() {
	c.magicLinkRedeemed.Inc()
}

// RecordMailFailure はメール送信失敗を記録する。
func (c *Collector) RecordMailFailure() {
	c.mailFail.Inc()
}

// RecordAIRequest はAI呼び出しを種別（plan / quick）ごとに記録する。
func (c *Collector) RecordAIRequest(kind string) {
	c.aiRequests.WithLabelValues(kind).Inc()
}

// RecordAIFailure はAI呼び出しの失敗を記録する。
func (c *Collector) RecordAIFailure(kind string) {
	c.aiFail.WithLabelValues(kind).Inc()
}

// RecordRateLimited はレート制限による拒否をスコープ（general / ai）ごとに記録する。
func (c *Collector) RecordRateLimited(scope string) {
	c.rateLimited.WithLabelValues(scope).Inc()
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

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
