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
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
	RecordCommentCreated()
	RecordCommentMutation(action, outcome string)
	RecordLogin(provider string, newUser bool)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	commentsCreated  prometheus.Counter
	commentMutations *prometheus.CounterVec
	logins           *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_http_requests_total",
			Help: "メソッド・ルート・ステータス別のHTTPリクエスト数",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portfolio_http_request_duration_seconds",
			Help:    "ルート別のHTTPリクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		commentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_comments_created_total",
			Help: "作成されたコメントの合計数",
		}),
		commentMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_comment_mutations_total",
			Help: "操作・結果別のコメント変更数",
		}, []string{"action", "outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_logins_total",
			Help: "プロバイダー別のログイン数",
		}, []string{"provider", "new_user"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.commentsCreated,
		c.commentMutations,
		c.logins,
	)

	return c
}

// ObserveHTTPRequest はHTTPリクエスト1件を記録する。
// routeにはURLではなくルートパターンを渡すこと。
func (c *Collector) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordCommentCreated はコメント作成を記録する。
func (c *Collector) RecordCommentCreated() {
	c.commentsCreated.Inc()
}

// RecordCommentMutation はコメント変更操作の結果を記録する。
func (c *Collector) RecordCommentMutation(action, outcome string) {
	c.commentMutations.WithLabelValues(action, outcome).Inc()
}

// RecordLogin はログインを記録する。
func (c *Collector) RecordLogin(provider string, newUser bool) {
	c.logins.WithLabelValues(provider, strconv.FormatBool(newUser)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
