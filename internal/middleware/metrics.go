package middleware

import (
	"net/http"
	"time"
)

// unmatchedRoute はどのルートにも一致しなかったリクエストのラベル値。
const unmatchedRoute = "unmatched"

// HTTPObserver はHTTPリクエストの計測に必要なインターフェース。
// metrics.MetricsCollectorの部分集合として定義する。
type HTTPObserver interface {
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

// NewMetricsMiddleware はリクエスト数と処理時間をルートパターン単位で記録するミドルウェアを返す。
// ラベルの種類を抑えるため、URLパスではなくchiのルートパターンを用いる。
func NewMetricsMiddleware(observer HTTPObserver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			observer.ObserveHTTPRequest(r.Method, routePattern(r), rec.statusCode, time.Since(start))
		})
	}
}
