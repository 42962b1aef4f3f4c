package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// sample はラベルが一致するメトリクスのカウンタ値とヒストグラムのサンプル数を返す。
// 見つからない場合はfound=falseを返す。
func sample(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) (counter float64, histCount uint64, found bool) {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched != len(labels) {
				continue
			}
			return m.GetCounter().GetValue(), m.GetHistogram().GetSampleCount(), true
		}
	}
	return 0, 0, false
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	if c := NewCollector(reg); c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestObserveHTTPRequest_RecordsCounterAndHistogram はHTTPメトリクスがラベル付きで記録されることを検証する。
func TestObserveHTTPRequest_RecordsCounterAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveHTTPRequest("GET", "/api/comments/post/{postId}", 200, 15*time.Millisecond)
	c.ObserveHTTPRequest("GET", "/api/comments/post/{postId}", 200, 25*time.Millisecond)
	c.ObserveHTTPRequest("PUT", "/api/comments/{id}", 403, time.Millisecond)

	v, _, found := sample(t, reg, "portfolio_http_requests_total",
		map[string]string{"method": "GET", "route": "/api/comments/post/{postId}", "status": "200"})
	if !found || v != 2 {
		t.Errorf("GET 200 count = %v (found=%v), want 2", v, found)
	}

	v, _, found = sample(t, reg, "portfolio_http_requests_total",
		map[string]string{"method": "PUT", "route": "/api/comments/{id}", "status": "403"})
	if !found || v != 1 {
		t.Errorf("PUT 403 count = %v (found=%v), want 1", v, found)
	}

	_, n, found := sample(t, reg, "portfolio_http_request_duration_seconds",
		map[string]string{"route": "/api/comments/post/{postId}"})
	if !found || n != 2 {
		t.Errorf("duration sample count = %d (found=%v), want 2", n, found)
	}
}

// TestRecordCommentCreated_IncrementsCounter はコメント作成カウンタが増加することを検証する。
func TestRecordCommentCreated_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCommentCreated()
	c.RecordCommentCreated()
	c.RecordCommentCreated()

	v, _, found := sample(t, reg, "portfolio_comments_created_total", nil)
	if !found || v != 3 {
		t.Errorf("comments_created_total = %v (found=%v), want 3", v, found)
	}
}

// TestRecordCommentMutation_Labels は操作と結果のラベルが区別されることを検証する。
func TestRecordCommentMutation_Labels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCommentMutation("update", "success")
	c.RecordCommentMutation("update", "forbidden")
	c.RecordCommentMutation("update", "forbidden")
	c.RecordCommentMutation("delete", "success")

	tests := []struct {
		action, outcome string
		want            float64
	}{
		{"update", "success", 1},
		{"update", "forbidden", 2},
		{"delete", "success", 1},
	}
	for _, tt := range tests {
		v, _, found := sample(t, reg, "portfolio_comment_mutations_total",
			map[string]string{"action": tt.action, "outcome": tt.outcome})
		if !found || v != tt.want {
			t.Errorf("%s/%s = %v (found=%v), want %v", tt.action, tt.outcome, v, found, tt.want)
		}
	}
}

// TestRecordLogin_Labels はプロバイダーと新規ユーザーのラベルを検証する。
func TestRecordLogin_Labels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin("github", true)
	c.RecordLogin("github", false)
	c.RecordLogin("github", false)

	v, _, found := sample(t, reg, "portfolio_logins_total", map[string]string{"provider": "github", "new_user": "false"})
	if !found || v != 2 {
		t.Errorf("github existing logins = %v (found=%v), want 2", v, found)
	}
	v, _, found = sample(t, reg, "portfolio_logins_total", map[string]string{"provider": "github", "new_user": "true"})
	if !found || v != 1 {
		t.Errorf("github new logins = %v (found=%v), want 1", v, found)
	}
}

// TestCollector_ImplementsMetricsCollectorInterface はインターフェース実装を検証する。
func TestCollector_ImplementsMetricsCollectorInterface(t *testing.T) {
	var _ MetricsCollector = (*Collector)(nil)
}

// TestMultipleCollectors_IndependentRegistries は別レジストリなら重複登録にならないことを検証する。
func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()

	c1 := NewCollector(reg1)
	_ = NewCollector(reg2)

	c1.RecordCommentCreated()

	if v, _, _ := sample(t, reg2, "portfolio_comments_created_total", nil); v != 0 {
		t.Errorf("reg2 should be unaffected, got %v", v)
	}
}
