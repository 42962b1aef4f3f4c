package comment

import (
	"testing"
	"time"

	"github.com/junki/portfolio-api/internal/model"
)

func int64Ptr(v int64) *int64 { return &v }

func newComment(id int64, parent *int64, content string, at time.Time) *model.Comment {
	return &model.Comment{
		ID:         id,
		PostID:     42,
		ParentID:   parent,
		AuthorID:   "u_author",
		AuthorName: "Author",
		Content:    content,
		CreatedAt:  at,
	}
}

// 親が取得結果にない返信は捨てられ、totalには含まれることを検証する。
func TestBuildThread_OrphanDroppedButCounted(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	flat := []*model.Comment{
		newComment(1, nil, "hi", base),
		newComment(2, int64Ptr(1), "hey", base.Add(time.Minute)),
		newComment(3, int64Ptr(99), "orphan", base.Add(2*time.Minute)),
	}

	thread := BuildThread(flat)

	if thread.Total != 3 {
		t.Errorf("Total = %d, want 3", thread.Total)
	}
	if len(thread.Comments) != 1 {
		t.Fatalf("roots = %d, want 1", len(thread.Comments))
	}
	root := thread.Comments[0]
	if root.Comment.ID != 1 {
		t.Errorf("root id = %d, want 1", root.Comment.ID)
	}
	if len(root.Replies) != 1 || root.Replies[0].Comment.ID != 2 {
		t.Fatalf("root replies = %v, want [2]", ids(root.Replies))
	}
	if root.Replies[0].Replies == nil || len(root.Replies[0].Replies) != 0 {
		t.Errorf("leaf replies should be an empty non-nil slice, got %v", root.Replies[0].Replies)
	}
	if containsID(thread.Comments, 3) {
		t.Error("orphan must never be promoted to root")
	}
}

func TestBuildThread_Empty(t *testing.T) {
	thread := BuildThread(nil)
	if thread.Total != 0 {
		t.Errorf("Total = %d, want 0", thread.Total)
	}
	if thread.Comments == nil || len(thread.Comments) != 0 {
		t.Errorf("Comments should be an empty non-nil slice, got %v", thread.Comments)
	}
}

func TestBuildThread_PreservesOrderAndNesting(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	flat := []*model.Comment{
		newComment(10, nil, "first root", base),
		newComment(11, nil, "second root", base.Add(time.Second)),
		newComment(12, int64Ptr(10), "reply a", base.Add(2*time.Second)),
		newComment(13, int64Ptr(11), "reply b", base.Add(3*time.Second)),
		newComment(14, int64Ptr(10), "reply c", base.Add(4*time.Second)),
		newComment(15, int64Ptr(12), "nested", base.Add(5*time.Second)),
	}

	thread := BuildThread(flat)

	if got := ids(thread.Comments); !equalIDs(got, []int64{10, 11}) {
		t.Errorf("roots = %v, want [10 11]", got)
	}
	if got := ids(thread.Comments[0].Replies); !equalIDs(got, []int64{12, 14}) {
		t.Errorf("replies of 10 = %v, want [12 14]", got)
	}
	if got := ids(thread.Comments[1].Replies); !equalIDs(got, []int64{13}) {
		t.Errorf("replies of 11 = %v, want [13]", got)
	}
	if got := ids(thread.Comments[0].Replies[0].Replies); !equalIDs(got, []int64{15}) {
		t.Errorf("replies of 12 = %v, want [15]", got)
	}
	if thread.Total != 6 {
		t.Errorf("Total = %d, want 6", thread.Total)
	}
}

// 各返信は親の配下にちょうど1回だけ現れることを検証する。
func TestBuildThread_EachReplyAppearsOnce(t *testing.T) {
	base := time.Now()
	flat := []*model.Comment{
		newComment(1, nil, "root", base),
		newComment(2, int64Ptr(1), "r1", base),
		newComment(3, int64Ptr(1), "r2", base),
		newComment(4, int64Ptr(2), "r3", base),
	}

	thread := BuildThread(flat)

	seen := map[int64]int{}
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			seen[n.Comment.ID]++
			walk(n.Replies)
		}
	}
	walk(thread.Comments)

	for _, c := range flat {
		if seen[c.ID] != 1 {
			t.Errorf("comment %d appears %d times, want 1", c.ID, seen[c.ID])
		}
	}
}

func ids(nodes []*Node) []int64 {
	out := make([]int64, len(nodes))
	for i, n := range nodes {
		out[i] = n.Comment.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func containsID(nodes []*Node, id int64) bool {
	for _, n := range nodes {
		if n.Comment.ID == id {
			return true
		}
	}
	return false
}
