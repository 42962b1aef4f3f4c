// Package comment はコメントスレッドの組み立てと変更操作の認可を提供する。
package comment

import "github.com/junki/portfolio-api/internal/model"

// Node はスレッド内のコメント1件と、その直下の返信を表す。
type Node struct {
	Comment *model.Comment
	Replies []*Node
}

// Thread は記事に付いたコメントのツリー。
// Total は取得した行数であり、ツリーから辿れない返信も含む。
type Thread struct {
	Comments []*Node
	Total    int
}

// BuildThread は作成日時順に並んだフラットなコメント列からツリーを組み立てる。
//
// 1回目の走査でID→ノードの索引を作り、2回目で親に連結する。
// 親が取得結果に含まれない返信（親が非表示など）はどこにも現れない。
// ルートに昇格させることはしない。返信の順序は入力順を保つ。
func BuildThread(flat []*model.Comment) *Thread {
	index := make(map[int64]*Node, len(flat))
	nodes := make([]*Node, len(flat))
	for i, c := range flat {
		n := &Node{Comment: c, Replies: []*Node{}}
		nodes[i] = n
		index[c.ID] = n
	}

	roots := make([]*Node, 0)
	for _, n := range nodes {
		if n.Comment.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		if parent, ok := index[*n.Comment.ParentID]; ok {
			parent.Replies = append(parent.Replies, n)
		}
	}

	return &Thread{Comments: roots, Total: len(flat)}
}
