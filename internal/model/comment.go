package model

import "time"

// DeletedCommentContent はソフト削除されたコメントの本文に置き換えられる文字列。
const DeletedCommentContent = "[deleted]"

// Comment は記事に付いたコメント1行を表す。
// ParentID がnilの場合はルートコメント。
// AuthorName / AuthorAvatar は作成時点の値を保持する。
type Comment struct {
	ID           int64
	PostID       int64
	ParentID     *int64
	AuthorID     string
	AuthorName   string
	AuthorAvatar *string
	Content      string
	IsHidden     bool
	CreatedAt    time.Time
}
