// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/junki/portfolio-api/internal/model"
)

// ErrNotFound は更新対象の行が存在しない場合に返される。
var ErrNotFound = errors.New("repository: row not found")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByProvider はproviderとprovider_idでユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByProvider(ctx context.Context, provider, providerID string) (*model.User, error)

	// Create はユーザーを作成する。CreatedAtはDB側の値で上書きされる。
	Create(ctx context.Context, user *model.User) error
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// ListVisibleByPost は指定記事の非表示でないコメントを作成日時の昇順で返す。
	ListVisibleByPost(ctx context.Context, postID int64) ([]*model.Comment, error)

	// FindByID は指定IDのコメントを非表示状態に関わらず取得する。
	// 見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Comment, error)

	// Create はコメントを作成し、採番されたIDを返す。
	Create(ctx context.Context, comment *model.Comment) (int64, error)

	// UpdateContent はコメント本文を置き換える。対象がない場合はErrNotFoundを返す。
	UpdateContent(ctx context.Context, id int64, content string) error

	// SoftDelete はコメントを非表示にし、本文を削除済みの文字列に置き換える。
	// 何度呼んでも同じ状態になる。対象がない場合はErrNotFoundを返す。
	SoftDelete(ctx context.Context, id int64) error

	// SetHidden はコメントの非表示フラグのみを更新する。対象がない場合はErrNotFoundを返す。
	SetHidden(ctx context.Context, id int64, hidden bool) error
}
