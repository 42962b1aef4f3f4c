package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/junki/portfolio-api/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

const selectCommentColumns = `SELECT id, post_id, parent_id, author_id, author_name, author_avatar,
		        content, is_hidden, created_at
		 FROM comments`

// ListVisibleByPost は指定記事の非表示でないコメントを作成日時の昇順で返す。
// 同時刻の行はIDの昇順で並べる。
func (r *PostgresCommentRepo) ListVisibleByPost(ctx context.Context, postID int64) ([]*model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		selectCommentColumns+`
		 WHERE post_id = $1 AND is_hidden = FALSE
		 ORDER BY created_at ASC, id ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*model.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}

// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
func (r *PostgresCommentRepo) FindByID(ctx context.Context, id int64) (*model.Comment, error) {
	c, err := scanComment(r.db.QueryRowContext(ctx, selectCommentColumns+` WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	return c, nil
}

// Create はコメントを作成し、採番されたIDを返す。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) (int64, error) {
	var parentID sql.NullInt64
	if comment.ParentID != nil {
		parentID = sql.NullInt64{Int64: *comment.ParentID, Valid: true}
	}

	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO comments (post_id, parent_id, author_id, author_name, author_avatar, content)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		comment.PostID, parentID, comment.AuthorID, comment.AuthorName,
		nullStringPtr(comment.AuthorAvatar), comment.Content,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert comment: %w", err)
	}
	return id, nil
}

// UpdateContent はコメント本文を置き換える。
func (r *PostgresCommentRepo) UpdateContent(ctx context.Context, id int64, content string) error {
	return r.execOne(ctx, "update comment content",
		`UPDATE comments SET content = $2 WHERE id = $1`, id, content)
}

// SoftDelete はコメントを非表示にし、本文を削除済みの文字列に置き換える。
func (r *PostgresCommentRepo) SoftDelete(ctx context.Context, id int64) error {
	return r.execOne(ctx, "soft delete comment",
		`UPDATE comments SET is_hidden = TRUE, content = $2 WHERE id = $1`, id, model.DeletedCommentContent)
}

// SetHidden はコメントの非表示フラグを更新する。本文は変更しない。
func (r *PostgresCommentRepo) SetHidden(ctx context.Context, id int64, hidden bool) error {
	return r.execOne(ctx, "set comment visibility",
		`UPDATE comments SET is_hidden = $2 WHERE id = $1`, id, hidden)
}

// execOne は1行を対象とする更新を実行し、対象がなければErrNotFoundを返す。
func (r *PostgresCommentRepo) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(s rowScanner) (*model.Comment, error) {
	c := &model.Comment{}
	var parentID sql.NullInt64
	var avatar sql.NullString
	err := s.Scan(
		&c.ID, &c.PostID, &parentID, &c.AuthorID, &c.AuthorName, &avatar,
		&c.Content, &c.IsHidden, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		p := parentID.Int64
		c.ParentID = &p
	}
	c.AuthorAvatar = stringPtrValue(avatar)
	return c, nil
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
