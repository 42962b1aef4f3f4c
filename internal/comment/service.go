package comment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/junki/portfolio-api/internal/model"
	"github.com/junki/portfolio-api/internal/repository"
)

// 変更操作の種類と結果。メトリクスのラベルに使う。
const (
	ActionUpdate     = "update"
	ActionDelete     = "delete"
	ActionVisibility = "visibility"

	OutcomeSuccess      = "success"
	OutcomeInvalid      = "invalid"
	OutcomeNotFound     = "not_found"
	OutcomeUnauthorized = "unauthorized"
	OutcomeForbidden    = "forbidden"
	OutcomeError        = "error"
)

// Recorder はコメント操作の結果を記録するインターフェース。
type Recorder interface {
	RecordCommentCreated()
	RecordCommentMutation(action, outcome string)
}

// CreateInput はコメント作成の入力。
type CreateInput struct {
	PostID   int64
	ParentID *int64
	Content  string
}

// Service はコメントのビジネスロジックを提供する。
type Service struct {
	repo     repository.CommentRepository
	recorder Recorder
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(repo repository.CommentRepository, recorder Recorder) *Service {
	return &Service{repo: repo, recorder: recorder}
}

// ListForPost は記事の表示中コメントをツリーにして返す。
func (s *Service) ListForPost(ctx context.Context, postID int64) (*Thread, error) {
	flat, err := s.repo.ListVisibleByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	return BuildThread(flat), nil
}

// Create はコメントを作成し、保存された行を返す。
// 作成者名とアバターは資格情報のスナップショットから複製する。
// 返信の場合、親は同じ記事の既存コメントでなければならない。
func (s *Service) Create(ctx context.Context, principal *model.Principal, in CreateInput) (*model.Comment, error) {
	if principal == nil || principal.ID == "" {
		return nil, model.NewUnauthorizedError()
	}

	content := strings.TrimSpace(in.Content)
	if in.PostID <= 0 || content == "" {
		return nil, model.NewMissingFieldsError()
	}

	parentID := in.ParentID
	if parentID != nil && *parentID == 0 {
		parentID = nil
	}
	if parentID != nil {
		parent, err := s.repo.FindByID(ctx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("親コメントの取得に失敗しました: %w", err)
		}
		if parent == nil || parent.PostID != in.PostID {
			return nil, model.NewInvalidRequestError("parent comment not found on this post")
		}
	}

	c := &model.Comment{
		PostID:     in.PostID,
		ParentID:   parentID,
		AuthorID:   principal.ID,
		AuthorName: principal.Name,
		Content:    content,
	}
	if principal.Avatar != "" {
		avatar := principal.Avatar
		c.AuthorAvatar = &avatar
	}

	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}

	// 作成後に採番IDで読み直す（トランザクションは使わない）
	created, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("作成したコメントの取得に失敗しました: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("作成したコメントが見つかりません: id=%d", id)
	}

	if s.recorder != nil {
		s.recorder.RecordCommentCreated()
	}
	slog.Info("comment created",
		slog.Int64("comment_id", created.ID),
		slog.Int64("post_id", created.PostID),
		slog.String("user_id", principal.ID),
	)
	return created, nil
}

// Update はコメント本文を更新する。作成者または管理者のみ実行できる。
// 検証順序: 本文 → 存在 → 認証 → 権限。
func (s *Service) Update(ctx context.Context, principal *model.Principal, id int64, content string) error {
	err := s.update(ctx, principal, id, content)
	s.record(ActionUpdate, err)
	return err
}

func (s *Service) update(ctx context.Context, principal *model.Principal, id int64, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.NewContentRequiredError()
	}

	if _, err := s.findMutable(ctx, principal, id); err != nil {
		return err
	}

	if err := s.repo.UpdateContent(ctx, id, content); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewCommentNotFoundError(id)
		}
		return fmt.Errorf("コメントの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete はコメントをソフト削除する。作成者または管理者のみ実行できる。
// 行は残し、非表示にして本文を削除済みの文字列に置き換える。
func (s *Service) Delete(ctx context.Context, principal *model.Principal, id int64) error {
	err := s.delete(ctx, principal, id)
	s.record(ActionDelete, err)
	return err
}

func (s *Service) delete(ctx context.Context, principal *model.Principal, id int64) error {
	if _, err := s.findMutable(ctx, principal, id); err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewCommentNotFoundError(id)
		}
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	return nil
}

// SetVisibility はコメントの表示状態を切り替える。管理者のみ実行できる。
// 本文は変更しない。hiddenがnilの場合は入力エラー。
func (s *Service) SetVisibility(ctx context.Context, principal *model.Principal, id int64, hidden *bool) error {
	err := s.setVisibility(ctx, principal, id, hidden)
	s.record(ActionVisibility, err)
	return err
}

func (s *Service) setVisibility(ctx context.Context, principal *model.Principal, id int64, hidden *bool) error {
	if hidden == nil {
		return model.NewInvalidRequestError("is_hidden is required")
	}

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}
	if c == nil {
		return model.NewCommentNotFoundError(id)
	}
	if err := authorizeAdmin(principal); err != nil {
		return err
	}

	if err := s.repo.SetHidden(ctx, id, *hidden); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewCommentNotFoundError(id)
		}
		return fmt.Errorf("コメントの表示状態の更新に失敗しました: %w", err)
	}
	return nil
}

// findMutable は対象コメントを取得し、作成者または管理者であることを確認する。
// 存在確認を認証より先に行う。
func (s *Service) findMutable(ctx context.Context, principal *model.Principal, id int64) (*model.Comment, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewCommentNotFoundError(id)
	}
	if err := authorizeOwnerOrAdmin(principal, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) record(action string, err error) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordCommentMutation(action, outcomeOf(err))
}

// outcomeOf はエラーをメトリクス用の結果ラベルに変換する。
func outcomeOf(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		return OutcomeError
	}
	switch apiErr.Code {
	case model.ErrCodeContentRequired, model.ErrCodeInvalidRequest, model.ErrCodeMissingFields:
		return OutcomeInvalid
	case model.ErrCodeCommentNotFound:
		return OutcomeNotFound
	case model.ErrCodeUnauthorized:
		return OutcomeUnauthorized
	case model.ErrCodeForbidden, model.ErrCodeAdminRequired:
		return OutcomeForbidden
	default:
		return OutcomeError
	}
}
