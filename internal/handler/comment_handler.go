package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/junki/portfolio-api/internal/comment"
	"github.com/junki/portfolio-api/internal/middleware"
	"github.com/junki/portfolio-api/internal/model"
)

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	ListForPost(ctx context.Context, postID int64) (*comment.Thread, error)
	Create(ctx context.Context, principal *model.Principal, in comment.CreateInput) (*model.Comment, error)
	Update(ctx context.Context, principal *model.Principal, id int64, content string) error
	Delete(ctx context.Context, principal *model.Principal, id int64) error
	SetVisibility(ctx context.Context, principal *model.Principal, id int64, hidden *bool) error
}

// CommentHandler はコメントのHTTPハンドラー。
type CommentHandler struct {
	service CommentServiceInterface
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface) *CommentHandler {
	return &CommentHandler{service: service}
}

// createCommentRequest はコメント作成リクエストのボディ。
type createCommentRequest struct {
	PostID   int64  `json:"post_id"`
	ParentID *int64 `json:"parent_id"`
	Content  string `json:"content"`
}

// updateCommentRequest はコメント更新リクエストのボディ。
type updateCommentRequest struct {
	Content string `json:"content"`
}

// visibilityRequest は表示状態変更リクエストのボディ。
type visibilityRequest struct {
	IsHidden *bool `json:"is_hidden"`
}

// commentResponse はコメントのAPIレスポンス。
type commentResponse struct {
	ID           int64     `json:"id"`
	PostID       int64     `json:"post_id"`
	ParentID     *int64    `json:"parent_id"`
	AuthorID     string    `json:"author_id"`
	AuthorName   string    `json:"author_name"`
	AuthorAvatar *string   `json:"author_avatar"`
	Content      string    `json:"content"`
	IsHidden     bool      `json:"is_hidden"`
	CreatedAt    time.Time `json:"created_at"`
}

// threadNodeResponse は返信を含むツリー上のコメント。
type threadNodeResponse struct {
	commentResponse
	Replies []threadNodeResponse `json:"replies"`
}

// threadResponse はコメント一覧のAPIレスポンス。
type threadResponse struct {
	Comments []threadNodeResponse `json:"comments"`
	Total    int                  `json:"total"`
}

// successResponse は変更系操作のAPIレスポンス。
type successResponse struct {
	Success bool `json:"success"`
}

// ListForPost は記事のコメントツリーを返す。
// GET /api/comments/post/{postId}
func (h *CommentHandler) ListForPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := parseIDParam(w, r, "postId")
	if !ok {
		return
	}

	thread, err := h.service.ListForPost(r.Context(), postID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toThreadResponse(thread))
}

// Create はコメントを作成する。
// POST /api/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeAPIError(w, model.NewUnauthorizedError())
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, model.NewInvalidRequestError("malformed JSON body"))
		return
	}

	created, err := h.service.Create(r.Context(), principal, comment.CreateInput{
		PostID:   req.PostID,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"comment": toCommentResponse(created),
	})
}

// Update はコメント本文を更新する。
// PUT /api/comments/{id}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req updateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, model.NewInvalidRequestError("malformed JSON body"))
		return
	}

	if err := h.service.Update(r.Context(), principalOrNil(r), id, req.Content); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Delete はコメントをソフト削除する。
// DELETE /api/comments/{id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), principalOrNil(r), id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// SetVisibility はコメントの表示状態を切り替える。
// PATCH /api/comments/{id}/visibility
func (h *CommentHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req visibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, model.NewInvalidRequestError("malformed JSON body"))
		return
	}

	if err := h.service.SetVisibility(r.Context(), principalOrNil(r), id, req.IsHidden); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// parseIDParam はURLパラメータを正の整数IDとして解析する。
// 解析できない場合は400を書き込みfalseを返す。
func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeAPIError(w, model.NewInvalidRequestError(name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}

// principalOrNil はリクエストの認証済みユーザーを返す。匿名の場合はnil。
func principalOrNil(r *http.Request) *model.Principal {
	p, _ := middleware.PrincipalFromContext(r.Context())
	return p
}

func toCommentResponse(c *model.Comment) commentResponse {
	return commentResponse{
		ID:           c.ID,
		PostID:       c.PostID,
		ParentID:     c.ParentID,
		AuthorID:     c.AuthorID,
		AuthorName:   c.AuthorName,
		AuthorAvatar: c.AuthorAvatar,
		Content:      c.Content,
		IsHidden:     c.IsHidden,
		CreatedAt:    c.CreatedAt,
	}
}

func toThreadNodes(nodes []*comment.Node) []threadNodeResponse {
	out := make([]threadNodeResponse, len(nodes))
	for i, n := range nodes {
		out[i] = threadNodeResponse{
			commentResponse: toCommentResponse(n.Comment),
			Replies:         toThreadNodes(n.Replies),
		}
	}
	return out
}

func toThreadResponse(t *comment.Thread) threadResponse {
	return threadResponse{
		Comments: toThreadNodes(t.Comments),
		Total:    t.Total,
	}
}
