package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, comment, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeMissingFields   = "MISSING_FIELDS"
	ErrCodeContentRequired = "CONTENT_REQUIRED"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeAdminRequired   = "ADMIN_REQUIRED"
	ErrCodeCommentNotFound = "COMMENT_NOT_FOUND"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeUnknownProvider = "UNKNOWN_PROVIDER"
	ErrCodeOAuthFailed     = "OAUTH_FAILED"
	ErrCodeRateLimit       = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// NewInvalidRequestError はリクエスト形式エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("Invalid request: %s", reason),
		Category: "validation",
		Action:   "Check the request parameters and body.",
	}
}

// NewMissingFieldsError は必須フィールド不足エラーを生成する。
func NewMissingFieldsError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingFields,
		Message:  "Missing required fields",
		Category: "validation",
		Action:   "Provide a post_id and a non-empty content.",
	}
}

// NewContentRequiredError は本文が空の場合のエラーを生成する。
func NewContentRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeContentRequired,
		Message:  "Content is required",
		Category: "validation",
		Action:   "Enter a comment before saving.",
	}
}

// NewUnauthorizedError は認証が必要な操作を匿名で行った場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentication required",
		Category: "auth",
		Action:   "Sign in and try again.",
	}
}

// NewForbiddenError は所有者でも管理者でもない場合のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "Not authorized",
		Category: "auth",
		Action:   "Only the author or an administrator can change this comment.",
	}
}

// NewAdminRequiredError は管理者専用操作のエラーを生成する。
func NewAdminRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeAdminRequired,
		Message:  "Admin access required",
		Category: "auth",
		Action:   "Sign in with an administrator account.",
	}
}

// NewCommentNotFoundError はコメントが存在しない場合のエラーを生成する。
func NewCommentNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeCommentNotFound,
		Message:  fmt.Sprintf("Comment not found: %d", id),
		Category: "comment",
		Action:   "Reload the page to see the latest comments.",
	}
}

// NewNotFoundError は存在しないルートへのアクセスエラーを生成する。
func NewNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  "Not found",
		Category: "system",
		Action:   "Check the request URL.",
	}
}

// NewUnknownProviderError は未対応または未設定のOAuthプロバイダーのエラーを生成する。
func NewUnknownProviderError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownProvider,
		Message:  fmt.Sprintf("Unknown login provider: %s", provider),
		Category: "auth",
		Action:   "Sign in with GitHub or Google.",
	}
}

// NewOAuthFailedError はOAuthコールバックの入力不備のエラーを生成する。
func NewOAuthFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeOAuthFailed,
		Message:  fmt.Sprintf("Authentication failed: %s", reason),
		Category: "auth",
		Action:   "Start the sign-in again.",
	}
}

// NewRateLimitError はレート制限超過のエラーを生成する。
func NewRateLimitError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimit,
		Message:  "Too many requests",
		Category: "system",
		Action:   "Wait a moment and try again.",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error",
		Category: "system",
		Action:   "Please try again later.",
	}
}
