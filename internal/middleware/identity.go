// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/junki/portfolio-api/internal/model"
	"github.com/junki/portfolio-api/internal/security"
)

const (
	legacyUserIDHeader  = "X-User-Id"
	legacyIsAdminHeader = "X-User-Admin"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// principalContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var principalContextKey = contextKey("principal")

// TokenVerifier は資格情報の検証に必要なインターフェース。
// security.TokenProviderの部分集合として定義する。
type TokenVerifier interface {
	Verify(token string) (*security.VerifiedClaims, bool)
}

// NewIdentityMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 認証済みユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// トークンがない、または無効な場合も拒否せず匿名として後続に渡す。
func NewIdentityMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, ok := verifier.Verify(token)
			if !ok {
				slog.Debug("credential verification failed",
					slog.String("path", r.URL.Path),
				)
				next.ServeHTTP(w, r)
				return
			}

			ctx := ContextWithPrincipal(r.Context(), claims.Principal())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewLegacyIdentityMiddleware はX-User-Id / X-User-Adminヘッダーを扱うミドルウェアを返す。
// trustがtrueの場合のみヘッダーの値で認証済みユーザーを上書きする。
// IDはヘッダーを優先し、管理者フラグはヘッダーとトークンの論理和とする。
// trustがfalseの場合はヘッダーを無視し、警告ログのみ出力する。
func NewLegacyIdentityMiddleware(trust bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headerID := strings.TrimSpace(r.Header.Get(legacyUserIDHeader))
			headerAdmin := r.Header.Get(legacyIsAdminHeader)
			if headerID == "" && headerAdmin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !trust {
				slog.Warn("ignoring legacy identity headers",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				next.ServeHTTP(w, r)
				return
			}

			effective := &model.Principal{}
			if p, ok := PrincipalFromContext(r.Context()); ok {
				*effective = *p
			}
			if headerID != "" {
				effective.ID = headerID
			}
			effective.IsAdmin = effective.IsAdmin || headerAdmin == "true"

			if effective.ID == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := ContextWithPrincipal(r.Context(), effective)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// ヘッダーがない、または形式が異なる場合は空文字列を返す。
func BearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// PrincipalFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 匿名リクエストの場合はfalseを返す。
func PrincipalFromContext(ctx context.Context) (*model.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*model.Principal)
	if !ok || p == nil || p.ID == "" {
		return nil, false
	}
	return p, true
}

// ContextWithPrincipal はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}
