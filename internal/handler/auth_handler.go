// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/junki/portfolio-api/internal/auth"
	"github.com/junki/portfolio-api/internal/middleware"
	"github.com/junki/portfolio-api/internal/model"
	"github.com/junki/portfolio-api/internal/security"
)

const oauthStateCookie = "oauth_state"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	HasProvider(provider string) bool
	GetLoginURL(provider, state string) (string, error)
	HandleCallback(ctx context.Context, provider, code string) (*auth.LoginResult, error)
}

// StateManager はOAuthのstate値の発行と検証を行うインターフェース。
type StateManager interface {
	IssueState() (string, error)
	VerifyState(state string) bool
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	FrontendURL  string
	CookieSecure bool
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	states   StateManager
	verifier middleware.TokenVerifier
	config   AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, states StateManager, verifier middleware.TokenVerifier, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		states:   states,
		verifier: verifier,
		config:   config,
	}
}

// userResponse はログインユーザー情報のAPIレスポンス。
type userResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Email   *string `json:"email"`
	Avatar  *string `json:"avatar"`
	IsAdmin bool    `json:"isAdmin"`
}

// Login はOAuthフローを開始し、認証URLを返す。
// GET /api/auth/{provider}
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !h.service.HasProvider(provider) {
		writeAPIError(w, model.NewUnknownProviderError(provider))
		return
	}

	state, err := h.states.IssueState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	loginURL, err := h.service.GetLoginURL(provider, state)
	if err != nil {
		handleServiceError(w, r, toAuthAPIError(provider, err))
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(security.StateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"url": loginURL})
}

// Callback はOAuthコールバックを処理し、資格情報付きでフロントエンドにリダイレクトする。
// GET /api/auth/{provider}/callback?code=xxx&state=yyy
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !h.service.HasProvider(provider) {
		writeAPIError(w, model.NewUnknownProviderError(provider))
		return
	}

	// 1. stateの検証（CSRF対策）
	state := r.URL.Query().Get("state")
	if !h.states.VerifyState(state) {
		slog.Warn("invalid oauth state", slog.String("provider", provider))
		writeAPIError(w, model.NewOAuthFailedError("invalid state parameter"))
		return
	}
	if stateCookie, err := r.Cookie(oauthStateCookie); err == nil && stateCookie.Value != state {
		slog.Warn("oauth state mismatch", slog.String("provider", provider))
		writeAPIError(w, model.NewOAuthFailedError("state does not match"))
		return
	}

	// stateクッキーを削除
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// 2. 認可コードの取得
	code := r.URL.Query().Get("code")
	if code == "" {
		writeAPIError(w, model.NewOAuthFailedError("missing authorization code"))
		return
	}

	// 3. 認証処理
	result, err := h.service.HandleCallback(r.Context(), provider, code)
	if err != nil {
		handleServiceError(w, r, toAuthAPIError(provider, err))
		return
	}

	// 4. フロントエンドにリダイレクト
	target := h.config.FrontendURL + "/auth/callback?token=" + url.QueryEscape(result.Token)
	http.Redirect(w, r, target, http.StatusFound)
}

// Me はBearerトークンのユーザー情報を返す。
// トークンがない、または無効な場合もエラーにせずuser: nullを返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	var user *userResponse
	if token := middleware.BearerToken(r); token != "" {
		if claims, ok := h.verifier.Verify(token); ok {
			user = &userResponse{
				ID:      claims.Subject,
				Name:    claims.Name,
				Email:   claims.Email,
				Avatar:  claims.Avatar,
				IsAdmin: claims.IsAdmin,
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Logout はクライアントにトークンの破棄を指示する。
// サーバー側に破棄すべき状態はない。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Remove token from client storage",
	})
}

// toAuthAPIError は認証サービスのエラーをAPIErrorに変換する。
// 変換できないエラーはそのまま返し、500として扱う。
func toAuthAPIError(provider string, err error) error {
	switch {
	case errors.Is(err, auth.ErrUnknownProvider):
		return model.NewUnknownProviderError(provider)
	case errors.Is(err, auth.ErrCodeExchange):
		slog.Warn("oauth code exchange rejected",
			slog.String("provider", provider),
			slog.String("error", err.Error()),
		)
		return model.NewOAuthFailedError("authorization code was rejected")
	default:
		return err
	}
}
