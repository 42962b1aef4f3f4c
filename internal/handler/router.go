package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/junki/portfolio-api/internal/middleware"
	"github.com/junki/portfolio-api/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier      middleware.TokenVerifier
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	HTTPObserver       middleware.HTTPObserver
	Logger             *slog.Logger
	HSTS               bool

	// TrustLegacyIdentityHeaders が true の場合のみ変更系ルートでX-User-Id / X-User-Adminを信頼する
	TrustLegacyIdentityHeaders bool

	// TrustProxyHeaders が true の場合のみ転送元ヘッダーでRemoteAddrを書き換える
	TrustProxyHeaders bool

	// ヘルスチェック
	HealthChecker HealthChecker
	Environment   string

	// メトリクス
	MetricsHandler http.Handler

	// 認証
	AuthService  AuthServiceInterface
	StateManager StateManager
	AuthConfig   AuthHandlerConfig

	// コメント
	CommentService CommentServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → (RealIP) → Recovery → SecurityHeaders → CORS → Identity → Logging → Metrics → RateLimit(General)
//
// コメント投稿には投稿専用のレート制限を追加し、
// 変更系ルートにはレガシーヘッダーの処理を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if deps.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.HSTS))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(middleware.NewIdentityMiddleware(deps.TokenVerifier))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPObserver != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPObserver))
	}
	r.Use(deps.RateLimiter.GeneralMiddleware())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, model.NewNotFoundError())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, model.NewNotFoundError())
	})

	healthHandler := NewHealthHandler(deps.HealthChecker, deps.Environment)
	authHandler := NewAuthHandler(deps.AuthService, deps.StateManager, deps.TokenVerifier, deps.AuthConfig)
	commentHandler := NewCommentHandler(deps.CommentService)

	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// 認証ルート
	r.Route("/api/auth", func(r chi.Router) {
		r.Get("/me", authHandler.Me)
		r.Post("/logout", authHandler.Logout)
		r.Get("/{provider}", authHandler.Login)
		r.Get("/{provider}/callback", authHandler.Callback)
	})

	// コメントルート
	r.Get("/api/comments/post/{postId}", commentHandler.ListForPost)
	r.With(deps.RateLimiter.CommentMiddleware()).Post("/api/comments", commentHandler.Create)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewLegacyIdentityMiddleware(deps.TrustLegacyIdentityHeaders))

		r.Put("/api/comments/{id}", commentHandler.Update)
		r.Delete("/api/comments/{id}", commentHandler.Delete)
		r.Patch("/api/comments/{id}/visibility", commentHandler.SetVisibility)
	})

	return r
}
