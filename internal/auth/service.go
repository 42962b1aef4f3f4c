// Package auth はOAuth認証フローとローカルユーザーの作成を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/junki/portfolio-api/internal/model"
	"github.com/junki/portfolio-api/internal/repository"
)

// ErrUnknownProvider は未対応または未設定のプロバイダーが指定された場合に返される。
var ErrUnknownProvider = errors.New("auth: unknown provider")

// defaultDisplayName は表示名が得られない場合に使用する名前。
const defaultDisplayName = "Anonymous"

// TokenIssuer は資格情報を発行するインターフェース。
type TokenIssuer interface {
	Issue(user *model.User) (string, error)
}

// NameSanitizer は表示名をサニタイズするインターフェース。
type NameSanitizer interface {
	Sanitize(name string) string
}

// LoginRecorder はログイン結果を記録するインターフェース。
type LoginRecorder interface {
	RecordLogin(provider string, newUser bool)
}

// LoginResult はOAuthコールバック処理の結果。
type LoginResult struct {
	Token   string
	User    *model.User
	NewUser bool
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	providers map[string]OAuthProvider
	users     repository.UserRepository
	tokens    TokenIssuer
	names     NameSanitizer
	admins    AdminAllowList
	recorder  LoginRecorder
	newUserID func() string
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(
	providers []OAuthProvider,
	users repository.UserRepository,
	tokens TokenIssuer,
	names NameSanitizer,
	admins AdminAllowList,
	recorder LoginRecorder,
) *Service {
	m := make(map[string]OAuthProvider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &Service{
		providers: m,
		users:     users,
		tokens:    tokens,
		names:     names,
		admins:    admins,
		recorder:  recorder,
		newUserID: generateUserID,
	}
}

// GetLoginURL は指定プロバイダーのOAuth認証URLを生成する。
func (s *Service) GetLoginURL(provider, state string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", ErrUnknownProvider
	}
	return p.GetLoginURL(state), nil
}

// HasProvider は指定プロバイダーが有効か判定する。
func (s *Service) HasProvider(provider string) bool {
	_, ok := s.providers[provider]
	return ok
}

// HandleCallback はOAuthコールバックを処理し、資格情報を発行する。
// (provider, provider_id) が未登録の場合はユーザーを作成する。
// 管理者フラグは作成時に一度だけ決定し、既存ユーザーでは再計算しない。
func (s *Service) HandleCallback(ctx context.Context, provider, code string) (*LoginResult, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}

	// 1. 認可コードをトークンに交換し、ユーザー情報を取得
	info, err := p.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	// 2. 既存ユーザーを検索
	user, err := s.users.FindByProvider(ctx, info.Provider, info.ProviderUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	newUser := false
	if user != nil {
		slog.Info("existing user logged in",
			slog.String("user_id", user.ID),
			slog.String("provider", info.Provider),
		)
	} else {
		// 3. 新規ユーザーを作成
		user, newUser, err = s.createUser(ctx, info)
		if err != nil {
			return nil, err
		}
	}

	// 4. 資格情報を発行
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if s.recorder != nil {
		s.recorder.RecordLogin(info.Provider, newUser)
	}

	return &LoginResult{Token: token, User: user, NewUser: newUser}, nil
}

// createUser はOAuthユーザー情報からユーザーを作成する。
// 同時ログインで一意制約に違反した場合は、先に作成されたユーザーを返す。
func (s *Service) createUser(ctx context.Context, info *OAuthUserInfo) (*model.User, bool, error) {
	name := s.names.Sanitize(info.Name)
	if name == "" {
		name = defaultDisplayName
	}

	user := &model.User{
		ID:         s.newUserID(),
		Provider:   info.Provider,
		ProviderID: info.ProviderUserID,
		Name:       name,
		Email:      optionalString(info.Email),
		Avatar:     optionalString(info.AvatarURL),
		IsAdmin:    s.admins.Contains(info.Email),
	}

	if err := s.users.Create(ctx, user); err != nil {
		existing, findErr := s.users.FindByProvider(ctx, info.Provider, info.ProviderUserID)
		if findErr == nil && existing != nil {
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user created",
		slog.String("user_id", user.ID),
		slog.String("provider", info.Provider),
		slog.Bool("is_admin", user.IsAdmin),
	)
	return user, true, nil
}

// generateUserID は "u_" + 16桁の16進数のユーザーIDを生成する。
func generateUserID() string {
	return "u_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
