package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const defaultGitHubAPIURL = "https://api.github.com"

// GitHubOAuthConfig はGitHub OAuthプロバイダーの設定。
type GitHubOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	AuthURL    string
	TokenURL   string
	APIURL     string
	HTTPClient *http.Client
}

// GitHubOAuthProvider はGitHub OAuthによる認証を提供する。
type GitHubOAuthProvider struct {
	oauth      *oauth2.Config
	apiURL     string
	httpClient *http.Client
}

// NewGitHubOAuthProvider はGitHubOAuthProviderを生成する。
func NewGitHubOAuthProvider(config GitHubOAuthConfig) *GitHubOAuthProvider {
	endpoint := endpoints.GitHub
	if config.AuthURL != "" {
		endpoint.AuthURL = config.AuthURL
	}
	if config.TokenURL != "" {
		endpoint.TokenURL = config.TokenURL
		endpoint.AuthStyle = oauth2.AuthStyleInParams
	}
	apiURL := strings.TrimRight(config.APIURL, "/")
	if apiURL == "" {
		apiURL = defaultGitHubAPIURL
	}

	return &GitHubOAuthProvider{
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     endpoint,
		},
		apiURL:     apiURL,
		httpClient: config.HTTPClient,
	}
}

// Name はプロバイダー名を返す。
func (p *GitHubOAuthProvider) Name() string { return "github" }

// GetLoginURL はGitHub OAuthの認証URLを生成する。
func (p *GitHubOAuthProvider) GetLoginURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// githubUser は GET /user のレスポンス。
type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// githubEmail は GET /user/emails のレスポンス要素。
type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// ExchangeCode は認可コードをアクセストークンに交換し、ユーザー情報を取得する。
// 公開メールアドレスが空の場合は /user/emails のprimaryアドレスを使用する。
// 表示名が空の場合はloginを使用する。
func (p *GitHubOAuthProvider) ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error) {
	client, err := exchange(ctx, p.oauth, p.httpClient, code)
	if err != nil {
		return nil, err
	}

	var user githubUser
	if err := getJSON(ctx, client, p.apiURL+"/user", &user); err != nil {
		return nil, fmt.Errorf("failed to fetch github user: %w", err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("empty id in github user response")
	}

	email := user.Email
	if email == "" {
		email, err = p.primaryEmail(ctx, client)
		if err != nil {
			// メールアドレスなしでもログインは継続する
			slog.Warn("failed to fetch github emails",
				slog.Int64("github_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &OAuthUserInfo{
		ProviderUserID: strconv.FormatInt(user.ID, 10),
		Email:          email,
		Name:           name,
		AvatarURL:      user.AvatarURL,
		Provider:       p.Name(),
	}, nil
}

// primaryEmail はprimaryに設定されたメールアドレスを返す。見つからない場合は空文字列。
func (p *GitHubOAuthProvider) primaryEmail(ctx context.Context, client *http.Client) (string, error) {
	var emails []githubEmail
	if err := getJSON(ctx, client, p.apiURL+"/user/emails", &emails); err != nil {
		return "", err
	}
	for _, e := range emails {
		if e.Primary {
			return e.Email, nil
		}
	}
	return "", nil
}

// compile-time interface check
var _ OAuthProvider = (*GitHubOAuthProvider)(nil)
