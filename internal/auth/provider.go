package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

// ErrCodeExchange は認可コードをアクセストークンに交換できなかった場合に返される。
// 入力（認可コード）起因の失敗として扱う。
var ErrCodeExchange = errors.New("auth: authorization code exchange failed")

// OAuthUserInfo はOAuthプロバイダーから取得したユーザー情報を表す。
type OAuthUserInfo struct {
	ProviderUserID string
	Email          string // 取得できない場合は空
	Name           string
	AvatarURL      string // 取得できない場合は空
	Provider       string // "google", "github"
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// Name はプロバイダー名（URLパスに使う値）を返す。
	Name() string
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	// 交換自体の失敗はErrCodeExchangeでラップして返す。
	ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error)
}

// exchange は認可コードをトークンに交換し、認証済みHTTPクライアントを返す。
// httpClientがnilでない場合はトークン交換とAPI呼び出しの両方に使用する。
func exchange(ctx context.Context, conf *oauth2.Config, httpClient *http.Client, code string) (*http.Client, error) {
	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodeExchange, err)
	}
	return conf.Client(ctx, token), nil
}

// getJSON は認証済みクライアントでGETし、JSONレスポンスをoutにデコードする。
func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d: %s", url, resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
