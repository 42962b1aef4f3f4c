package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestGitHubOAuthProvider_GetLoginURL(t *testing.T) {
	provider := NewGitHubOAuthProvider(GitHubOAuthConfig{
		ClientID:    "gh-client",
		RedirectURL: "http://localhost:8080/api/auth/github/callback",
	})

	u, err := url.Parse(provider.GetLoginURL("st"))
	if err != nil {
		t.Fatalf("invalid URL: %v", err)
	}
	if u.Host != "github.com" || u.Path != "/login/oauth/authorize" {
		t.Errorf("unexpected authorize URL: %s", u)
	}
	q := u.Query()
	if q.Get("client_id") != "gh-client" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("scope") != "read:user user:email" {
		t.Errorf("scope = %q, want %q", q.Get("scope"), "read:user user:email")
	}
	if q.Get("state") != "st" {
		t.Errorf("state = %q, want st", q.Get("state"))
	}
	if q.Get("redirect_uri") != "http://localhost:8080/api/auth/github/callback" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
}

// newGitHubAPI はGitHub APIのテスト用サーバーを生成する。
// emailsがnilの場合は /user/emails に500を返す。
func newGitHubAPI(t *testing.T, user map[string]interface{}, emails []map[string]interface{}) (*httptest.Server, *int) {
	t.Helper()
	emailCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-access-token" {
			t.Errorf("unexpected Authorization header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(user)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		emailCalls++
		if emails == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(emails)
	})
	return httptest.NewServer(mux), &emailCalls
}

func TestGitHubOAuthProvider_ExchangeCode_PublicEmail(t *testing.T) {
	tokenServer := newTokenServer(t, "gh-code")
	defer tokenServer.Close()
	api, emailCalls := newGitHubAPI(t, map[string]interface{}{
		"id": 583231, "login": "octocat", "name": "The Octocat",
		"email": "octo@github.com", "avatar_url": "https://avatars.example.com/u/583231",
	}, nil)
	defer api.Close()

	provider := NewGitHubOAuthProvider(GitHubOAuthConfig{TokenURL: tokenServer.URL, APIURL: api.URL})

	info, err := provider.ExchangeCode(context.Background(), "gh-code")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.ProviderUserID != "583231" {
		t.Errorf("ProviderUserID = %q, want 583231", info.ProviderUserID)
	}
	if info.Email != "octo@github.com" || info.Name != "The Octocat" {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.AvatarURL != "https://avatars.example.com/u/583231" {
		t.Errorf("AvatarURL = %q", info.AvatarURL)
	}
	if info.Provider != "github" {
		t.Errorf("Provider = %q, want github", info.Provider)
	}
	if *emailCalls != 0 {
		t.Errorf("/user/emails should not be called when email is public, called %d times", *emailCalls)
	}
}

func TestGitHubOAuthProvider_ExchangeCode_PrimaryEmailFallback(t *testing.T) {
	tokenServer := newTokenServer(t, "gh-code")
	defer tokenServer.Close()
	api, emailCalls := newGitHubAPI(t, map[string]interface{}{
		"id": 1, "login": "hidden", "name": nil, "email": nil, "avatar_url": "",
	}, []map[string]interface{}{
		{"email": "secondary@example.com", "primary": false, "verified": true},
		{"email": "primary@example.com", "primary": true, "verified": true},
	})
	defer api.Close()

	provider := NewGitHubOAuthProvider(GitHubOAuthConfig{TokenURL: tokenServer.URL, APIURL: api.URL})

	info, err := provider.ExchangeCode(context.Background(), "gh-code")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Email != "primary@example.com" {
		t.Errorf("Email = %q, want primary@example.com", info.Email)
	}
	if info.Name != "hidden" {
		t.Errorf("Name should fall back to login, got %q", info.Name)
	}
	if *emailCalls != 1 {
		t.Errorf("/user/emails calls = %d, want 1", *emailCalls)
	}
}

func TestGitHubOAuthProvider_ExchangeCode_EmailsFailureIsNotFatal(t *testing.T) {
	tokenServer := newTokenServer(t, "gh-code")
	defer tokenServer.Close()
	api, _ := newGitHubAPI(t, map[string]interface{}{"id": 2, "login": "noemail"}, nil)
	defer api.Close()

	provider := NewGitHubOAuthProvider(GitHubOAuthConfig{TokenURL: tokenServer.URL, APIURL: api.URL})

	info, err := provider.ExchangeCode(context.Background(), "gh-code")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Email != "" {
		t.Errorf("Email = %q, want empty", info.Email)
	}
}

func TestGitHubOAuthProvider_ExchangeCode_TokenError(t *testing.T) {
	tokenServer := newTokenServer(t, "gh-code")
	defer tokenServer.Close()

	provider := NewGitHubOAuthProvider(GitHubOAuthConfig{TokenURL: tokenServer.URL, APIURL: "http://127.0.0.1:0"})

	_, err := provider.ExchangeCode(context.Background(), "wrong")
	if !errors.Is(err, ErrCodeExchange) {
		t.Errorf("err = %v, want ErrCodeExchange", err)
	}
}

func TestGitHubOAuthProvider_ExchangeCode_UserError(t *testing.T) {
	tokenServer := newTokenServer(t, "gh-code")
	defer tokenServer.Close()
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer api.Close()

	provider := NewGitHubOAuthProvider(GitHubOAuthConfig{TokenURL: tokenServer.URL, APIURL: api.URL})

	_, err := provider.ExchangeCode(context.Background(), "gh-code")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrCodeExchange) {
		t.Error("profile failure should not be reported as a code exchange failure")
	}
}
