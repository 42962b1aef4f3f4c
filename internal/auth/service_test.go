package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/junki/portfolio-api/internal/model"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn       func(ctx context.Context, id string) (*model.User, error)
	findByProviderFn func(ctx context.Context, provider, providerID string) (*model.User, error)
	createFn         func(ctx context.Context, user *model.User) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByProvider(ctx context.Context, provider, providerID string) (*model.User, error) {
	if m.findByProviderFn != nil {
		return m.findByProviderFn(ctx, provider, providerID)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

type mockOAuthProvider struct {
	name           string
	getLoginURLFn  func(state string) string
	exchangeCodeFn func(ctx context.Context, code string) (*OAuthUserInfo, error)
}

func (m *mockOAuthProvider) Name() string { return m.name }

func (m *mockOAuthProvider) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return "https://idp.example.com/authorize?state=" + state
}

func (m *mockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error) {
	if m.exchangeCodeFn != nil {
		return m.exchangeCodeFn(ctx, code)
	}
	return nil, errors.New("not implemented")
}

type mockTokenIssuer struct {
	issued []*model.User
	err    error
}

func (m *mockTokenIssuer) Issue(user *model.User) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	copied := *user
	m.issued = append(m.issued, &copied)
	return "token-for-" + user.ID, nil
}

type upperSanitizer struct{}

func (upperSanitizer) Sanitize(name string) string { return strings.TrimSpace(strings.ToUpper(name)) }

type mockLoginRecorder struct {
	provider string
	newUser  bool
	calls    int
}

func (m *mockLoginRecorder) RecordLogin(provider string, newUser bool) {
	m.provider = provider
	m.newUser = newUser
	m.calls++
}

func githubInfo(email string) func(ctx context.Context, code string) (*OAuthUserInfo, error) {
	return func(_ context.Context, code string) (*OAuthUserInfo, error) {
		return &OAuthUserInfo{
			ProviderUserID: "583231",
			Email:          email,
			Name:           "octo cat",
			AvatarURL:      "https://avatars.example.com/1",
			Provider:       "github",
		}, nil
	}
}

// --- テスト ---

func TestGetLoginURL_DelegatesToProvider(t *testing.T) {
	gh := &mockOAuthProvider{name: "github"}
	svc := NewService([]OAuthProvider{gh}, &mockUserRepo{}, &mockTokenIssuer{}, upperSanitizer{}, AdminAllowList{}, nil)

	url, err := svc.GetLoginURL("github", "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://idp.example.com/authorize?state=abc" {
		t.Errorf("url = %q", url)
	}

	if _, err := svc.GetLoginURL("gitlab", "abc"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("err = %v, want ErrUnknownProvider", err)
	}
	if !svc.HasProvider("github") || svc.HasProvider("google") {
		t.Error("HasProvider returned unexpected result")
	}
}

func TestHandleCallback_NewUser_CreatesUserAndIssuesToken(t *testing.T) {
	var created *model.User
	repo := &mockUserRepo{
		createFn: func(_ context.Context, user *model.User) error {
			created = user
			return nil
		},
	}
	tokens := &mockTokenIssuer{}
	recorder := &mockLoginRecorder{}
	gh := &mockOAuthProvider{name: "github", exchangeCodeFn: githubInfo("Owner@Example.com")}
	svc := NewService([]OAuthProvider{gh}, repo, tokens, upperSanitizer{},
		NewAdminAllowList([]string{"owner@example.com"}), recorder)
	svc.newUserID = func() string { return "u_0123456789abcdef" }

	result, err := svc.HandleCallback(context.Background(), "github", "code")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created == nil {
		t.Fatal("user should be created")
	}
	if created.ID != "u_0123456789abcdef" || created.Provider != "github" || created.ProviderID != "583231" {
		t.Errorf("unexpected created user: %+v", created)
	}
	if created.Name != "OCTO CAT" {
		t.Errorf("Name should be sanitized, got %q", created.Name)
	}
	if created.Email == nil || *created.Email != "Owner@Example.com" {
		t.Errorf("Email = %v", created.Email)
	}
	if created.Avatar == nil || *created.Avatar != "https://avatars.example.com/1" {
		t.Errorf("Avatar = %v", created.Avatar)
	}
	if !created.IsAdmin {
		t.Error("allow-listed email should be admin (case-insensitive)")
	}

	if !result.NewUser || result.Token != "token-for-u_0123456789abcdef" || result.User != created {
		t.Errorf("unexpected result: %+v", result)
	}
	if recorder.calls != 1 || recorder.provider != "github" || !recorder.newUser {
		t.Errorf("unexpected login record: %+v", recorder)
	}
}

func TestHandleCallback_NewUser_NotAdminWithoutEmail(t *testing.T) {
	var created *model.User
	repo := &mockUserRepo{createFn: func(_ context.Context, u *model.User) error { created = u; return nil }}
	gh := &mockOAuthProvider{name: "github", exchangeCodeFn: githubInfo("")}
	svc := NewService([]OAuthProvider{gh}, repo, &mockTokenIssuer{}, upperSanitizer{},
		NewAdminAllowList([]string{"owner@example.com"}), nil)

	if _, err := svc.HandleCallback(context.Background(), "github", "code"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.IsAdmin {
		t.Error("user without email must not be admin")
	}
	if created.Email != nil {
		t.Errorf("Email = %q, want nil", *created.Email)
	}
}

func TestHandleCallback_NewUser_EmptyNameFallsBack(t *testing.T) {
	var created *model.User
	repo := &mockUserRepo{createFn: func(_ context.Context, u *model.User) error { created = u; return nil }}
	gh := &mockOAuthProvider{name: "google", exchangeCodeFn: func(context.Context, string) (*OAuthUserInfo, error) {
		return &OAuthUserInfo{ProviderUserID: "g1", Name: "  ", Provider: "google"}, nil
	}}
	svc := NewService([]OAuthProvider{gh}, repo, &mockTokenIssuer{}, upperSanitizer{}, AdminAllowList{}, nil)

	if _, err := svc.HandleCallback(context.Background(), "google", "code"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Name != defaultDisplayName {
		t.Errorf("Name = %q, want %q", created.Name, defaultDisplayName)
	}
}

func TestHandleCallback_ExistingUser_KeepsStoredAdminFlag(t *testing.T) {
	existing := &model.User{ID: "u_existing", Provider: "github", ProviderID: "583231", Name: "Stored", IsAdmin: false}
	createCalled := false
	repo := &mockUserRepo{
		findByProviderFn: func(_ context.Context, provider, providerID string) (*model.User, error) {
			if provider == "github" && providerID == "583231" {
				return existing, nil
			}
			return nil, nil
		},
		createFn: func(context.Context, *model.User) error {
			createCalled = true
			return nil
		},
	}
	tokens := &mockTokenIssuer{}
	recorder := &mockLoginRecorder{}
	gh := &mockOAuthProvider{name: "github", exchangeCodeFn: githubInfo("owner@example.com")}
	svc := NewService([]OAuthProvider{gh}, repo, tokens, upperSanitizer{},
		NewAdminAllowList([]string{"owner@example.com"}), recorder)

	result, err := svc.HandleCallback(context.Background(), "github", "code")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if createCalled {
		t.Error("Create should not be called for an existing user")
	}
	if result.NewUser || result.User != existing {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(tokens.issued) != 1 || tokens.issued[0].IsAdmin || tokens.issued[0].Name != "Stored" {
		t.Errorf("token should be issued from the stored user, got %+v", tokens.issued)
	}
	if recorder.newUser {
		t.Error("login should be recorded as existing user")
	}
}

func TestHandleCallback_ConcurrentCreateReturnsExisting(t *testing.T) {
	winner := &model.User{ID: "u_winner", Provider: "github", ProviderID: "583231", Name: "Winner"}
	lookups := 0
	repo := &mockUserRepo{
		findByProviderFn: func(context.Context, string, string) (*model.User, error) {
			lookups++
			if lookups == 1 {
				return nil, nil
			}
			return winner, nil
		},
		createFn: func(context.Context, *model.User) error {
			return errors.New("duplicate key value violates unique constraint")
		},
	}
	gh := &mockOAuthProvider{name: "github", exchangeCodeFn: githubInfo("")}
	svc := NewService([]OAuthProvider{gh}, repo, &mockTokenIssuer{}, upperSanitizer{}, AdminAllowList{}, nil)

	result, err := svc.HandleCallback(context.Background(), "github", "code")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.User != winner || result.NewUser {
		t.Errorf("expected the concurrently created user, got %+v", result)
	}
}

func TestHandleCallback_Errors(t *testing.T) {
	dbErr := errors.New("db down")

	tests := []struct {
		name     string
		provider string
		exchange func(context.Context, string) (*OAuthUserInfo, error)
		findErr  error
		createFn func(context.Context, *model.User) error
		issueErr error
		wantIs   error
	}{
		{
			name:     "未知のプロバイダー",
			provider: "gitlab",
			wantIs:   ErrUnknownProvider,
		},
		{
			name:     "コード交換失敗",
			provider: "github",
			exchange: func(context.Context, string) (*OAuthUserInfo, error) {
				return nil, ErrCodeExchange
			},
			wantIs: ErrCodeExchange,
		},
		{
			name:     "検索失敗",
			provider: "github",
			exchange: githubInfo(""),
			findErr:  dbErr,
			wantIs:   dbErr,
		},
		{
			name:     "作成失敗",
			provider: "github",
			exchange: githubInfo(""),
			createFn: func(context.Context, *model.User) error { return dbErr },
			wantIs:   dbErr,
		},
		{
			name:     "発行失敗",
			provider: "github",
			exchange: githubInfo(""),
			issueErr: dbErr,
			wantIs:   dbErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockUserRepo{
				findByProviderFn: func(context.Context, string, string) (*model.User, error) {
					return nil, tt.findErr
				},
				createFn: tt.createFn,
			}
			gh := &mockOAuthProvider{name: "github", exchangeCodeFn: tt.exchange}
			recorder := &mockLoginRecorder{}
			svc := NewService([]OAuthProvider{gh}, repo, &mockTokenIssuer{err: tt.issueErr}, upperSanitizer{}, AdminAllowList{}, recorder)

			_, err := svc.HandleCallback(context.Background(), tt.provider, "code")
			if !errors.Is(err, tt.wantIs) {
				t.Errorf("err = %v, want %v", err, tt.wantIs)
			}
			if recorder.calls != 0 {
				t.Error("failed login should not be recorded")
			}
		})
	}
}

func TestGenerateUserID_Format(t *testing.T) {
	id := generateUserID()
	if !strings.HasPrefix(id, "u_") || len(id) != 18 {
		t.Fatalf("id = %q, want u_ + 16 hex chars", id)
	}
	for _, r := range id[2:] {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Errorf("id %q contains non-hex rune %q", id, r)
		}
	}
	if generateUserID() == id {
		t.Error("ids should be unique")
	}
}
