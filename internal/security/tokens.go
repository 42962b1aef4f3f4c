package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/junki/portfolio-api/internal/model"
)

// ErrEmptySecret は署名鍵が空の場合に返される。
var ErrEmptySecret = errors.New("security: token secret must not be empty")

const (
	// StateTTL はOAuthのstate値の有効期間。
	StateTTL = 10 * time.Minute

	stateTokenType = "oauth_state"
)

// Claims は発行する資格情報のクレーム。
// email, avatar は値がない場合もnullとして必ず含める。
type Claims struct {
	jwt.RegisteredClaims
	Name    string  `json:"name"`
	Email   *string `json:"email"`
	Avatar  *string `json:"avatar"`
	IsAdmin bool    `json:"isAdmin"`
}

// VerifiedClaims は検証済み資格情報から取り出した値。
type VerifiedClaims struct {
	Subject string
	Name    string
	Email   *string
	Avatar  *string
	IsAdmin bool
}

// Principal はリクエストに付与する認証済みユーザーを返す。
func (c *VerifiedClaims) Principal() *model.Principal {
	p := &model.Principal{
		ID:      c.Subject,
		Name:    c.Name,
		IsAdmin: c.IsAdmin,
	}
	if c.Avatar != nil {
		p.Avatar = *c.Avatar
	}
	return p
}

// TokenProvider は共有秘密鍵を用いたHS256の資格情報を発行・検証する。
// 検証は署名と有効期限のみで行い、DBは参照しない。
type TokenProvider struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenProvider はTokenProviderを生成する。
func NewTokenProvider(secret string, ttl time.Duration) (*TokenProvider, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &TokenProvider{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue はユーザーのスナップショットを含む資格情報を発行する。
// exp は発行時刻 + TTL。
func (p *TokenProvider) Issue(user *model.User) (string, error) {
	now := p.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
		Name:    user.Name,
		Email:   user.Email,
		Avatar:  user.Avatar,
		IsAdmin: user.IsAdmin,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// Verify は資格情報の署名と有効期限を検証する。
// 不正・期限切れ・subjectが文字列でない場合はfalseを返し、エラーは返さない。
func (p *TokenProvider) Verify(tokenString string) (*VerifiedClaims, bool) {
	if tokenString == "" {
		return nil, false
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return p.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !token.Valid {
		return nil, false
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, false
	}

	return &VerifiedClaims{
		Subject: sub,
		Name:    stringClaim(claims["name"]),
		Email:   optionalStringClaim(claims["email"]),
		Avatar:  optionalStringClaim(claims["avatar"]),
		IsAdmin: truthy(claims["isAdmin"]),
	}, true
}

// IssueState はOAuth認可リクエスト用の署名付きstate値を発行する。
// サーバー側に状態を持たずにコールバックの正当性を検証できる。
func (p *TokenProvider) IssueState() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	now := p.now().UTC()
	claims := jwt.MapClaims{
		"typ":   stateTokenType,
		"nonce": hex.EncodeToString(nonce),
		"iat":   now.Unix(),
		"exp":   now.Add(StateTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// VerifyState はIssueStateで発行したstate値を検証する。
// 資格情報トークンはstateとしては受け付けない。
func (p *TokenProvider) VerifyState(state string) bool {
	if state == "" {
		return false
	}
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(state, claims,
		func(token *jwt.Token) (any, error) { return p.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !token.Valid {
		return false
	}
	typ, _ := claims["typ"].(string)
	return typ == stateTokenType
}

func stringClaim(v any) string {
	s, _ := v.(string)
	return s
}

func optionalStringClaim(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

// truthy はJSONの値を真偽値に変換する。
// false, 0, NaN, 空文字列, null, 欠落のみが偽。
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}
