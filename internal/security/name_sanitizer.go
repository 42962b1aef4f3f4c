// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TokenProvider は署名付きの資格情報（JWT）を発行・検証する。
// NameSanitizer はOAuthプロバイダーから受け取った表示名からマークアップを取り除く。
package security

import (
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// maxDisplayNameRunes は保存する表示名の最大文字数。
const maxDisplayNameRunes = 100

// NameSanitizer は表示名のサニタイズ機能のインターフェースを定義する。
// 表示名はユーザー作成時に保存され、コメントにも複製されるため、
// 保存前に一度だけ適用する。
type NameSanitizer interface {
	// Sanitize は全てのHTMLタグを除去し、空白を正規化した表示名を返す。
	// 結果はHTMLエスケープ済みのテキストで、"Tom & Jerry" は "Tom &amp; Jerry" になる。
	// 出力を再度渡しても結果は変わらない。結果が空の場合は空文字列を返す。
	Sanitize(name string) string
}

// nameSanitizer はNameSanitizerの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type nameSanitizer struct {
	policy *bluemonday.Policy
}

// NewNameSanitizer はNameSanitizerの新しいインスタンスを生成する。
func NewNameSanitizer() *nameSanitizer {
	return &nameSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は表示名からタグを除去する。
// エスケープ済みの出力をデコードし直すことはしない。
func (s *nameSanitizer) Sanitize(name string) string {
	cleaned := strings.Join(strings.Fields(s.policy.Sanitize(name)), " ")

	if utf8.RuneCountInString(cleaned) > maxDisplayNameRunes {
		cleaned = truncateEscaped(cleaned, maxDisplayNameRunes)
	}
	return cleaned
}

// truncateEscaped はエスケープ済みテキストをmaxRunes文字に切り詰める。
// 末尾で途切れた文字参照（"&am" など）は取り除く。
func truncateEscaped(s string, maxRunes int) string {
	s = string([]rune(s)[:maxRunes])
	if i := strings.LastIndexByte(s, '&'); i >= 0 && !strings.Contains(s[i:], ";") {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// compile-time interface check
var _ NameSanitizer = (*nameSanitizer)(nil)
