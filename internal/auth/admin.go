package auth

import "strings"

// AdminAllowList は管理者として扱うメールアドレスの集合。
// 比較は大文字小文字を区別しない。
type AdminAllowList struct {
	emails map[string]struct{}
}

// NewAdminAllowList はメールアドレスのリストからAdminAllowListを生成する。
// 空要素は無視する。
func NewAdminAllowList(emails []string) AdminAllowList {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return AdminAllowList{emails: set}
}

// Contains はメールアドレスが許可リストに含まれるか判定する。空は常にfalse。
func (l AdminAllowList) Contains(email string) bool {
	if email == "" {
		return false
	}
	_, ok := l.emails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// Len は登録されているアドレス数を返す。
func (l AdminAllowList) Len() int {
	return len(l.emails)
}
