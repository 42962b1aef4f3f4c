package comment

import "github.com/junki/portfolio-api/internal/model"

// authorizeOwnerOrAdmin はコメントの作成者または管理者のみ許可する。
// 対象の存在確認は呼び出し側で済ませておくこと。
func authorizeOwnerOrAdmin(p *model.Principal, c *model.Comment) error {
	if p == nil || p.ID == "" {
		return model.NewUnauthorizedError()
	}
	if c.AuthorID != p.ID && !p.IsAdmin {
		return model.NewForbiddenError()
	}
	return nil
}

// authorizeAdmin は管理者のみ許可する。
func authorizeAdmin(p *model.Principal) error {
	if p == nil || p.ID == "" {
		return model.NewUnauthorizedError()
	}
	if !p.IsAdmin {
		return model.NewAdminRequiredError()
	}
	return nil
}
