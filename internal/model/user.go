// Package model はドメインモデルを定義する。
package model

import "time"

// User は外部OAuthアカウント1つに紐づくローカルのユーザーを表す。
// (Provider, ProviderID) の組は一意。
type User struct {
	ID         string
	Provider   string
	ProviderID string
	Name       string
	Email      *string
	Avatar     *string
	IsAdmin    bool
	CreatedAt  time.Time
}

// Principal はリクエストに解決された認証済みユーザーを表す。
// 検証済みクレデンシャル発行時点のスナップショットであり、DBの最新状態とは限らない。
type Principal struct {
	ID      string
	Name    string
	Avatar  string
	IsAdmin bool
}
