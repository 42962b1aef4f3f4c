package app

import "strings"

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーを起動する。
	CommandServe Command = "serve"
	// CommandMigrate は埋め込みマイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は /health を叩いて終了コードで結果を返す。
	// distrolessイメージにはcurlがないため、Dockerのヘルスチェックはこれを使う。
	CommandHealthcheck Command = "healthcheck"
)

var knownCommands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandMigrate):     CommandMigrate,
	string(CommandHealthcheck): CommandHealthcheck,
}

// ParseCommand は最初のフラグでない引数をサブコマンドとして解釈する。
// 大文字小文字と前後の空白は無視する。
// 該当がなければ CommandServe と false を返す。
func ParseCommand(args []string) (Command, bool) {
	for _, arg := range args {
		arg = strings.ToLower(strings.TrimSpace(arg))
		if arg == "" || strings.HasPrefix(arg, "-") {
			continue
		}
		cmd, ok := knownCommands[arg]
		if !ok {
			return CommandServe, false
		}
		return cmd, true
	}
	return CommandServe, true
}
