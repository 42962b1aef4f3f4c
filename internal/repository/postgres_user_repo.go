package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/junki/portfolio-api/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const selectUserColumns = `SELECT id, provider, provider_id, name, email, avatar, is_admin, created_at FROM users`

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, selectUserColumns+` WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByProvider はproviderとprovider_idでユーザーを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByProvider(ctx context.Context, provider, providerID string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		selectUserColumns+` WHERE provider = $1 AND provider_id = $2`,
		provider, providerID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by provider: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, provider, provider_id, name, email, avatar, is_admin)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		user.ID, user.Provider, user.ProviderID, user.Name,
		nullStringPtr(user.Email), nullStringPtr(user.Avatar), user.IsAdmin,
	).Scan(&user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// scanUser は1行をmodel.Userに読み込む。行がない場合はnil, nilを返す。
func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var email, avatar sql.NullString
	err := row.Scan(
		&user.ID, &user.Provider, &user.ProviderID, &user.Name,
		&email, &avatar, &user.IsAdmin, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user.Email = stringPtrValue(email)
	user.Avatar = stringPtrValue(avatar)
	return user, nil
}

// nullStringPtr は*stringをsql.NullStringに変換する。nilはNULLとして扱う。
func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// stringPtrValue はsql.NullStringを*stringに変換する。
func stringPtrValue(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
