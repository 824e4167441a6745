// Package repository 数据库无关的 SQL 存储层
//
// 通过 dbutil.Dialect 接口屏蔽 PostgreSQL 与 SQLite 的 SQL 差异，
// 所有 SQL 以 PostgreSQL 风格编写，运行时由 Dialect.Rebind() 转换。
// 实现了 storage.PersistentStore 接口。
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"catalog-admin/internal/shared/storage"
	"catalog-admin/internal/shared/storage/dbutil"

	"github.com/jackc/pgx/v5/pgconn"
	sqlitelib "modernc.org/sqlite"
)

// Store 通用 SQL 存储实现
type Store struct {
	db      *sql.DB
	dialect dbutil.Dialect
}

var _ storage.PersistentStore = (*Store)(nil)

// NewStore 创建通用存储
func NewStore(db *sql.DB, dialect dbutil.Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	return s.db.Close()
}

// DB 返回底层数据库连接（仅用于测试）
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect 返回当前方言
func (s *Store) Dialect() dbutil.Dialect {
	return s.dialect
}

// rebind 快捷方法：将 PG 风格 SQL 转换为当前方言
func (s *Store) rebind(query string) string {
	return s.dialect.Rebind(query)
}

// wrapError 将底层数据库错误转换为领域错误
//
// 唯一键冲突映射为 ConflictError 并携带冲突字段名；
// 连接池获取超时映射为 ErrUnavailable。
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return &storage.ConflictError{Field: pgConstraintField(pgErr.ConstraintName)}
	}

	var sqErr *sqlitelib.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code() {
		case 2067, 1555: // SQLITE_CONSTRAINT_UNIQUE / SQLITE_CONSTRAINT_PRIMARYKEY
			return &storage.ConflictError{Field: sqliteConstraintField(sqErr.Error())}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return storage.ErrUnavailable
	}
	return err
}

// pgConstraintField 从 PostgreSQL 约束名提取字段名
// 约定命名 <table>_<column>_key，如 "users_email_key" -> "email"；
// 主键约束 <table>_pkey 映射为 "id"
func pgConstraintField(constraint string) string {
	if strings.HasSuffix(constraint, "_pkey") {
		return "id"
	}
	name := strings.TrimSuffix(constraint, "_key")
	if idx := strings.Index(name, "_"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// sqliteConstraintField 从 SQLite 错误信息提取字段名
// 信息格式 "UNIQUE constraint failed: users.email (2067)"
func sqliteConstraintField(msg string) string {
	idx := strings.LastIndex(msg, ".")
	if idx < 0 {
		return ""
	}
	rest := msg[idx+1:]
	if sp := strings.IndexAny(rest, " ("); sp >= 0 {
		rest = rest[:sp]
	}
	return rest
}
