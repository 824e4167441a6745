// Package repository User 相关的存储操作
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"catalog-admin/internal/shared/model"
	"catalog-admin/internal/shared/storage"
)

// userFilterColumns 列表过滤的字段白名单（API 字段名 -> 列名）
var userFilterColumns = map[string]string{
	"status": "status",
	"city":   "city",
	"email":  "email",
}

// userSearchColumns 关键字搜索覆盖的文本列
var userSearchColumns = []string{"name", "email", "city"}

const userCols = "id, name, email, age, city, status, created_at, updated_at"

// touch 返回存储层统一使用的时间戳
// 截断到毫秒，保证经 SQLite/MongoDB 往返后仍可相等比较
func touch() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// scanUser 辅助函数：从数据库行扫描 User
func scanUser(scanner interface {
	Scan(dest ...interface{}) error
}) (*model.User, error) {
	u := &model.User{}
	err := scanner.Scan(&u.ID, &u.Name, &u.Email, &u.Age, &u.City, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser 创建用户，时间戳由本层分配
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	now := touch()
	user.CreatedAt, user.UpdatedAt = now, now

	query := s.rebind(`
		INSERT INTO users (id, name, email, age, city, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`)
	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.Age, user.City, user.Status,
		user.CreatedAt, user.UpdatedAt)
	return wrapError(err)
}

// CreateUsers 批量创建用户
//
// 单事务执行，全成全败：任一记录插入失败则整批回滚，
// 错误信息携带失败记录的下标。
func (s *Store) CreateUsers(ctx context.Context, users []*model.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapError(err)
	}
	defer tx.Rollback()

	query := s.rebind(`
		INSERT INTO users (id, name, email, age, city, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`)
	now := touch()
	for i, u := range users {
		u.CreatedAt, u.UpdatedAt = now, now
		if _, err := tx.ExecContext(ctx, query,
			u.ID, u.Name, u.Email, u.Age, u.City, u.Status, u.CreatedAt, u.UpdatedAt); err != nil {
			return fmt.Errorf("record %d: %w", i, wrapError(err))
		}
	}
	return tx.Commit()
}

// GetUser 获取用户，不存在时返回 (nil, nil)
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	query := s.rebind(`SELECT ` + userCols + ` FROM users WHERE id = $1`)
	u, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapError(err)
	}
	return u, nil
}

// UpdateUser 按 ID 全量更新用户
func (s *Store) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = touch()
	query := s.rebind(`
		UPDATE users SET name = $1, email = $2, age = $3, city = $4, status = $5, updated_at = $6
		WHERE id = $7
	`)
	res, err := s.db.ExecContext(ctx, query,
		user.Name, user.Email, user.Age, user.City, user.Status, user.UpdatedAt, user.ID)
	if err != nil {
		return wrapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteUser 删除用户并返回被删除的记录
// 先读后删，两步之间的并发删除同样报告 ErrNotFound
func (s *Store) DeleteUser(ctx context.Context, id string) (*model.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, storage.ErrNotFound
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM users WHERE id = $1`), id)
	if err != nil {
		return nil, wrapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, storage.ErrNotFound
	}
	return u, nil
}

// ListUsers 分页列出用户
//
// 总数与记录切片基于同一 WHERE 条件，但分两次查询，
// 不构成原子快照：并发写入可能造成 pages 有一页的偏差。
func (s *Store) ListUsers(ctx context.Context, q storage.ListQuery) ([]*model.User, int, error) {
	where, args := buildWhere(s.dialect, q, userFilterColumns)

	var total int
	countQuery := s.rebind(`SELECT COUNT(*) FROM users` + where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, wrapError(err)
	}

	listQuery := s.rebind(fmt.Sprintf(
		`SELECT %s FROM users%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		userCols, where, len(args)+1, len(args)+2))
	rows, err := s.db.QueryContext(ctx, listQuery, append(args, q.PageSize, q.Offset())...)
	if err != nil {
		return nil, 0, wrapError(err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// SearchUsers 关键字搜索：name/email/city 的 OR 子串匹配
// 不排序，按底层存储顺序返回，最多 SearchLimit 条
func (s *Store) SearchUsers(ctx context.Context, keyword string) ([]*model.User, error) {
	where, args := buildSearch(s.dialect, keyword, userSearchColumns)
	query := s.rebind(fmt.Sprintf(`SELECT %s FROM users%s LIMIT $%d`, userCols, where, len(args)+1))
	rows, err := s.db.QueryContext(ctx, query, append(args, storage.SearchLimit)...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UserStats 按状态分组统计
// AVG 天然忽略 NULL 年龄；全空组的 AvgAge 为 nil
func (s *Store) UserStats(ctx context.Context) ([]*model.UserGroupStats, error) {
	query := s.rebind(`
		SELECT status, COUNT(*), AVG(age::float)
		FROM users GROUP BY status ORDER BY status
	`)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	stats := []*model.UserGroupStats{}
	for rows.Next() {
		st := &model.UserGroupStats{}
		if err := rows.Scan(&st.Status, &st.Count, &st.AvgAge); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}
