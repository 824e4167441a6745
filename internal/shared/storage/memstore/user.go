// Package memstore User 相关的存储操作
package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"catalog-admin/internal/shared/model"
	"catalog-admin/internal/shared/storage"
)

// cloneUser 深拷贝用户记录（Age 指针单独复制）
func cloneUser(u *model.User) *model.User {
	c := *u
	if u.Age != nil {
		age := *u.Age
		c.Age = &age
	}
	return &c
}

// userField 过滤字段白名单：返回字段的字符串值
func userField(u *model.User, field string) (string, bool) {
	switch field {
	case "status":
		return string(u.Status), true
	case "city":
		return u.City, true
	case "email":
		return u.Email, true
	}
	return "", false
}

// matchUser 评估条件合取，白名单外的条件忽略
func matchUser(u *model.User, conds []storage.Condition) bool {
	for _, c := range conds {
		v, ok := userField(u, c.Field)
		if !ok {
			continue
		}
		want := fmt.Sprint(c.Value)
		switch c.Op {
		case storage.OpEq:
			if v != want {
				return false
			}
		case storage.OpContains:
			if !containsFold(v, want) {
				return false
			}
		}
	}
	return true
}

// CreateUser 创建用户，时间戳由本层分配
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return &storage.ConflictError{Field: "id"}
	}
	for _, e := range s.users {
		if e.user.Email == user.Email {
			return &storage.ConflictError{Field: "email"}
		}
	}

	now := touch()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = &userEntry{user: cloneUser(user), seq: s.nextSeq()}
	return nil
}

// CreateUsers 批量创建用户，全成全败：
// 先整体检查冲突，再一次性写入，失败时不留下任何部分写入。
func (s *Store) CreateUsers(ctx context.Context, users []*model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(users))
	for i, u := range users {
		if _, exists := s.users[u.ID]; exists {
			return fmt.Errorf("record %d: %w", i, &storage.ConflictError{Field: "id"})
		}
		if seen[u.Email] {
			return fmt.Errorf("record %d: %w", i, &storage.ConflictError{Field: "email"})
		}
		for _, e := range s.users {
			if e.user.Email == u.Email {
				return fmt.Errorf("record %d: %w", i, &storage.ConflictError{Field: "email"})
			}
		}
		seen[u.Email] = true
	}

	now := touch()
	for _, u := range users {
		u.CreatedAt, u.UpdatedAt = now, now
		s.users[u.ID] = &userEntry{user: cloneUser(u), seq: s.nextSeq()}
	}
	return nil
}

// GetUser 获取用户，不存在时返回 (nil, nil)
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(e.user), nil
}

// UpdateUser 按 ID 全量更新用户
func (s *Store) UpdateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.users[user.ID]
	if !ok {
		return storage.ErrNotFound
	}
	for id, other := range s.users {
		if id != user.ID && other.user.Email == user.Email {
			return &storage.ConflictError{Field: "email"}
		}
	}

	user.CreatedAt = e.user.CreatedAt
	user.UpdatedAt = touch()
	e.user = cloneUser(user)
	return nil
}

// DeleteUser 删除用户并返回被删除的记录
func (s *Store) DeleteUser(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	delete(s.users, id)
	return e.user, nil
}

// ListUsers 分页列出用户，创建时间降序
func (s *Store) ListUsers(ctx context.Context, q storage.ListQuery) ([]*model.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []*userEntry{}
	for _, e := range s.users {
		if matchUser(e.user, q.Conditions) {
			matched = append(matched, e)
		}
	}
	total := len(matched)

	sortByCreatedDesc(matched,
		func(e *userEntry) time.Time { return e.user.CreatedAt },
		func(e *userEntry) int64 { return e.seq })

	page := paginate(matched, q)
	users := make([]*model.User, len(page))
	for i, e := range page {
		users[i] = cloneUser(e.user)
	}
	return users, total, nil
}

// SearchUsers 关键字搜索：name/email/city 的 OR 子串匹配，最多 SearchLimit 条
func (s *Store) SearchUsers(ctx context.Context, keyword string) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []*model.User{}
	for _, e := range s.users {
		u := e.user
		if containsFold(u.Name, keyword) || containsFold(u.Email, keyword) || containsFold(u.City, keyword) {
			users = append(users, cloneUser(u))
			if len(users) >= storage.SearchLimit {
				break
			}
		}
	}
	return users, nil
}

// UserStats 按状态分组统计，空年龄不计入均值
func (s *Store) UserStats(ctx context.Context) ([]*model.UserGroupStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type agg struct {
		count  int
		ageSum int
		ageN   int
	}
	groups := map[model.UserStatus]*agg{}
	for _, e := range s.users {
		g, ok := groups[e.user.Status]
		if !ok {
			g = &agg{}
			groups[e.user.Status] = g
		}
		g.count++
		if e.user.Age != nil {
			g.ageSum += *e.user.Age
			g.ageN++
		}
	}

	stats := []*model.UserGroupStats{}
	for status, g := range groups {
		st := &model.UserGroupStats{Status: status, Count: g.count}
		if g.ageN > 0 {
			avg := float64(g.ageSum) / float64(g.ageN)
			st.AvgAge = &avg
		}
		stats = append(stats, st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Status < stats[j].Status })
	return stats, nil
}
