// Package mongostore User 相关的存储操作
package mongostore

import (
	"context"

	"catalog-admin/internal/shared/model"
	"catalog-admin/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// userFilterFields 列表过滤的字段白名单（API 字段名 -> bson 键）
var userFilterFields = map[string]string{
	"status": "status",
	"city":   "city",
	"email":  "email",
}

// userSearchFields 关键字搜索覆盖的文本字段
var userSearchFields = []string{"name", "email", "city"}

// CreateUser 创建用户，时间戳由本层分配
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	now := touch()
	user.CreatedAt, user.UpdatedAt = now, now
	return insertOne(ctx, s.col(ColUsers), user)
}

// CreateUsers 批量创建用户
//
// 有序插入，无批次原子性：失败条目之前的文档保持已写入状态。
// 与 SQL 实现（单事务全成全败）的差异是后端固有行为，见接口文档。
func (s *Store) CreateUsers(ctx context.Context, users []*model.User) error {
	now := touch()
	docs := make([]interface{}, len(users))
	for i, u := range users {
		u.CreatedAt, u.UpdatedAt = now, now
		docs[i] = u
	}
	return insertMany(ctx, s.col(ColUsers), docs)
}

// GetUser 获取用户，不存在时返回 (nil, nil)
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

// UpdateUser 按 ID 全量替换用户文档
func (s *Store) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = touch()
	return replaceByID(ctx, s.col(ColUsers), user.ID, user)
}

// DeleteUser 删除用户并返回被删除的记录
func (s *Store) DeleteUser(ctx context.Context, id string) (*model.User, error) {
	return deleteByID[model.User](ctx, s.col(ColUsers), id)
}

// ListUsers 分页列出用户
//
// 总数与记录切片基于同一过滤器，但 CountDocuments 与 Find 是两次读取，
// 不构成原子快照：并发写入可能造成 pages 有一页的偏差。
func (s *Store) ListUsers(ctx context.Context, q storage.ListQuery) ([]*model.User, int, error) {
	filter := buildFilter(q, userFilterFields)

	total, err := s.col(ColUsers).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrapError(err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(q.PageSize)).
		SetSkip(int64(q.Offset()))
	users, err := findMany[model.User](ctx, s.col(ColUsers), filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return users, int(total), nil
}

// SearchUsers 关键字搜索：name/email/city 的 $or 正则匹配
// 不排序，按底层存储顺序返回，最多 SearchLimit 条
func (s *Store) SearchUsers(ctx context.Context, keyword string) ([]*model.User, error) {
	opts := options.Find().SetLimit(int64(storage.SearchLimit))
	return findMany[model.User](ctx, s.col(ColUsers), searchFilter(keyword, userSearchFields), opts)
}

// UserStats 按状态分组统计
// $avg 天然忽略空值年龄；全空组的 avg_age 为 nil
func (s *Store) UserStats(ctx context.Context) ([]*model.UserGroupStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "avg_age", Value: bson.D{{Key: "$avg", Value: "$age"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	return aggregate[model.UserGroupStats](ctx, s.col(ColUsers), pipeline)
}
