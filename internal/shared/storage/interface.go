// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：repository/（SQL）、mongostore/、memstore/
//   - 初始化时通过依赖注入传入实现，进程内不存在单例可变状态
//
// 返回值约定（与各实现保持一致）：
//   - GetX：实体不存在时返回 (nil, nil)
//   - UpdateX / DeleteX：实体不存在时返回 ErrNotFound
//   - ListX：返回 (记录切片, 满足过滤条件的总数, error)
//   - 时间戳由实现维护，调用方不负责填写
package storage

import (
	"context"

	"catalog-admin/internal/shared/model"
)

// UserStore 用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	// CreateUsers 批量创建。原子性因后端而异：
	// SQL 实现为单事务全成全败，MongoDB 实现为有序插入、无批次原子性，
	// 详见各实现的文档说明。
	CreateUsers(ctx context.Context, users []*model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	// UpdateUser 按 user.ID 全量更新记录（补丁合并由调用方完成）
	UpdateUser(ctx context.Context, user *model.User) error
	// DeleteUser 删除并返回被删除的记录，用于确认/审计
	DeleteUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context, q ListQuery) ([]*model.User, int, error)
	// SearchUsers 在 name/email/city 上做大小写不敏感子串匹配，最多返回 SearchLimit 条
	SearchUsers(ctx context.Context, keyword string) ([]*model.User, error)
	// UserStats 按 status 分组统计：数量 + 平均年龄（空年龄不计入均值）
	UserStats(ctx context.Context) ([]*model.UserGroupStats, error)
}

// ProductStore 商品存储接口
type ProductStore interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	CreateProducts(ctx context.Context, products []*model.Product) error
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	UpdateProduct(ctx context.Context, product *model.Product) error
	DeleteProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, q ListQuery) ([]*model.Product, int, error)
	// SearchProducts 在 name/description/category 上做大小写不敏感子串匹配
	SearchProducts(ctx context.Context, keyword string) ([]*model.Product, error)
	// ProductStats 按 category 分组统计：数量 + 平均价格 + 库存总量
	ProductStats(ctx context.Context) ([]*model.ProductGroupStats, error)
}

// PersistentStore 持久化存储组合接口
type PersistentStore interface {
	UserStore
	ProductStore
	Close() error
}
