// Package mongostore Product 相关的存储操作
package mongostore

import (
	"context"

	"catalog-admin/internal/shared/model"
	"catalog-admin/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// productFilterFields 列表过滤的字段白名单（API 字段名 -> bson 键）
var productFilterFields = map[string]string{
	"category": "category",
	"status":   "status",
}

// productSearchFields 关键字搜索覆盖的文本字段
var productSearchFields = []string{"name", "description", "category"}

// CreateProduct 创建商品，时间戳由本层分配
func (s *Store) CreateProduct(ctx context.Context, product *model.Product) error {
	now := touch()
	product.CreatedAt, product.UpdatedAt = now, now
	return insertOne(ctx, s.col(ColProducts), product)
}

// CreateProducts 批量创建商品
//
// 有序插入，无批次原子性：失败条目之前的文档保持已写入状态。
func (s *Store) CreateProducts(ctx context.Context, products []*model.Product) error {
	now := touch()
	docs := make([]interface{}, len(products))
	for i, p := range products {
		p.CreatedAt, p.UpdatedAt = now, now
		docs[i] = p
	}
	return insertMany(ctx, s.col(ColProducts), docs)
}

// GetProduct 获取商品，不存在时返回 (nil, nil)
func (s *Store) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return findOne[model.Product](ctx, s.col(ColProducts), bson.D{{Key: "_id", Value: id}})
}

// UpdateProduct 按 ID 全量替换商品文档
func (s *Store) UpdateProduct(ctx context.Context, product *model.Product) error {
	product.UpdatedAt = touch()
	return replaceByID(ctx, s.col(ColProducts), product.ID, product)
}

// DeleteProduct 删除商品并返回被删除的记录
func (s *Store) DeleteProduct(ctx context.Context, id string) (*model.Product, error) {
	return deleteByID[model.Product](ctx, s.col(ColProducts), id)
}

// ListProducts 分页列出商品
func (s *Store) ListProducts(ctx context.Context, q storage.ListQuery) ([]*model.Product, int, error) {
	filter := buildFilter(q, productFilterFields)

	total, err := s.col(ColProducts).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrapError(err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(q.PageSize)).
		SetSkip(int64(q.Offset()))
	products, err := findMany[model.Product](ctx, s.col(ColProducts), filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return products, int(total), nil
}

// SearchProducts 关键字搜索：name/description/category 的 $or 正则匹配
func (s *Store) SearchProducts(ctx context.Context, keyword string) ([]*model.Product, error) {
	opts := options.Find().SetLimit(int64(storage.SearchLimit))
	return findMany[model.Product](ctx, s.col(ColProducts), searchFilter(keyword, productSearchFields), opts)
}

// ProductStats 按分类分组统计：数量、平均价格、库存总量
func (s *Store) ProductStats(ctx context.Context) ([]*model.ProductGroupStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "avg_price", Value: bson.D{{Key: "$avg", Value: "$price"}}},
			{Key: "total_quantity", Value: bson.D{{Key: "$sum", Value: "$quantity"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	return aggregate[model.ProductGroupStats](ctx, s.col(ColProducts), pipeline)
}
