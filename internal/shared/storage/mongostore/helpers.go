// Package mongostore 通用查询辅助函数与错误转换
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"catalog-admin/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// wrapError 将 MongoDB 错误转换为领域错误
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return &storage.ConflictError{Field: duplicateField(err.Error())}
	}
	if mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return storage.ErrUnavailable
	}
	return err
}

// dupIndexRe 匹配重复键错误信息中的索引名，如 "index: email_1"
var dupIndexRe = regexp.MustCompile(`index: (\w+?)_1`)

// duplicateField 从重复键错误信息中提取冲突字段名
func duplicateField(msg string) string {
	m := dupIndexRe.FindStringSubmatch(msg)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// touch 返回存储层统一使用的时间戳
// 截断到毫秒对齐 BSON Date 的精度，保证往返后仍可相等比较
func touch() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// buildFilter 将 ListQuery 的条件翻译为 bson 过滤器
//
// fields 是字段白名单（API 字段名 -> bson 键），白名单外的条件被忽略。
// OpContains 使用 QuoteMeta 后的正则，保证按字面子串匹配。
func buildFilter(q storage.ListQuery, fields map[string]string) bson.D {
	filter := bson.D{}
	for _, c := range q.Conditions {
		key, ok := fields[c.Field]
		if !ok {
			continue
		}
		switch c.Op {
		case storage.OpEq:
			filter = append(filter, bson.E{Key: key, Value: c.Value})
		case storage.OpContains:
			filter = append(filter, bson.E{Key: key, Value: containsRegex(fmt.Sprint(c.Value))})
		}
	}
	return filter
}

// searchFilter 构建关键字搜索过滤器：多个文本字段的 $or 正则匹配
func searchFilter(keyword string, fields []string) bson.D {
	re := containsRegex(keyword)
	or := make(bson.A, len(fields))
	for i, f := range fields {
		or[i] = bson.D{{Key: f, Value: re}}
	}
	return bson.D{{Key: "$or", Value: or}}
}

// containsRegex 大小写不敏感的字面子串匹配
func containsRegex(keyword string) bson.D {
	return bson.D{
		{Key: "$regex", Value: regexp.QuoteMeta(keyword)},
		{Key: "$options", Value: "i"},
	}
}

// findOne 查找单个文档并解码到 result
// 文档不存在时返回 (nil, nil)，与 SQL 实现的 sql.ErrNoRows → (nil, nil) 行为一致
func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.D) (*T, error) {
	var result T
	err := col.FindOne(ctx, filter).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, wrapError(err)
	}
	return &result, nil
}

// findMany 查找多个文档
func findMany[T any](ctx context.Context, col *mongo.Collection, filter bson.D, opts ...options.Lister[options.FindOptions]) ([]*T, error) {
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cursor.Close(ctx)

	var results []*T
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		results = append(results, &item)
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapError(err)
	}
	if results == nil {
		results = []*T{}
	}
	return results, nil
}

// aggregate 执行聚合管道并解码全部结果
func aggregate[T any](ctx context.Context, col *mongo.Collection, pipeline mongo.Pipeline) ([]*T, error) {
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cursor.Close(ctx)

	var results []*T
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		results = append(results, &item)
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapError(err)
	}
	if results == nil {
		results = []*T{}
	}
	return results, nil
}

// insertOne 插入单个文档
func insertOne(ctx context.Context, col *mongo.Collection, doc interface{}) error {
	_, err := col.InsertOne(ctx, doc)
	return wrapError(err)
}

// insertMany 有序批量插入
//
// MongoDB 不提供跨文档原子性：某一条失败时，其之前的文档已经写入且不回滚。
// 错误信息携带第一条失败记录的下标。
func insertMany(ctx context.Context, col *mongo.Collection, docs []interface{}) error {
	_, err := col.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err == nil {
		return nil
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) && len(bwe.WriteErrors) > 0 {
		we := bwe.WriteErrors[0]
		if we.Code == 11000 { // duplicate key
			return fmt.Errorf("record %d: %w", we.Index, &storage.ConflictError{Field: duplicateField(we.Message)})
		}
		return fmt.Errorf("record %d: %s", we.Index, we.Message)
	}
	return wrapError(err)
}

// replaceByID 按 _id 全量替换文档
func replaceByID(ctx context.Context, col *mongo.Collection, id string, doc interface{}) error {
	res, err := col.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// deleteByID 按 _id 删除并返回被删除的文档
func deleteByID[T any](ctx context.Context, col *mongo.Collection, id string) (*T, error) {
	var result T
	err := col.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, wrapError(err)
	}
	return &result, nil
}
