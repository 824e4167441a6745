// Package storage 列表查询契约
//
// ListQuery 是与数据库无关的查询描述：{字段, 操作符, 值} 三元组的合取，
// 加上页码和页大小。各后端自行翻译为具体查询（SQL WHERE / bson.D / 内存谓词），
// 使分页与过滤契约可以脱离真实数据库测试。
package storage

// Op 过滤操作符
type Op string

const (
	// OpEq 精确匹配
	OpEq Op = "eq"
	// OpContains 大小写不敏感的子串匹配（关键字搜索用）
	OpContains Op = "contains"
)

// Condition 单个过滤条件
type Condition struct {
	Field string
	Op    Op
	Value interface{}
}

// ListQuery 分页列表查询
//
// 语义约定：
//   - Conditions 之间为 AND 关系，字段不在后端白名单内的条件被忽略而非报错
//   - 排序固定为 created_at 降序
//   - 偏移量 = (Page-1) * PageSize；PageSize 无上限（已知的加固缺口，
//     由调用方自行约束）
//   - 总数与记录切片基于同一过滤条件，但不要求来自同一原子快照
type ListQuery struct {
	Conditions []Condition
	Page       int
	PageSize   int
}

// Offset 计算偏移量
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// Eq 追加一个精确匹配条件，空值跳过
func (q ListQuery) Eq(field, value string) ListQuery {
	if value == "" {
		return q
	}
	q.Conditions = append(q.Conditions, Condition{Field: field, Op: OpEq, Value: value})
	return q
}

// SearchLimit 关键字搜索的最大返回条数
const SearchLimit = 50

// Pages 计算总页数 ceil(total / pageSize)
func Pages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
