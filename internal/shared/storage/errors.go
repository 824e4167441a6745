// Package storage 定义存储层领域错误
//
// 这些错误用于隔离业务层与底层存储引擎的错误类型，
// 各驱动实现（repository/mongostore/memstore）负责将底层错误转换为这些领域错误。
package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 实体不存在
	// 替代 sql.ErrNoRows / mongo.ErrNoDocuments
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate 唯一键冲突（INSERT 重复的唯一字段）
	ErrDuplicate = errors.New("duplicate: entity already exists")

	// ErrUnavailable 存储不可用：连接池耗尽或获取连接超时
	// 这是系统中唯一的背压信号，API 层映射为 503
	ErrUnavailable = errors.New("storage unavailable: pool exhausted or timeout")
)

// ConflictError 唯一键冲突，携带冲突字段名
// errors.Is(err, ErrDuplicate) 成立
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("duplicate value for field %q", e.Field)
}

func (e *ConflictError) Unwrap() error {
	return ErrDuplicate
}
