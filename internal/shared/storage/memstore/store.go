// Package memstore 实现基于内存的 PersistentStore
//
// 用于单元测试和本地演示：与 SQL/MongoDB 实现遵循同一查询契约
// （分页、过滤白名单、搜索上限、分组统计），无需任何外部数据库。
// 读写全部在锁内完成，出入参均做拷贝，杜绝调用方与存储共享可变状态。
package memstore

import (
	"sort"
	"strings"
	"sync"
	"time"

	"catalog-admin/internal/shared/model"
	"catalog-admin/internal/shared/storage"
)

// Store 内存存储
type Store struct {
	mu       sync.RWMutex
	users    map[string]*userEntry
	products map[string]*productEntry
	seq      int64 // 插入序号，等时间戳记录的排序决胜
}

type userEntry struct {
	user *model.User
	seq  int64
}

type productEntry struct {
	product *model.Product
	seq     int64
}

var _ storage.PersistentStore = (*Store)(nil)

// NewStore 创建内存存储实例
func NewStore() *Store {
	return &Store{
		users:    make(map[string]*userEntry),
		products: make(map[string]*productEntry),
	}
}

// Close 实现 PersistentStore 接口，无资源需要释放
func (s *Store) Close() error {
	return nil
}

// touch 返回存储层统一使用的时间戳
func touch() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// nextSeq 必须在写锁内调用
func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

// containsFold 大小写不敏感的子串匹配
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// sortByCreatedDesc 按创建时间降序排序，等时间戳按插入序号降序
func sortByCreatedDesc[T any](items []T, createdAt func(T) time.Time, seq func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := createdAt(items[i]), createdAt(items[j])
		if ci.Equal(cj) {
			return seq(items[i]) > seq(items[j])
		}
		return ci.After(cj)
	})
}

// paginate 对已排序的切片应用偏移和页大小
func paginate[T any](items []T, q storage.ListQuery) []T {
	offset := q.Offset()
	if offset >= len(items) {
		return []T{}
	}
	end := offset + q.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
