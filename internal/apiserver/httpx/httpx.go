// Package httpx HTTP 处理的通用工具函数
//
// user/product 两个领域包结构完全对称，响应写入、错误分类、
// 分页参数解析与 ID 生成在此集中实现，避免逐包复制。
package httpx

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"catalog-admin/internal/shared/model"
	"catalog-admin/internal/shared/storage"
)

// WriteJSON 写入 JSON 响应
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteError 写入错误响应
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteValidationErrors 写入 400 响应，携带逐字段错误列表
func WriteValidationErrors(w http.ResponseWriter, verrs model.ValidationErrors) {
	WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":  "validation failed",
		"errors": verrs,
	})
}

// BulkItemError 批量创建中单条记录的校验错误
type BulkItemError struct {
	Index  int                    `json:"index"`
	Errors model.ValidationErrors `json:"errors"`
}

// WriteBulkValidationErrors 写入批量校验失败响应
func WriteBulkValidationErrors(w http.ResponseWriter, items []BulkItemError) {
	WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":   "validation failed",
		"records": items,
	})
}

// WriteStoreError 将存储层领域错误分类映射为 HTTP 响应
//
// 分类规则：
//   - ErrNotFound    -> 404
//   - ErrDuplicate   -> 400，信息点名冲突字段
//   - ErrUnavailable -> 503（连接池耗尽/超时，唯一的背压信号）
//   - 其他           -> 500，生产环境只暴露笼统信息
//
// 存储层错误不自动重试，一律传播到请求边界在此统一分类。
func WriteStoreError(w http.ResponseWriter, err error, exposeDetail bool) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrDuplicate):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrUnavailable):
		WriteError(w, http.StatusServiceUnavailable, "storage unavailable, retry later")
	default:
		if exposeDetail {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}

// GenerateID 生成带前缀的随机 ID
// 格式：prefix-xxxxxxxxxxxx（prefix + 12 字符 hex）
func GenerateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}

// ParsePagination 解析 page/limit 查询参数
//
// 缺失或非法时使用默认值 page=1, limit=20。
// limit 无上限：这是与查询契约一致的已知加固缺口，由调用方自行约束。
func ParsePagination(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20
	}
	return page, limit
}

// Pagination 列表响应中的分页元数据
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// NewPagination 构建分页元数据，pages = ceil(total/limit)
func NewPagination(total, page, limit int) Pagination {
	return Pagination{
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: storage.Pages(total, limit),
	}
}
