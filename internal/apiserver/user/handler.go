// Package user 用户资源的 HTTP 处理器
package user

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"catalog-admin/internal/apiserver/httpx"
	"catalog-admin/internal/shared/model"
	"catalog-admin/internal/shared/storage"
)

// Handler 用户 API 处理器
type Handler struct {
	store        storage.UserStore
	exposeDetail bool
}

// NewHandler 创建用户处理器
func NewHandler(store storage.UserStore, exposeDetail bool) *Handler {
	return &Handler{store: store, exposeDetail: exposeDetail}
}

// RegisterRoutes 注册用户相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/users", h.Create)
	mux.HandleFunc("POST /api/v1/users/bulk", h.BulkCreate)
	mux.HandleFunc("GET /api/v1/users", h.List)
	mux.HandleFunc("GET /api/v1/users/search", h.Search)
	mux.HandleFunc("GET /api/v1/users/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/users/{id}", h.Get)
	mux.HandleFunc("PUT /api/v1/users/{id}", h.Update)
	mux.HandleFunc("PATCH /api/v1/users/{id}", h.Update)
	mux.HandleFunc("DELETE /api/v1/users/{id}", h.Delete)
}

// Create 创建用户
// POST /api/v1/users
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var u model.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if u.Status == "" {
		u.Status = model.UserStatusActive
	}
	if verrs := u.Validate(); verrs != nil {
		httpx.WriteValidationErrors(w, verrs)
		return
	}
	u.ID = httpx.GenerateID("user")

	if err := h.store.CreateUser(r.Context(), &u); err != nil {
		log.Printf("[User] 创建失败: %v", err)
		httpx.WriteStoreError(w, err, h.exposeDetail)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, u)
}

// BulkCreate 批量创建用户
// POST /api/v1/users/bulk
//
// 全量预校验：任一记录非法则整批拒绝，不触达存储层。
func (h *Handler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var users []*model.User
	if err := json.NewDecoder(r.Body).Decode(&users); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(users) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "empty record list")
		return
	}

	var itemErrs []httpx.BulkItemError
	for i, u := range users {
		if u.Status == "" {
			u.Status = model.UserStatusActive
		}
		if verrs := u.Validate(); verrs != nil {
			itemErrs = append(itemErrs, httpx.BulkItemError{Index: i, Errors: verrs})
		}
	}
	if len(itemErrs) > 0 {
		httpx.WriteBulkValidationErrors(w, itemErrs)
		return
	}
	for _, u := range users {
		u.ID = httpx.GenerateID("user")
	}

	if err := h.store.CreateUsers(r.Context(), users); err != nil {
		log.Printf("[User] 批量创建失败: %v", err)
		httpx.WriteStoreError(w, err, h.exposeDetail)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"inserted": len(users),
		"users":    users,
	})
}

// List 分页列出用户，支持 status/city 过滤
// GET /api/v1/users?page=1&limit=20&status=active&city=Beijing
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := httpx.ParsePagination(r)

	q := storage.ListQuery{Page: page, PageSize: limit}.
		Eq("status", r.URL.Query().Get("status")).
		Eq("city", r.URL.Query().Get("city"))

	users, total, err := h.store.ListUsers(r.Context(), q)
	if err != nil {
		log.Printf("[User] 列表查询失败: %v", err)
		httpx.WriteStoreError(w, err, h.exposeDetail)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users":      users,
		"pagination": httpx.NewPagination(total, page, limit),
	})
}

// Search 按关键字搜索用户（name/email/city 模糊匹配）
// GET /api/v1/users/search?q=keyword
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("q"))
	if keyword == "" {
		httpx.WriteError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	users, err := h.store.SearchUsers(r.Context(), keyword)
	if err != nil {
		log.Printf("[User] 搜索失败: %v", err)
		httpx.WriteStoreError(w, err, h.exposeDetail)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

// Stats 按状态分组统计
// GET /api/v1/users/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.UserStats(r.Context())
	if err != nil {
		log.Printf("[User] 统计失败: %v", err)
		httpx.WriteStoreError(w, err, h.exposeDetail)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"stats": stats})
}

// Get 获取单个用户
// GET /api/v1/users/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	u, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		log.Printf("[User] 查询失败 id=%s: %v", id, err)
		httpx.WriteStoreError(w, err, h.exposeDetail)
		return
	}
	if u == nil {
		httpx.WriteError(w, http.StatusNotFound, "user not found")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, u)
}

// Update 部分更新用户，未提供的字段保持原值
// PUT|PATCH /api/v1/users/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch model.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if verrs := patch.Validate(); verrs != nil {
		httpx.WriteValidationErrors(w, verrs)
		return
	}

	u, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		log.Printf("[User] 查询失败 id=%s: %v", id, err)
		httpx.WriteStoreError(w, err, h.exposeDetail)
		return
	}
	if u == nil {
		httpx.WriteError(w, http.StatusNotFound, "user not found")
		return
	}

	u.Apply(&patch)
	// 合并后的完整记录再校验一遍，防止 patch 组合出非法状态
	if verrs := u.Validate(); verrs != nil {
		httpx.WriteValidationErrors(w, verrs)
		return
	}

	if err := h.store.UpdateUser(r.Context(), u); err != nil {
		log.Printf("[User] 更新失败 id=%s: %v", id, err)
		httpx.WriteStoreError(w, err, h.exposeDetail)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, u)
}

// Delete 删除用户并返回被删除的记录
// DELETE /api/v1/users/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	u, err := h.store.DeleteUser(r.Context(), id)
	if err != nil {
		log.Printf("[User] 删除失败 id=%s: %v", id, err)
		httpx.WriteStoreError(w, err, h.exposeDetail)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "user deleted",
		"user":    u,
	})
}
