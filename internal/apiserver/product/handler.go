// Package product 商品资源的 HTTP 处理器
package product

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"catalog-admin/internal/apiserver/httpx"
	"catalog-admin/internal/shared/model"
	"catalog-admin/internal/shared/storage"
)

// Handler 商品 API 处理器
type Handler struct {
	store        storage.ProductStore
	exposeDetail bool
}

// NewHandler 创建商品处理器
func NewHandler(store storage.ProductStore, exposeDetail bool) *Handler {
	return &Handler{store: store, exposeDetail: exposeDetail}
}

// RegisterRoutes 注册商品相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/products", h.Create)
	mux.HandleFunc("POST /api/v1/products/bulk", h.BulkCreate)
	mux.HandleFunc("GET /api/v1/products", h.List)
	mux.HandleFunc("GET /api/v1/products/search", h.Search)
	mux.HandleFunc("GET /api/v1/products/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/products/{id}", h.Get)
	mux.HandleFunc("PUT /api/v1/products/{id}", h.Update)
	mux.HandleFunc("PATCH /api/v1/products/{id}", h.Update)
	mux.HandleFunc("DELETE /api/v1/products/{id}", h.Delete)
}

// Create 创建商品
// POST /api/v1/products
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var p model.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if p.Status == "" {
		p.Status = model.ProductStatusAvailable
	}
	if verrs := p.Validate(); verrs != nil {
		httpx.WriteValidationErrors(w, verrs)
		return
	}
	p.ID = httpx.GenerateID("prod")

	if err := h.store.CreateProduct(r.Context(), &p); err != nil {
		log.Printf("[Product] 创建失败: %v", err)
		httpx.WriteStoreError(w, err, h.exposeDetail)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, p)
}

// BulkCreate 批量创建商品
// POST /api/v1/products/bulk
func (h *Handler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var products []*model.Product
	if err := json.NewDecoder(r.Body).Decode(&products); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(products) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "empty record list")
		return
	}

	var itemErrs []httpx.BulkItemError
	for i, p := range products {
		if p.Status == "" {
			p.Status = model.ProductStatusAvailable
		}
		if verrs := p.Validate(); verrs != nil {
			itemErrs = append(itemErrs, httpx.BulkItemError{Index: i, Errors: verrs})
		}
	}
	if len(itemErrs) > 0 {
		httpx.WriteBulkValidationErrors(w, itemErrs)
		return
	}
	for _, p := range products {
		p.ID = httpx.GenerateID("prod")
	}

	if err := h.store.CreateProducts(r.Context(), products); err != nil {
		log.Printf("[Product] 批量创建失败: %v", err)
		httpx.WriteStoreError(w, err, h.exposeDetail)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"inserted": len(products),
		"products": products,
	})
}

// List 分页列出商品，支持 category/status 过滤
// GET /api/v1/products?page=1&limit=20&category=tools&status=available
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := httpx.ParsePagination(r)

	q := storage.ListQuery{Page: page, PageSize: limit}.
		Eq("category", r.URL.Query().Get("category")).
		Eq("status", r.URL.Query().Get("status"))

	products, total, err := h.store.ListProducts(r.Context(), q)
	if err != nil {
		log.Printf("[Product] 列表查询失败: %v", err)
		httpx.WriteStoreError(w, err, h.exposeDetail)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"products":   products,
		"pagination": httpx.NewPagination(total, page, limit),
	})
}

// Search 按关键字搜索商品（name/description/category 模糊匹配）
// GET /api/v1/products/search?q=keyword
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("q"))
	if keyword == "" {
		httpx.WriteError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	products, err := h.store.SearchProducts(r.Context(), keyword)
	if err != nil {
		log.Printf("[Product] 搜索失败: %v", err)
		httpx.WriteStoreError(w, err, h.exposeDetail)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

// Stats 按分类分组统计
// GET /api/v1/products/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.ProductStats(r.Context())
	if err != nil {
		log.Printf("[Product] 统计失败: %v", err)
		httpx.WriteStoreError(w, err, h.exposeDetail)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"stats": stats})
}

// Get 获取单个商品
// GET /api/v1/products/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	p, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		log.Printf("[Product] 查询失败 id=%s: %v", id, err)
		httpx.WriteStoreError(w, err, h.exposeDetail)
		return
	}
	if p == nil {
		httpx.WriteError(w, http.StatusNotFound, "product not found")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, p)
}

// Update 部分更新商品，未提供的字段保持原值
// PUT|PATCH /api/v1/products/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch model.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if verrs := patch.Validate(); verrs != nil {
		httpx.WriteValidationErrors(w, verrs)
		return
	}

	p, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		log.Printf("[Product] 查询失败 id=%s: %v", id, err)
		httpx.WriteStoreError(w, err, h.exposeDetail)
		return
	}
	if p == nil {
		httpx.WriteError(w, http.StatusNotFound, "product not found")
		return
	}

	p.Apply(&patch)
	if verrs := p.Validate(); verrs != nil {
		httpx.WriteValidationErrors(w, verrs)
		return
	}

	if err := h.store.UpdateProduct(r.Context(), p); err != nil {
		log.Printf("[Product] 更新失败 id=%s: %v", id, err)
		httpx.WriteStoreError(w, err, h.exposeDetail)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, p)
}

// Delete 删除商品并返回被删除的记录
// DELETE /api/v1/products/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	p, err := h.store.DeleteProduct(r.Context(), id)
	if err != nil {
		log.Printf("[Product] 删除失败 id=%s: %v", id, err)
		httpx.WriteStoreError(w, err, h.exposeDetail)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "product deleted",
		"product": p,
	})
}
