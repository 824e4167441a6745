// Package server HTTP 服务端装配
//
// 负责路由注册、指标中间件与请求超时控制，
// 领域级的 CRUD 处理逻辑在 user/product 两个子包中。
package server

import (
	"context"
	"net/http"
	"time"

	"catalog-admin/internal/apiserver/product"
	"catalog-admin/internal/apiserver/user"
	"catalog-admin/internal/config"
	"catalog-admin/internal/shared/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Handler API 服务端顶层处理器
type Handler struct {
	store    storage.PersistentStore
	cfg      *config.Config
	registry *prometheus.Registry
	metrics  *Metrics
	start    time.Time
}

// NewHandler 创建顶层处理器
func NewHandler(store storage.PersistentStore, cfg *config.Config) *Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Handler{
		store:    store,
		cfg:      cfg,
		registry: registry,
		metrics:  NewMetrics("catalog_admin", registry),
		start:    time.Now(),
	}
}

// Router 构建完整的 HTTP 路由
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	exposeDetail := !h.cfg.IsProduction()
	user.NewHandler(h.store, exposeDetail).RegisterRoutes(mux)
	product.NewHandler(h.store, exposeDetail).RegisterRoutes(mux)

	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", MetricsHandler(h.registry))

	handler := h.metrics.MetricsMiddleware(mux)
	handler = h.timeoutMiddleware(handler)
	return handler
}

// timeoutMiddleware 为每个请求附加截止时间
//
// 连接池排队超过获取超时后，底层驱动返回 context.DeadlineExceeded，
// 存储层将其归类为 ErrUnavailable，最终映射为 503。
func (h *Handler) timeoutMiddleware(next http.Handler) http.Handler {
	timeout := h.cfg.Storage.AcquireTimeout
	if timeout <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
