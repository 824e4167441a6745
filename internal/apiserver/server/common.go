package server

import (
	"net/http"
	"time"

	"catalog-admin/internal/apiserver/httpx"
)

// Health 健康检查
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.start).Round(time.Second).String(),
	})
}
