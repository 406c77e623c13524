// Package server 路由配置与核心基础设施
//
// 本包组装各领域处理器并提供贯穿整个 API 的横切能力：
//   - handler.go: 路由组装、CORS、访问日志
//   - metrics.go: Prometheus 指标
package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"bloodflow/internal/apiserver/auth"
	"bloodflow/internal/apiserver/fund"
	"bloodflow/internal/shared/storage"
	"bloodflow/pkg/logging"
)

// Handler API 处理器
//
// 所有 HTTP API 的入口，负责把请求分发到各领域独立包，
// 并持有存储层、认证配置与支付客户端等共享依赖。
type Handler struct {
	store    storage.PersistentStore
	authCfg  auth.Config
	payments fund.PaymentClient
	origins  []string
	logger   *logging.Logger
	metrics  *Metrics
}

// 指标注册到全局 Registry，进程内只能注册一次
var (
	metricsOnce   sync.Once
	globalMetrics *Metrics
)

// NewHandler 创建 Handler 实例
func NewHandler(store storage.PersistentStore, authCfg auth.Config, payments fund.PaymentClient, origins []string, logger *logging.Logger) *Handler {
	metricsOnce.Do(func() {
		globalMetrics = NewMetrics("bloodflow")
	})
	return &Handler{
		store:    store,
		authCfg:  authCfg,
		payments: payments,
		origins:  origins,
		logger:   logger,
		metrics:  globalMetrics,
	}
}

// writeJSON 将数据以 JSON 格式写入 HTTP 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Health 健康检查接口
//
// 路由: GET /health
// 用于负载均衡器和监控系统检查服务状态。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Root 根路径问候
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Hello from BloodFlow Server.."))
}
