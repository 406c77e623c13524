package server

import (
	"net/http"
	"time"

	"bloodflow/internal/apiserver/admin"
	"bloodflow/internal/apiserver/auth"
	"bloodflow/internal/apiserver/blog"
	"bloodflow/internal/apiserver/donation"
	"bloodflow/internal/apiserver/fund"
	"bloodflow/internal/apiserver/user"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 基础:
//   - GET  /          - 问候
//   - GET  /health    - 服务健康检查
//   - GET  /metrics   - Prometheus 指标
//
// 认证 (auth):
//   - POST /jwt       - 签发令牌
//   - GET  /logout    - 登出确认
//
// 用户目录 (user):
//   - GET    /user/{email}          - 获取档案
//   - PUT    /user/{email}          - 更新档案
//   - POST   /users                 - 注册（email 幂等）
//   - GET    /donors/search         - 捐献者检索
//   - GET    /all-users             - 用户列表 (admin)
//   - GET    /all-users-count       - 用户计数 (admin)
//   - PATCH  /user/{id}/status      - 封禁/解封 (admin)
//   - PATCH  /user/{id}/role        - 角色调整 (admin)
//
// 捐血请求 (donation):
//   - POST   /create-donate-request        - 新建 (auth+active)
//   - GET    /donation-request             - 最近请求 (auth)
//   - GET    /donation-requests            - 全量列表
//   - GET    /all-donation-request         - 分页列表
//   - GET    /all-donation-count           - 计数
//   - GET    /my-all-donation-request/{email} - 请求方分页列表 (auth)
//   - GET    /all-my-donation-count        - 请求方计数 (auth)
//   - GET    /donation-request/{id}        - 单条
//   - PUT    /donation-request/{id}        - 状态转移
//   - PATCH  /donation-requests/{id}       - 字段更新
//   - DELETE /donation-request/{id}        - 删除
//
// 资助 (fund):
//   - POST /funds                 - 记账
//   - GET  /funds                 - 列表 (auth)
//   - GET  /founds-counts         - 估算计数
//   - POST /create-payment-intent - 支付意向
//
// 博客 (blog):
//   - POST   /blogs           - 新建 (volunteer/admin)
//   - GET    /blogs           - 列表 (volunteer/admin)
//   - GET    /blogs-published - 公开列表
//   - GET    /blogs/{id}      - 单条
//   - PATCH  /blogs/{id}      - 发布切换 (volunteer/admin)
//   - DELETE /blog/{id}       - 删除 (admin)
//
// 管理端统计 (admin):
//   - GET /admin/users/count          (admin)
//   - GET /admin/funding/total        (admin)
//   - GET /admin/blood-requests/count (admin)
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	gate := auth.NewGate(h.store, h.authCfg)

	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", MetricsHandler())

	authHandler := auth.NewHandler(h.store, h.authCfg)
	authHandler.RegisterRoutes(mux)

	userHandler := user.NewHandler(h.store)
	userHandler.RegisterRoutes(mux, gate)

	donationHandler := donation.NewHandler(h.store, h.metrics)
	donationHandler.RegisterRoutes(mux, gate)

	fundHandler := fund.NewHandler(h.store, h.payments, h.metrics)
	fundHandler.RegisterRoutes(mux, gate)

	blogHandler := blog.NewHandler(h.store)
	blogHandler.RegisterRoutes(mux, gate)

	adminHandler := admin.NewHandler(h.store)
	adminHandler.RegisterRoutes(mux, gate)

	// 中间件链：指标 → 访问日志 → CORS → 路由
	var handler http.Handler = mux
	handler = h.corsMiddleware(handler)
	handler = h.accessLogMiddleware(handler)
	handler = h.metrics.MetricsMiddleware(handler)
	return handler
}

// corsMiddleware 添加 CORS 头支持跨域请求
// 仅回显配置白名单内的 Origin
func (h *Handler) corsMiddleware(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(h.origins))
	for _, o := range h.origins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// accessLogMiddleware 结构化访问日志
func (h *Handler) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		h.logger.HTTPRequest(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start))
	})
}
