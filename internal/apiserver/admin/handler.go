// Package admin 管理端统计 - HTTP 处理
package admin

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"bloodflow/internal/apiserver/auth"
)

// StatsStore 统计所需的存储子集
type StatsStore interface {
	CountUsers(ctx context.Context, status string) (int64, error)
	CountDonationRequests(ctx context.Context, status string) (int64, error)
	TotalFunding(ctx context.Context) (float64, error)
}

// Handler 管理端统计 HTTP 处理器
type Handler struct {
	store StatsStore
}

// NewHandler 创建统计处理器
func NewHandler(store StatsStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册统计路由，全部 admin 门禁
func (h *Handler) RegisterRoutes(mux *http.ServeMux, gate *auth.Gate) {
	mux.HandleFunc("GET /admin/users/count", gate.RequireAuth(gate.RequireAdmin(h.UserCount)))
	mux.HandleFunc("GET /admin/funding/total", gate.RequireAuth(gate.RequireAdmin(h.FundingTotal)))
	mux.HandleFunc("GET /admin/blood-requests/count", gate.RequireAuth(gate.RequireAdmin(h.RequestCount)))
}

// UserCount 用户总数
func (h *Handler) UserCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.CountUsers(r.Context(), "")
	if err != nil {
		log.Printf("[admin] CountUsers error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to count users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": count})
}

// FundingTotal 资助总额，空台账为 0
func (h *Handler) FundingTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.store.TotalFunding(r.Context())
	if err != nil {
		log.Printf("[admin] TotalFunding error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to total funding")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total})
}

// RequestCount 捐血请求总数
func (h *Handler) RequestCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.CountDonationRequests(r.Context(), "")
	if err != nil {
		log.Printf("[admin] CountDonationRequests error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to count donation requests")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": count})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
