// Package fund 资助台账 - HTTP 处理与支付
package fund

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"bloodflow/internal/apiserver/auth"
	"bloodflow/internal/shared/model"
	"bloodflow/internal/shared/storage"
)

// Recorder 领域指标上报，计数落库的资助记录
type Recorder interface {
	RecordFund()
}

// Handler 资助台账 HTTP 处理器
type Handler struct {
	store    storage.FundStore
	payments PaymentClient
	metrics  Recorder
}

// NewHandler 创建资助处理器，metrics 可为 nil
func NewHandler(store storage.FundStore, payments PaymentClient, metrics Recorder) *Handler {
	return &Handler{store: store, payments: payments, metrics: metrics}
}

// RegisterRoutes 注册资助相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux, gate *auth.Gate) {
	mux.HandleFunc("POST /funds", h.Create)
	mux.HandleFunc("GET /funds", gate.RequireAuth(h.List))
	// 路由名沿用线上 API（含历史拼写）
	mux.HandleFunc("GET /founds-counts", h.Count)
	mux.HandleFunc("POST /create-payment-intent", h.CreatePaymentIntent)
}

type createFundRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	FundAmount float64 `json:"fundAmount"`
}

// Create 记录一笔资助
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FundAmount <= 0 {
		writeError(w, http.StatusBadRequest, "fundAmount must be positive")
		return
	}

	fund := &model.Fund{
		Name:       req.Name,
		Email:      req.Email,
		FundAmount: req.FundAmount,
	}
	if err := h.store.CreateFund(r.Context(), fund); err != nil {
		log.Printf("[fund] CreateFund error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create fund")
		return
	}
	if h.metrics != nil {
		h.metrics.RecordFund()
	}

	log.Printf("[fund] Recorded: %.2f from %s", fund.FundAmount, fund.Email)
	writeJSON(w, http.StatusOK, map[string]any{"insertedId": fund.ID.Hex()})
}

// List 分页列出资助记录，新记录在前
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	skip := parseInt64(q.Get("skip"), 0)
	limit := parseInt64(q.Get("limit"), 0)

	funds, err := h.store.ListFunds(r.Context(), skip, limit)
	if err != nil {
		log.Printf("[fund] ListFunds error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list funds")
		return
	}
	writeJSON(w, http.StatusOK, funds)
}

// Count 资助记录估算总数
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.CountFunds(r.Context())
	if err != nil {
		log.Printf("[fund] CountFunds error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to count funds")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": count})
}

type paymentIntentRequest struct {
	Amount float64 `json:"amount"`
}

// CreatePaymentIntent 创建支付意向
// 金额以主币种单位传入，换算为最小单位（美分）后送支付方
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req paymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	clientSecret, err := h.payments.CreateIntent(r.Context(), int64(req.Amount*100), "usd")
	if err != nil {
		log.Printf("[fund] CreateIntent error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create payment intent")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"clientSecret": clientSecret})
}

// ============================================================================
// 工具函数
// ============================================================================

func parseInt64(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
