// Package donation 捐血请求台账 - HTTP 处理
package donation

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"bloodflow/internal/apiserver/auth"
	"bloodflow/internal/shared/model"
	"bloodflow/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// defaultRecentLimit 首页"最近请求"列表的默认条数
const defaultRecentLimit = 3

// Recorder 领域指标上报，按状态计数状态写入
type Recorder interface {
	RecordDonationStatus(status string)
}

// Handler 捐血请求 HTTP 处理器
type Handler struct {
	store   storage.DonationStore
	metrics Recorder
}

// NewHandler 创建捐血请求处理器，metrics 可为 nil
func NewHandler(store storage.DonationStore, metrics Recorder) *Handler {
	return &Handler{store: store, metrics: metrics}
}

// RegisterRoutes 注册捐血请求相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux, gate *auth.Gate) {
	mux.HandleFunc("POST /create-donate-request", gate.RequireAuth(gate.RequireActive(h.Create)))
	mux.HandleFunc("GET /donation-request", gate.RequireAuth(h.ListRecent))
	mux.HandleFunc("GET /donation-requests", h.List)
	mux.HandleFunc("GET /all-donation-request", h.ListPaged)
	mux.HandleFunc("GET /all-donation-count", h.Count)
	mux.HandleFunc("GET /my-all-donation-request/{email}", gate.RequireAuth(h.ListMine))
	mux.HandleFunc("GET /all-my-donation-count", gate.RequireAuth(h.CountMine))
	mux.HandleFunc("GET /donation-request/{id}", h.Get)
	mux.HandleFunc("PUT /donation-request/{id}", h.UpdateStatus)
	mux.HandleFunc("PATCH /donation-requests/{id}", h.Patch)
	mux.HandleFunc("DELETE /donation-request/{id}", h.Delete)
}

type createRequest struct {
	RecipientName     string `json:"recipientName"`
	RecipientDistrict string `json:"recipientDistrict"`
	RecipientUpazila  string `json:"recipientUpazila"`
	HospitalName      string `json:"hospitalName"`
	FullAddress       string `json:"fullAddress"`
	BloodGroup        string `json:"bloodGroup"`
	DonationDate      string `json:"donationDate"`
	DonationTime      string `json:"donationTime"`
	RequestMessage    string `json:"requestMessage"`
	RequesterName     string `json:"requesterName"`
}

// Create 新建捐血请求
// 请求方身份来自令牌，状态强制为 pending
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentity(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BloodGroup == "" || req.RecipientName == "" {
		writeError(w, http.StatusBadRequest, "recipientName and bloodGroup are required")
		return
	}

	donation := &model.DonationRequest{
		RequesterName:     req.RequesterName,
		RequesterEmail:    id.Email,
		RecipientName:     req.RecipientName,
		RecipientDistrict: req.RecipientDistrict,
		RecipientUpazila:  req.RecipientUpazila,
		HospitalName:      req.HospitalName,
		FullAddress:       req.FullAddress,
		BloodGroup:        req.BloodGroup,
		DonationDate:      req.DonationDate,
		DonationTime:      req.DonationTime,
		RequestMessage:    req.RequestMessage,
		DonationStatus:    model.DonationStatusPending,
	}

	if err := h.store.CreateDonationRequest(r.Context(), donation); err != nil {
		log.Printf("[donation] CreateDonationRequest error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create donation request")
		return
	}
	if h.metrics != nil {
		h.metrics.RecordDonationStatus(string(model.DonationStatusPending))
	}

	log.Printf("[donation] Created: %s by %s", donation.ID.Hex(), id.Email)
	writeJSON(w, http.StatusOK, map[string]any{"insertedId": donation.ID.Hex()})
}

// ListRecent 请求方最近的请求列表，limit 默认 3
func (h *Handler) ListRecent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email := q.Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	limit := parseInt64(q.Get("limit"), defaultRecentLimit)

	requests, err := h.store.ListDonationRequestsByRequester(r.Context(), email, "", 0, limit)
	if err != nil {
		log.Printf("[donation] ListDonationRequestsByRequester error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list donation requests")
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// List 全量列表，支持 donationStatus 过滤
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("donationStatus")

	requests, err := h.store.ListDonationRequests(r.Context(), status, 0, 0)
	if err != nil {
		log.Printf("[donation] ListDonationRequests error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list donation requests")
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// ListPaged 分页列表，filter 为状态过滤
func (h *Handler) ListPaged(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	skip := parseInt64(q.Get("skip"), 0)
	limit := parseInt64(q.Get("limit"), 0)

	requests, err := h.store.ListDonationRequests(r.Context(), q.Get("filter"), skip, limit)
	if err != nil {
		log.Printf("[donation] ListDonationRequests error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list donation requests")
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// Count 全量计数，支持 status 过滤
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.CountDonationRequests(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		log.Printf("[donation] CountDonationRequests error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to count donation requests")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": count})
}

// ListMine 请求方全量分页列表
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	q := r.URL.Query()
	skip := parseInt64(q.Get("skip"), 0)
	limit := parseInt64(q.Get("limit"), 0)

	requests, err := h.store.ListDonationRequestsByRequester(r.Context(), email, q.Get("filter"), skip, limit)
	if err != nil {
		log.Printf("[donation] ListDonationRequestsByRequester error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list donation requests")
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// CountMine 请求方计数
func (h *Handler) CountMine(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email := q.Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	count, err := h.store.CountDonationRequestsByRequester(r.Context(), email, q.Get("status"))
	if err != nil {
		log.Printf("[donation] CountDonationRequestsByRequester error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to count donation requests")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": count})
}

// Get 按 id 获取单条请求
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	req, err := h.store.GetDonationRequest(r.Context(), id)
	if err != nil {
		log.Printf("[donation] GetDonationRequest error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get donation request")
		return
	}
	if req == nil {
		writeError(w, http.StatusNotFound, "donation request not found")
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type statusUpdateRequest struct {
	DonationStatus model.DonationStatus `json:"donationStatus"`
	DonorEmail     *string              `json:"donorEmail,omitempty"`
	DonorName      *string              `json:"donorName,omitempty"`
}

// UpdateStatus 状态转移
//
// 只允许转移表内的迁移，非法迁移返回 409 且不落库。
// donorEmail/donorName 必须同时给出（认领场景）。
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.DonationStatus.Valid() {
		writeError(w, http.StatusBadRequest, "invalid donationStatus")
		return
	}
	if (req.DonorEmail == nil) != (req.DonorName == nil) {
		writeError(w, http.StatusBadRequest, "donorEmail and donorName must be set together")
		return
	}

	current, err := h.store.GetDonationRequest(r.Context(), id)
	if err != nil {
		log.Printf("[donation] GetDonationRequest error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get donation request")
		return
	}
	if current == nil {
		writeError(w, http.StatusNotFound, "donation request not found")
		return
	}

	if !current.DonationStatus.CanTransitionTo(req.DonationStatus) {
		writeError(w, http.StatusConflict, "illegal status transition")
		return
	}

	if err := h.store.UpdateDonationStatus(r.Context(), id, req.DonationStatus, req.DonorEmail, req.DonorName); err != nil {
		if err == storage.ErrNotFound {
			writeError(w, http.StatusNotFound, "donation request not found")
			return
		}
		log.Printf("[donation] UpdateDonationStatus error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update status")
		return
	}

	if h.metrics != nil {
		h.metrics.RecordDonationStatus(string(req.DonationStatus))
	}

	log.Printf("[donation] Status: %s %s -> %s", id.Hex(), current.DonationStatus, req.DonationStatus)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Patch 合并更新普通字段，受保护字段剥离后落库
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for k := range fields {
		if model.ProtectedDonationField(k) {
			delete(fields, k)
		}
	}
	if len(fields) == 0 {
		writeError(w, http.StatusBadRequest, "no updatable fields provided")
		return
	}

	if err := h.store.UpdateDonationFields(r.Context(), id, fields); err != nil {
		if err == storage.ErrNotFound {
			writeError(w, http.StatusNotFound, "donation request not found")
			return
		}
		log.Printf("[donation] UpdateDonationFields error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update donation request")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Delete 按 id 删除请求
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteDonationRequest(r.Context(), id); err != nil {
		if err == storage.ErrNotFound {
			writeError(w, http.StatusNotFound, "donation request not found")
			return
		}
		log.Printf("[donation] DeleteDonationRequest error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete donation request")
		return
	}
	log.Printf("[donation] Deleted: %s", id.Hex())
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ============================================================================
// 工具函数
// ============================================================================

func parseID(w http.ResponseWriter, r *http.Request) (bson.ObjectID, bool) {
	id, err := bson.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return bson.ObjectID{}, false
	}
	return id, true
}

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
