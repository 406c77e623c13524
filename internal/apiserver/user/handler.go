// Package user 用户目录 - HTTP 处理
package user

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

// Handler 用户目录 HTTP 处理器
type Handler struct {
	store storage.UserStore
}

// NewHandler 创建用户处理器
func NewHandler(store storage.UserStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册用户相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux, gate *auth.Gate) {
	mux.HandleFunc("GET /user/{email}", h.Get)
	mux.HandleFunc("PUT /user/{email}", h.Update)
	mux.HandleFunc("POST /users", h.Register)
	mux.HandleFunc("GET /donors/search", h.SearchDonors)
	mux.HandleFunc("GET /all-users", gate.RequireAuth(gate.RequireAdmin(h.ListAll)))
	mux.HandleFunc("GET /all-users-count", gate.RequireAuth(gate.RequireAdmin(h.CountAll)))
	mux.HandleFunc("PATCH /user/{id}/status", gate.RequireAuth(gate.RequireAdmin(h.UpdateStatus)))
	mux.HandleFunc("PATCH /user/{id}/role", gate.RequireAuth(gate.RequireAdmin(h.UpdateRole)))
}

// Get 按 email 获取用户档案
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")

	user, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		log.Printf("[user] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// protectedUserFields 档案更新时剥离的字段（身份和权限不可自改）
var protectedUserFields = map[string]bool{
	"_id":          true,
	"email":        true,
	"role":         true,
	"status":       true,
	"passwordHash": true,
	"createdAt":    true,
}

// Update 按 email 合并更新档案字段
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for k := range fields {
		if protectedUserFields[k] {
			delete(fields, k)
		}
	}
	if len(fields) == 0 {
		writeError(w, http.StatusBadRequest, "no updatable fields provided")
		return
	}

	if err := h.store.UpdateUserByEmail(r.Context(), email, fields); err != nil {
		if err == storage.ErrNotFound {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("[user] UpdateUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type registerRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	BloodGroup string `json:"bloodGroup"`
	District   string `json:"district"`
	Upazila    string `json:"upazila"`
	Password   string `json:"password,omitempty"`
}

// Register 注册用户，email 幂等
// 已存在时返回 200 和 insertedId:null，保持前端轮询注册的兼容语义
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	existing, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[user.register] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":    "user already exists",
			"insertedId": nil,
		})
		return
	}

	user := &model.User{
		Email:      req.Email,
		Name:       req.Name,
		Avatar:     req.Avatar,
		BloodGroup: req.BloodGroup,
		District:   req.District,
		Upazila:    req.Upazila,
		Role:       model.UserRoleDonor,
		Status:     model.UserStatusActive,
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			log.Printf("[user.register] HashPassword error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		user.PasswordHash = hash
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if err == storage.ErrDuplicate {
			// 并发注册撞上唯一索引，语义同已存在
			writeJSON(w, http.StatusOK, map[string]any{
				"message":    "user already exists",
				"insertedId": nil,
			})
			return
		}
		log.Printf("[user.register] CreateUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	log.Printf("[user] Registered: %s (%s)", user.Email, user.ID.Hex())
	writeJSON(w, http.StatusOK, map[string]any{"insertedId": user.ID.Hex()})
}

// SearchDonors 按血型/地区检索捐献者
// 无任何过滤条件时直接返回空列表，避免全表扫描
func (h *Handler) SearchDonors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bloodGroup := q.Get("bloodGroup")
	district := q.Get("district")
	upazila := q.Get("upazila")

	if bloodGroup == "" && district == "" && upazila == "" {
		writeJSON(w, http.StatusOK, []*model.User{})
		return
	}

	users, err := h.store.SearchUsers(r.Context(), bloodGroup, district, upazila)
	if err != nil {
		log.Printf("[user.search] SearchUsers error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to search donors")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// ListAll 分页列出全部用户，支持 status 过滤
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	skip := parseInt64(q.Get("skip"), 0)
	limit := parseInt64(q.Get("limit"), 0)

	users, err := h.store.ListUsers(r.Context(), q.Get("status"), skip, limit)
	if err != nil {
		log.Printf("[user] ListUsers error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// CountAll 用户总数，支持 status 过滤
func (h *Handler) CountAll(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.CountUsers(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		log.Printf("[user] CountUsers error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to count users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": count})
}

// UpdateStatus 管理员更新用户状态
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req struct {
		Status model.UserStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	if err := h.store.UpdateUserStatus(r.Context(), id, req.Status); err != nil {
		if err == storage.ErrNotFound {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("[user] UpdateUserStatus error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update status")
		return
	}
	log.Printf("[user] Status updated: %s -> %s", id.Hex(), req.Status)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// UpdateRole 管理员更新用户角色
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req struct {
		Role model.UserRole `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Role.Valid() {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	if err := h.store.UpdateUserRole(r.Context(), id, req.Role); err != nil {
		if err == storage.ErrNotFound {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("[user] UpdateUserRole error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update role")
		return
	}
	log.Printf("[user] Role updated: %s -> %s", id.Hex(), req.Role)
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
