package auth

import (
	"encoding/json"
	"log"
	"net/http"
	"regexp"
)

// Handler 认证 HTTP 处理器
type Handler struct {
	store UserStore
	cfg   Config
}

// NewHandler 创建认证处理器
func NewHandler(store UserStore, cfg Config) *Handler {
	return &Handler{store: store, cfg: cfg}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /jwt", h.IssueToken)
	mux.HandleFunc("GET /logout", h.Logout)
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// IssueToken 签发访问令牌
//
// 身份校验由上游登录方完成，这里按 email 签发。若该 email 已注册且
// 文档携带密码散列，则要求请求附带匹配的密码。
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	if !isValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid email format")
		return
	}

	userID := ""
	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[auth.jwt] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user != nil {
		if user.PasswordHash != "" && !CheckPassword(req.Password, user.PasswordHash) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		userID = user.ID.Hex()
	}

	token, err := GenerateToken(h.cfg, userID, req.Email)
	if err != nil {
		log.Printf("[auth.jwt] GenerateToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Printf("[auth] Token issued: %s", req.Email)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
	})
}

// Logout 登出确认
// 令牌状态完全在客户端，服务端无吊销机制
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ============================================================================
// 工具函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
