package auth

import (
	"context"
	"log"
	"net/http"
	"strings"

	"bloodflow/internal/shared/model"
)

// UserStore 门禁所需的用户查询接口
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// Gate 角色/状态门禁
//
// 每个受保护请求都按令牌中的 email 重新读取用户记录：
// 令牌有效期很长，封禁/角色变更必须即时生效，不做任何会话缓存。
type Gate struct {
	store UserStore
	cfg   Config
}

// NewGate 创建门禁
func NewGate(store UserStore, cfg Config) *Gate {
	return &Gate{store: store, cfg: cfg}
}

// RequireAuth 验证 Bearer 令牌并注入身份
func (g *Gate) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			http.Error(w, `{"error":"invalid authorization header"}`, http.StatusUnauthorized)
			return
		}

		claims, err := ParseToken(g.cfg, parts[1])
		if err != nil {
			log.Printf("[auth] token parse error: %v", err)
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		id := &Identity{
			UserID: claims.Subject,
			Email:  claims.Email,
		}
		next(w, r.WithContext(WithIdentity(r.Context(), id)))
	}
}

// RequireActive 要求账号存在且处于 active 状态
// 必须套在 RequireAuth 之内
func (g *Gate) RequireActive(next http.HandlerFunc) http.HandlerFunc {
	return g.requireUser(next, func(u *model.User) bool {
		return u.IsActive()
	}, "account is not active")
}

// RequireVolunteerOrAdmin 要求 volunteer 或 admin 角色
func (g *Gate) RequireVolunteerOrAdmin(next http.HandlerFunc) http.HandlerFunc {
	return g.requireUser(next, func(u *model.User) bool {
		return u.CanModerate()
	}, "volunteer or admin access required")
}

// RequireAdmin 要求 admin 角色
func (g *Gate) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return g.requireUser(next, func(u *model.User) bool {
		return u.Role == model.UserRoleAdmin
	}, "admin access required")
}

// requireUser 按身份 email 重查用户并应用谓词，记录缺失即 403
func (g *Gate) requireUser(next http.HandlerFunc, pred func(*model.User) bool, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := GetIdentity(r.Context())
		if id == nil || id.Email == "" {
			http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
			return
		}

		user, err := g.store.GetUserByEmail(r.Context(), id.Email)
		if err != nil {
			log.Printf("[auth] GetUserByEmail error: %v", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		if user == nil || !pred(user) {
			http.Error(w, `{"error":"`+message+`"}`, http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
