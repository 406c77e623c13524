// Package blog 博客内容 - HTTP 处理
package blog

import (
	"encoding/json"
	"log"
	"net/http"

	"bloodflow/internal/apiserver/auth"
	"bloodflow/internal/shared/model"
	"bloodflow/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Handler 博客 HTTP 处理器
type Handler struct {
	store storage.BlogStore
}

// NewHandler 创建博客处理器
func NewHandler(store storage.BlogStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册博客相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux, gate *auth.Gate) {
	mux.HandleFunc("POST /blogs", gate.RequireAuth(gate.RequireVolunteerOrAdmin(h.Create)))
	mux.HandleFunc("GET /blogs", gate.RequireAuth(gate.RequireVolunteerOrAdmin(h.List)))
	mux.HandleFunc("GET /blogs-published", h.ListPublished)
	mux.HandleFunc("GET /blogs/{id}", h.Get)
	mux.HandleFunc("PATCH /blogs/{id}", gate.RequireAuth(gate.RequireVolunteerOrAdmin(h.UpdateStatus)))
	mux.HandleFunc("DELETE /blog/{id}", gate.RequireAuth(gate.RequireAdmin(h.Delete)))
}

type createBlogRequest struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Content   string `json:"content"`
}

// Create 新建博客，初始状态为 draft
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentity(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	blog := &model.Blog{
		Title:       req.Title,
		Thumbnail:   req.Thumbnail,
		Content:     req.Content,
		Status:      model.BlogStatusDraft,
		AuthorEmail: id.Email,
	}
	if err := h.store.CreateBlog(r.Context(), blog); err != nil {
		log.Printf("[blog] CreateBlog error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create blog")
		return
	}

	log.Printf("[blog] Created: %s by %s", blog.ID.Hex(), id.Email)
	writeJSON(w, http.StatusOK, map[string]any{"insertedId": blog.ID.Hex()})
}

// List 列出博客，支持 status 过滤
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.store.ListBlogs(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		log.Printf("[blog] ListBlogs error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list blogs")
		return
	}
	writeJSON(w, http.StatusOK, blogs)
}

// ListPublished 公开的已发布博客列表
func (h *Handler) ListPublished(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.store.ListBlogs(r.Context(), string(model.BlogStatusPublished))
	if err != nil {
		log.Printf("[blog] ListBlogs error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list blogs")
		return
	}
	writeJSON(w, http.StatusOK, blogs)
}

// Get 按 id 获取博客
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	blog, err := h.store.GetBlog(r.Context(), id)
	if err != nil {
		log.Printf("[blog] GetBlog error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get blog")
		return
	}
	if blog == nil {
		writeError(w, http.StatusNotFound, "blog not found")
		return
	}
	writeJSON(w, http.StatusOK, blog)
}

// UpdateStatus 发布状态切换（draft <-> published）
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req struct {
		Status model.BlogStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	if err := h.store.UpdateBlogStatus(r.Context(), id, req.Status); err != nil {
		if err == storage.ErrNotFound {
			writeError(w, http.StatusNotFound, "blog not found")
			return
		}
		log.Printf("[blog] UpdateBlogStatus error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update blog")
		return
	}
	log.Printf("[blog] Status updated: %s -> %s", id.Hex(), req.Status)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Delete 删除博客
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteBlog(r.Context(), id); err != nil {
		if err == storage.ErrNotFound {
			writeError(w, http.StatusNotFound, "blog not found")
			return
		}
		log.Printf("[blog] DeleteBlog error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete blog")
		return
	}
	log.Printf("[blog] Deleted: %s", id.Hex())
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

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
