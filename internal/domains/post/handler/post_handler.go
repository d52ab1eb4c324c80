package handler

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"autoblog-backend/internal/domains/post"
	"autoblog-backend/internal/shared/response"
)

// =====================================================
// POST HANDLER
// =====================================================

// PostHandler serves both the public article views and the admin CRUD
// surface. List views are projections over the live snapshot, which the
// handler keeps current through its own feed subscription; each request
// reads an independently fanned-out copy, never the store.
type PostHandler struct {
	repo post.Repository

	mu          sync.RWMutex
	snapshot    []post.Post
	live        bool
	unsubscribe func()
}

// NewPostHandler creates the handler and opens its snapshot subscription.
func NewPostHandler(repo post.Repository) (*PostHandler, error) {
	h := &PostHandler{repo: repo}

	unsubscribe, err := repo.Subscribe(func(snap post.Snapshot) {
		h.mu.Lock()
		h.snapshot = snap.Posts
		h.live = snap.Live
		h.mu.Unlock()
	})
	if err != nil {
		return nil, err
	}
	h.unsubscribe = unsubscribe
	return h, nil
}

// Close tears down the snapshot subscription; safe to call more than once.
func (h *PostHandler) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
}

func (h *PostHandler) currentSnapshot() []post.Post {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshot
}

// =====================================================
// PUBLIC ENDPOINTS
// =====================================================

// ListPosts serves the home page projection.
// GET /api/v1/posts?category=all&page=1
func (h *PostHandler) ListPosts(c *gin.Context) {
	h.list(c, post.PublicPageSize)
}

// GetPost serves a single article.
// GET /api/v1/posts/:id
func (h *PostHandler) GetPost(c *gin.Context) {
	p, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, post.ErrPostNotFound) {
			response.NotFound(c, "Post not found")
			return
		}
		response.InternalServerError(c, "Failed to load post")
		return
	}
	response.Success(c, http.StatusOK, p)
}

// =====================================================
// ADMIN ENDPOINTS
// =====================================================

// AdminListPosts serves the management list projection.
// GET /api/v1/admin/posts?category=all&page=1
func (h *PostHandler) AdminListPosts(c *gin.Context) {
	h.list(c, post.AdminPageSize)
}

// AdminGetPost is the one-shot load for the edit form.
// GET /api/v1/admin/posts/:id
func (h *PostHandler) AdminGetPost(c *gin.Context) {
	p, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, post.ErrPostNotFound) {
			response.NotFound(c, "Post not found")
			return
		}
		response.InternalServerError(c, "Failed to load post")
		return
	}
	response.Success(c, http.StatusOK, p)
}

// CreatePost creates a new article.
// POST /api/v1/admin/posts
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req post.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	p, err := h.repo.Create(c.Request.Context(), req.Fields())
	if err != nil {
		response.ErrorResponse(c, http.StatusBadGateway, "WRITE_ERROR", "Failed to create post")
		return
	}
	response.Success(c, http.StatusCreated, p)
}

// UpdatePost overwrites the supplied fields of an existing article; the
// publish date is never touched.
// PATCH /api/v1/admin/posts/:id
func (h *PostHandler) UpdatePost(c *gin.Context) {
	var req post.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.repo.Update(c.Request.Context(), c.Param("id"), req.Fields()); err != nil {
		if errors.Is(err, post.ErrPostNotFound) {
			response.NotFound(c, "Post not found")
			return
		}
		response.ErrorResponse(c, http.StatusBadGateway, "WRITE_ERROR", "Failed to update post")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": c.Param("id")})
}

// DeletePost removes an article. Deleting an already-absent post succeeds.
// DELETE /api/v1/admin/posts/:id
func (h *PostHandler) DeletePost(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.ErrorResponse(c, http.StatusBadGateway, "WRITE_ERROR", "Failed to delete post")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": c.Param("id")})
}

// =====================================================
// PROJECTION PLUMBING
// =====================================================

func (h *PostHandler) list(c *gin.Context, pageSize int) {
	category := c.DefaultQuery("category", post.CategoryAll)
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		response.BadRequest(c, "page must be a positive integer")
		return
	}

	view := post.Project(h.currentSnapshot(), category, page, pageSize)
	response.SuccessWithMeta(c, http.StatusOK, view.PageItems, &response.Meta{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: view.TotalPages,
		Categories: view.Categories,
	})
}
