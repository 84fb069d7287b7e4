package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/inkwell-blog/inkwell/internal/models"
	"github.com/inkwell-blog/inkwell/internal/policy"
	"github.com/inkwell-blog/inkwell/internal/request"
	"github.com/inkwell-blog/inkwell/internal/validation"
)

// PostsHandler is the admin posts surface behind the request gate. Writes are
// permission-checked against the session claims forwarded by the gate. The
// store is in-memory; content persistence is handled elsewhere.
type PostsHandler struct {
	mu     sync.RWMutex
	posts  map[uuid.UUID]*models.Post
	logger *zap.Logger
}

// NewPostsHandler creates a new posts handler
func NewPostsHandler(logger *zap.Logger) *PostsHandler {
	return &PostsHandler{
		posts:  make(map[uuid.UUID]*models.Post),
		logger: logger,
	}
}

// RegisterRoutes registers post routes on the given router
// The router should already have the /admin/api/posts prefix
func (h *PostsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListPosts).Methods("GET")
	r.HandleFunc("", h.CreatePost).Methods("POST")
	r.HandleFunc("/{id}", h.UpdatePost).Methods("PUT")
	r.HandleFunc("/{id}", h.DeletePost).Methods("DELETE")
}

// PostRequest is the create/update payload
type PostRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"max=100000"`
	Status  string `json:"status" validate:"omitempty,post_status"`
}

// ListPosts returns all posts, newest first. Reaching this handler already
// means the gate admitted the session.
func (h *PostsHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	list := make([]*models.Post, 0, len(h.posts))
	for _, p := range h.posts {
		list = append(list, p)
	}
	h.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	respondJSON(w, http.StatusOK, list)
}

// CreatePost creates a post. Requires write:posts.
func (h *PostsHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	claims := request.ClaimsFromContext(r)
	if !policy.ClaimsHavePermission(claims, models.PermWritePosts) {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "write:posts permission required")
		return
	}

	req, ok := h.decodePostRequest(w, r)
	if !ok {
		return
	}

	status := models.PostStatus(req.Status)
	if status == "" {
		status = models.PostStatusDraft
	}

	now := time.Now().UTC()
	post := &models.Post{
		ID:        uuid.New(),
		Title:     validation.SanitizeText(req.Title),
		Content:   req.Content,
		Status:    status,
		Author:    claims.Login,
		CreatedAt: now,
		UpdatedAt: now,
	}

	h.mu.Lock()
	h.posts[post.ID] = post
	h.mu.Unlock()

	h.logger.Info("post_created",
		zap.String("post_id", post.ID.String()),
		zap.String("author", claims.Login),
	)

	respondJSON(w, http.StatusCreated, post)
}

// UpdatePost updates a post. Requires write:posts.
func (h *PostsHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	claims := request.ClaimsFromContext(r)
	if !policy.ClaimsHavePermission(claims, models.PermWritePosts) {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "write:posts permission required")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request", "Invalid post id")
		return
	}

	req, ok := h.decodePostRequest(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	post, exists := h.posts[id]
	if !exists {
		respondJSONError(w, http.StatusNotFound, "Not found", "Post does not exist")
		return
	}

	post.Title = validation.SanitizeText(req.Title)
	post.Content = req.Content
	if req.Status != "" {
		post.Status = models.PostStatus(req.Status)
	}
	post.UpdatedAt = time.Now().UTC()

	respondJSON(w, http.StatusOK, post)
}

// DeletePost deletes a post. Requires delete:posts, which only owner-admin
// holds.
func (h *PostsHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	claims := request.ClaimsFromContext(r)
	if !policy.ClaimsHavePermission(claims, models.PermDeletePosts) {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "delete:posts permission required")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request", "Invalid post id")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.posts[id]; !exists {
		respondJSONError(w, http.StatusNotFound, "Not found", "Post does not exist")
		return
	}
	delete(h.posts, id)

	respondJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
}

func (h *PostsHandler) decodePostRequest(w http.ResponseWriter, r *http.Request) (*PostRequest, bool) {
	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request", "Malformed JSON body")
		return nil, false
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return nil, false
	}
	return &req, true
}
