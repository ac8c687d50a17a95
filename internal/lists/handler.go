package lists

import (
	"errors"
	"log/slog"
	"net/http"

	"tasklist/internal/auth"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for lists and tasks
type Handler struct {
	service *Service
	files   Presigner
}

// NewHandler creates a new lists handler. files may be nil when object
// storage is not configured; attachment routes then answer 503.
func NewHandler(service *Service, files Presigner) *Handler {
	return &Handler{service: service, files: files}
}

// RegisterRoutes mounts /lists behind the access guard
func (h *Handler) RegisterRoutes(r gin.IRouter, authenticate gin.HandlerFunc) {
	g := r.Group("/lists", authenticate)
	{
		g.GET("", h.GetLists)
		g.POST("", h.CreateList)
		g.PATCH("/:listId", h.UpdateList)
		g.DELETE("/:listId", h.DeleteList)

		g.GET("/:listId/tasks", h.GetTasks)
		g.POST("/:listId/tasks", h.CreateTask)
		g.GET("/:listId/tasks/:taskId", h.GetTask)
		g.PATCH("/:listId/tasks/:taskId", h.UpdateTask)
		g.DELETE("/:listId/tasks/:taskId", h.DeleteTask)

		g.POST("/:listId/tasks/:taskId/attachments", h.CreateAttachmentUploadURL)
		g.POST("/:listId/tasks/:taskId/attachments/download", h.CreateAttachmentDownloadURL)
	}
}

// respondError maps service errors to HTTP statuses
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrListNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "list not found"})
	case errors.Is(err, ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	case errors.Is(err, ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error("Lists request failed",
			"error", err.Error(),
			"user_id", auth.UserID(c),
			"request_id", c.GetString("request_id"),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// GetLists handles GET /lists
func (h *Handler) GetLists(c *gin.Context) {
	out, err := h.service.Lists(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// CreateList handles POST /lists
func (h *Handler) CreateList(c *gin.Context) {
	var req TitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	l, err := h.service.CreateList(c.Request.Context(), auth.UserID(c), req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// UpdateList handles PATCH /lists/:listId
func (h *Handler) UpdateList(c *gin.Context) {
	var req TitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.RenameList(c.Request.Context(), auth.UserID(c), c.Param("listId"), req.Title); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Updated successfully."})
}

// DeleteList handles DELETE /lists/:listId
func (h *Handler) DeleteList(c *gin.Context) {
	l, err := h.service.DeleteList(c.Request.Context(), auth.UserID(c), c.Param("listId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// GetTasks handles GET /lists/:listId/tasks
func (h *Handler) GetTasks(c *gin.Context) {
	out, err := h.service.Tasks(c.Request.Context(), auth.UserID(c), c.Param("listId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetTask handles GET /lists/:listId/tasks/:taskId
func (h *Handler) GetTask(c *gin.Context) {
	t, err := h.service.Task(c.Request.Context(), auth.UserID(c), c.Param("listId"), c.Param("taskId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// CreateTask handles POST /lists/:listId/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	var req TitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.service.CreateTask(c.Request.Context(), auth.UserID(c), c.Param("listId"), req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// UpdateTask handles PATCH /lists/:listId/tasks/:taskId
func (h *Handler) UpdateTask(c *gin.Context) {
	var req TaskUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.service.UpdateTask(c.Request.Context(), auth.UserID(c), c.Param("listId"), c.Param("taskId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Updated successfully!"})
}

// DeleteTask handles DELETE /lists/:listId/tasks/:taskId
func (h *Handler) DeleteTask(c *gin.Context) {
	t, err := h.service.DeleteTask(c.Request.Context(), auth.UserID(c), c.Param("listId"), c.Param("taskId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}
