package lists

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"tasklist/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Presigner issues time-limited object storage URLs
type Presigner interface {
	GeneratePresignedUploadURL(ctx context.Context, key string, contentType string, ttl time.Duration) (string, error)
	GeneratePresignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

const (
	MaxFilenameLength = 255
	UploadURLTTL      = 15 * time.Minute
	DownloadURLTTL    = time.Hour
)

var allowedContentTypes = map[string]bool{
	"image/jpeg":       true,
	"image/png":        true,
	"image/gif":        true,
	"image/webp":       true,
	"application/pdf":  true,
	"text/plain":       true,
	"text/markdown":    true,
	"application/json": true,
}

// AttachmentUploadRequest asks for an upload URL for one file
type AttachmentUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// AttachmentUploadResponse carries the presigned PUT URL and the key to store
type AttachmentUploadResponse struct {
	UploadURL string `json:"upload_url"`
	FileKey   string `json:"file_key"`
	ExpiresAt int64  `json:"expires_at"`
}

// AttachmentDownloadRequest names a previously uploaded file
type AttachmentDownloadRequest struct {
	FileKey string `json:"file_key" binding:"required"`
}

// AttachmentDownloadResponse carries the presigned GET URL
type AttachmentDownloadResponse struct {
	DownloadURL string `json:"download_url"`
	ExpiresAt   int64  `json:"expires_at"`
}

func validateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	if len(filename) > MaxFilenameLength {
		return fmt.Errorf("filename too long (max %d characters)", MaxFilenameLength)
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return fmt.Errorf("filename contains invalid characters")
	}
	if filepath.Ext(filename) == "" {
		return fmt.Errorf("filename must have an extension")
	}
	return nil
}

// attachmentPrefix scopes object keys to one task of one user
func attachmentPrefix(userID, taskID string) string {
	return userID + "/" + taskID + "/"
}

// CreateAttachmentUploadURL handles POST /lists/:listId/tasks/:taskId/attachments
func (h *Handler) CreateAttachmentUploadURL(c *gin.Context) {
	if h.files == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage service is not available"})
		return
	}

	var req AttachmentUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateFilename(req.Filename); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !allowedContentTypes[req.ContentType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("content type %s is not allowed", req.ContentType)})
		return
	}

	userID := auth.UserID(c)
	task, err := h.service.Task(c.Request.Context(), userID, c.Param("listId"), c.Param("taskId"))
	if err != nil {
		respondError(c, err)
		return
	}

	fileKey := attachmentPrefix(userID, task.ID) + uuid.New().String() + "-" + req.Filename

	url, err := h.files.GeneratePresignedUploadURL(c.Request.Context(), fileKey, req.ContentType, UploadURLTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AttachmentUploadResponse{
		UploadURL: url,
		FileKey:   fileKey,
		ExpiresAt: time.Now().Add(UploadURLTTL).Unix(),
	})
}

// CreateAttachmentDownloadURL handles POST /lists/:listId/tasks/:taskId/attachments/download
func (h *Handler) CreateAttachmentDownloadURL(c *gin.Context) {
	if h.files == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage service is not available"})
		return
	}

	var req AttachmentDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := auth.UserID(c)
	task, err := h.service.Task(c.Request.Context(), userID, c.Param("listId"), c.Param("taskId"))
	if err != nil {
		respondError(c, err)
		return
	}

	prefix := attachmentPrefix(userID, task.ID)
	if !strings.HasPrefix(req.FileKey, prefix) || len(req.FileKey) == len(prefix) || strings.Contains(req.FileKey, "..") {
		c.JSON(http.StatusNotFound, gin.H{"error": "attachment not found"})
		return
	}

	url, err := h.files.GeneratePresignedDownloadURL(c.Request.Context(), req.FileKey, DownloadURLTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AttachmentDownloadResponse{
		DownloadURL: url,
		ExpiresAt:   time.Now().Add(DownloadURLTTL).Unix(),
	})
}
