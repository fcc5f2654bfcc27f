package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"siteops/internal/domain"
	"siteops/internal/service"
)

type Handler struct {
	images   service.ImageService
	verifier service.VerifyService
	log      *zap.Logger
}

func NewHandler(images service.ImageService, verifier service.VerifyService, log *zap.Logger) *Handler {
	return &Handler{
		images:   images,
		verifier: verifier,
		log:      log,
	}
}

type optimizeRequest struct {
	Paths []string `json:"paths"`
}

func (h *Handler) OptimizeImages(c *gin.Context) {
	var req optimizeRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	run, err := h.images.Optimize(c.Request.Context(), req.Paths)
	if err != nil {
		h.log.Error("Failed to optimize images", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to optimize images"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"run": run})
}

func (h *Handler) VerifyDeployment(c *gin.Context) {
	report := h.verifier.Verify(c.Request.Context(), c.Query("url"))

	status := http.StatusOK
	if !report.Passed {
		status = http.StatusFailedDependency
	}
	c.JSON(status, gin.H{"report": report})
}

func (h *Handler) ListBackups(c *gin.Context) {
	keys, err := h.images.ListBackups(c.Request.Context())
	if errors.Is(err, domain.ErrBackupDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Backups are disabled"})
		return
	}
	if err != nil {
		h.log.Error("Failed to list backups", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list backups"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"backups": keys})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}
