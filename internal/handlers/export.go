package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/story-relay-api/internal/dto"
	apierrors "github.com/yukikurage/story-relay-api/internal/errors"
	"github.com/yukikurage/story-relay-api/internal/middleware"
	"github.com/yukikurage/story-relay-api/internal/models"
	"github.com/yukikurage/story-relay-api/internal/services"
)

// ExportHandler starts story exports and reports their progress.
type ExportHandler struct {
	exportService *services.ExportService
}

func NewExportHandler(exportService *services.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// ExportStory queues a PDF or image export. The "type" field defaults to pdf.
func (h *ExportHandler) ExportStory(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}
	storyID, ok := middleware.GetStoryID(c)
	if !ok {
		apierrors.NotFound(c, "Story not found")
		return
	}

	var req struct {
		Type *string `json:"type"`
	}
	// an empty body means the default format
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	format := models.ExportFormatPDF
	if req.Type != nil {
		format = models.ExportFormat(*req.Type)
	}

	job, err := h.exportService.ExportStory(c.Request.Context(), storyID, userID, format)
	if err != nil {
		respondExportError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Export started. The file will be available soon.",
		"job_id":  job.ID,
		"status":  job.Status,
	})
}

// GetExportJob reports the status of one export job
func (h *ExportHandler) GetExportJob(c *gin.Context) {
	storyID, ok := middleware.GetStoryID(c)
	if !ok {
		apierrors.NotFound(c, "Story not found")
		return
	}

	job, err := h.exportService.GetExportJob(c.Request.Context(), storyID, c.Param("job_id"))
	if err != nil {
		respondExportError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToExportJobDTO(*job))
}

// DownloadExport streams the file produced by a finished job
func (h *ExportHandler) DownloadExport(c *gin.Context) {
	storyID, ok := middleware.GetStoryID(c)
	if !ok {
		apierrors.NotFound(c, "Story not found")
		return
	}

	file, err := h.exportService.OpenExport(c.Request.Context(), storyID, c.Param("job_id"))
	if err != nil {
		respondExportError(c, err)
		return
	}
	defer file.Body.Close()

	c.DataFromReader(http.StatusOK, -1, file.ContentType, file.Body, map[string]string{
		"Content-Disposition": `attachment; filename="` + file.Name + `"`,
	})
}

func respondExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidExportFormat):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidFormat, err.Error()+".")
	case errors.Is(err, services.ErrStoryNotFound):
		apierrors.NotFound(c, "Story not found")
	case errors.Is(err, services.ErrExportJobNotFound), errors.Is(err, services.ErrExportNotReady):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrQueueUnavailable):
		_ = c.Error(err)
		apierrors.ServiceUnavailable(c, "Export queue is unavailable, please retry")
	default:
		respondUnexpected(c, err)
	}
}
