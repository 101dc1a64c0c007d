package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"waitlist-api/pkg/config"
	"waitlist-api/pkg/middleware"
	"waitlist-api/pkg/models"
	"waitlist-api/pkg/services"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	submissionService services.SubmissionService
	config            *config.Config
	now               func() time.Time
}

// NewHandlers creates a new Handlers instance
func NewHandlers(submissionService services.SubmissionService, cfg *config.Config) *Handlers {
	return &Handlers{
		submissionService: submissionService,
		config:            cfg,
		now:               time.Now,
	}
}

// HealthCheck handler for monitoring
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"environment": h.config.Environment,
		"port":        h.config.Port,
		"timestamp":   h.now().Format(time.RFC3339),
	})
}

// ListSubmissions returns every stored submission
func (h *Handlers) ListSubmissions(c *gin.Context) {
	submissions, err := h.submissionService.List(c.Request.Context())
	if err != nil {
		h.serverError(c, "Failed to read submissions", err)
		return
	}

	c.JSON(http.StatusOK, submissions)
}

// DownloadSubmissions returns all submissions as a JSON file attachment
func (h *Handlers) DownloadSubmissions(c *gin.Context) {
	submissions, err := h.submissionService.List(c.Request.Context())
	if err != nil {
		h.serverError(c, "Failed to prepare download", err)
		return
	}

	filename := fmt.Sprintf("submissions_%s.json", h.now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.IndentedJSON(http.StatusOK, submissions)
}

// Submit processes a waitlist signup
func (h *Handlers) Submit(c *gin.Context) {
	var req models.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[%s] Rejected submission: %v", middleware.GetRequestID(c), err)
		c.JSON(http.StatusBadRequest, validationResponse(err))
		return
	}

	result, err := h.submissionService.Submit(c.Request.Context(), req)
	if err != nil {
		h.serverError(c, "Internal server error", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SubmitOptions answers bare OPTIONS requests on /submit; CORS preflights are
// answered by the CORS middleware before reaching it
func (h *Handlers) SubmitOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DeleteSubmission removes a submission by id and renumbers the rest
func (h *Handlers) DeleteSubmission(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Submission ID must be an integer"})
		return
	}

	deleted, err := h.submissionService.Delete(c.Request.Context(), id)
	if errors.Is(err, services.ErrSubmissionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Submission with ID %d not found", id)})
		return
	}
	if err != nil {
		h.serverError(c, "Failed to delete submission", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             services.StatusSuccess,
		"message":            fmt.Sprintf("Submission %d deleted successfully", id),
		"deleted_submission": deleted,
	})
}

// serverError logs the detail and hides it from the client
func (h *Handlers) serverError(c *gin.Context, message string, err error) {
	log.Printf("[%s] %s: %v", middleware.GetRequestID(c), message, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

func validationResponse(err error) gin.H {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return gin.H{"error": "Invalid JSON format"}
	}

	details := make([]gin.H, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, gin.H{
			"field": fe.Field(),
			"rule":  fe.Tag(),
		})
	}
	return gin.H{"error": "Invalid submission", "details": details}
}
