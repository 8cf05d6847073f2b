package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/story-relay-api/internal/dto"
	apierrors "github.com/yukikurage/story-relay-api/internal/errors"
	"github.com/yukikurage/story-relay-api/internal/middleware"
	"github.com/yukikurage/story-relay-api/internal/services"
	"github.com/yukikurage/story-relay-api/internal/utils"
)

// StoryHandler serves the story and contribution endpoints.
type StoryHandler struct {
	storyService *services.StoryService
}

func NewStoryHandler(storyService *services.StoryService) *StoryHandler {
	return &StoryHandler{storyService: storyService}
}

// ListStories returns all stories, newest first
func (h *StoryHandler) ListStories(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	stories, total, err := h.storyService.ListStories(c.Request.Context(), services.ListStoriesInput{
		Page:     params.Page,
		PageSize: params.Limit,
	})
	if err != nil {
		respondStoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToStoryListResponse(stories, params, total))
}

// CreateStory creates a story owned by the current user
func (h *StoryHandler) CreateStory(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	var req struct {
		Title string `json:"title" binding:"required,max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", bindingDetails(err))
		return
	}

	story, err := h.storyService.CreateStory(c.Request.Context(), services.CreateStoryInput{
		Title:     req.Title,
		CreatorID: userID,
	})
	if err != nil {
		respondStoryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToStoryDTO(*story))
}

// GetStory returns a story with its contributions
func (h *StoryHandler) GetStory(c *gin.Context) {
	storyID, ok := middleware.GetStoryID(c)
	if !ok {
		apierrors.NotFound(c, "Story not found")
		return
	}

	story, err := h.storyService.GetStory(c.Request.Context(), storyID)
	if err != nil {
		respondStoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToStoryDTO(*story))
}

// UpdateStory changes the title. Served for both PUT and PATCH.
func (h *StoryHandler) UpdateStory(c *gin.Context) {
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
		Title *string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if c.Request.Method == http.MethodPut && req.Title == nil {
		apierrors.BadRequest(c, services.ErrTitleRequired.Error())
		return
	}

	story, err := h.storyService.UpdateStory(c.Request.Context(), storyID, userID, services.UpdateStoryInput{
		Title: req.Title,
	})
	if err != nil {
		respondStoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToStoryDTO(*story))
}

// DeleteStory deletes a story created by the current user
func (h *StoryHandler) DeleteStory(c *gin.Context) {
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

	if err := h.storyService.DeleteStory(c.Request.Context(), storyID, userID); err != nil {
		respondStoryError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Contribute appends two lines to a story. Content is validated by the
// service after the story state checks.
func (h *StoryHandler) Contribute(c *gin.Context) {
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
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	_, err := h.storyService.AddContribution(c.Request.Context(), services.AddContributionInput{
		StoryID:  storyID,
		AuthorID: userID,
		Content:  req.Content,
	})
	if err != nil {
		respondStoryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Contribution added successfully."})
}

func respondStoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrStoryNotFound):
		apierrors.NotFound(c, "Story not found")
	case errors.Is(err, services.ErrNotStoryEditor),
		errors.Is(err, services.ErrNotStoryDeleter):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrStoryAlreadyComplete):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeAlreadyComplete, err.Error()+".")
	case errors.Is(err, services.ErrMaxContributionsReached):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeMaxContributionsReached, err.Error()+".")
	case errors.Is(err, services.ErrInvalidContent):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidContent, "Each contribution must be exactly two lines.")
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleTooLong):
		apierrors.BadRequest(c, err.Error())
	default:
		respondUnexpected(c, err)
	}
}
