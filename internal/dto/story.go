package dto

import (
	"time"

	"github.com/yukikurage/story-relay-api/internal/models"
	"github.com/yukikurage/story-relay-api/internal/utils"
)

// ContributionDTO represents a contribution in API responses
type ContributionDTO struct {
	ID        uint64    `json:"id"`
	Story     uint64    `json:"story"`
	User      uint64    `json:"user"`
	Username  string    `json:"username,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ExportStateDTO describes the last export of one format
type ExportStateDTO struct {
	Status models.ExportStatus `json:"status"`
	File   *string             `json:"file"`
}

// StoryDTO represents a story in API responses. CreatedBy is the creator's username.
type StoryDTO struct {
	ID                uint64            `json:"id"`
	Title             string            `json:"title"`
	CreatedBy         string            `json:"created_by"`
	Completed         bool              `json:"completed"`
	ContributionCount int               `json:"contribution_count"`
	Contributions     []ContributionDTO `json:"contributions"`
	PDF               ExportStateDTO    `json:"pdf"`
	Image             ExportStateDTO    `json:"image"`
	CreatedAt         time.Time         `json:"created_at"`
}

// StoryListResponse represents a paginated list of stories
type StoryListResponse struct {
	Stories    []StoryDTO               `json:"stories"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ExportJobDTO represents an export job in API responses
type ExportJobDTO struct {
	JobID      string              `json:"job_id"`
	StoryID    uint64              `json:"story_id"`
	Format     models.ExportFormat `json:"format"`
	Status     models.ExportStatus `json:"status"`
	File       string              `json:"file,omitempty"`
	Error      string              `json:"error,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}

// Conversion functions

// ToContributionDTO converts a Contribution model to ContributionDTO
func ToContributionDTO(c models.Contribution) ContributionDTO {
	return ContributionDTO{
		ID:        c.ID,
		Story:     c.StoryID,
		User:      c.UserID,
		Username:  c.User.Username,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

// ToStoryDTO converts a Story model to StoryDTO
func ToStoryDTO(story models.Story) StoryDTO {
	contributions := make([]ContributionDTO, 0, len(story.Contributions))
	for _, c := range story.Contributions {
		contributions = append(contributions, ToContributionDTO(c))
	}

	return StoryDTO{
		ID:                story.ID,
		Title:             story.Title,
		CreatedBy:         story.CreatedBy.Username,
		Completed:         story.Completed,
		ContributionCount: story.ContributionCount,
		Contributions:     contributions,
		PDF:               ExportStateDTO{Status: story.PDFStatus, File: story.PDFFile},
		Image:             ExportStateDTO{Status: story.ImageStatus, File: story.ImageFile},
		CreatedAt:         story.CreatedAt,
	}
}

// ToStoryListResponse converts stories with pagination into a list response
func ToStoryListResponse(stories []models.Story, params utils.PaginationParams, total int64) StoryListResponse {
	items := make([]StoryDTO, 0, len(stories))
	for _, story := range stories {
		items = append(items, ToStoryDTO(story))
	}

	return StoryListResponse{
		Stories: items,
		Pagination: params.Response(total),
	}
}

// ToExportJobDTO converts an ExportJob model to ExportJobDTO
func ToExportJobDTO(job models.ExportJob) ExportJobDTO {
	return ExportJobDTO{
		JobID:      job.ID,
		StoryID:    job.StoryID,
		Format:     job.Format,
		Status:     job.Status,
		File:       job.FileRef,
		Error:      job.Error,
		CreatedAt:  job.CreatedAt,
		FinishedAt: job.FinishedAt,
	}
}
