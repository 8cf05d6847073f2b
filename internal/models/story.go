package models

import (
	"time"
)

// ExportStatus tracks the last export of one format for a story.
type ExportStatus string

const (
	ExportStatusNone    ExportStatus = ""
	ExportStatusPending ExportStatus = "pending"
	ExportStatusDone    ExportStatus = "done"
	ExportStatusFailed  ExportStatus = "failed"
)

type Story struct {
	ID                uint64       `gorm:"primarykey" json:"id"`
	Title             string       `gorm:"type:varchar(255);not null" json:"title"`
	CreatedByID       uint64       `gorm:"not null;index" json:"created_by_id"`
	Completed         bool         `gorm:"not null;default:false" json:"completed"`
	ContributionCount int          `gorm:"not null;default:0" json:"contribution_count"`
	PDFFile           *string      `gorm:"type:varchar(512)" json:"pdf_file"`
	ImageFile         *string      `gorm:"type:varchar(512)" json:"image_file"`
	PDFStatus         ExportStatus `gorm:"type:varchar(20);not null;default:''" json:"pdf_status"`
	ImageStatus       ExportStatus `gorm:"type:varchar(20);not null;default:''" json:"image_status"`
	CreatedAt         time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`

	// Relations
	CreatedBy     User           `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Contributions []Contribution `gorm:"foreignKey:StoryID" json:"contributions,omitempty"`
}

// ExportFiles returns the stored file references of the story's exports.
func (s *Story) ExportFiles() []string {
	var refs []string
	for _, ref := range []*string{s.PDFFile, s.ImageFile} {
		if ref != nil && *ref != "" {
			refs = append(refs, *ref)
		}
	}
	return refs
}
