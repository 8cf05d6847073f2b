package models

import "time"

type ExportFormat string

const (
	ExportFormatPDF   ExportFormat = "pdf"
	ExportFormatImage ExportFormat = "image"
)

// Valid reports whether f is a supported export format.
func (f ExportFormat) Valid() bool {
	return f == ExportFormatPDF || f == ExportFormatImage
}

type ExportJob struct {
	ID            string       `gorm:"type:varchar(36);primarykey" json:"id"`
	StoryID       uint64       `gorm:"not null;index" json:"story_id"`
	RequestedByID uint64       `gorm:"not null" json:"requested_by_id"`
	Format        ExportFormat `gorm:"type:varchar(10);not null" json:"format"`
	Status        ExportStatus `gorm:"type:varchar(20);not null" json:"status"`
	FileRef       string       `gorm:"type:varchar(512)" json:"file_ref,omitempty"`
	Error         string       `gorm:"type:text" json:"error,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	FinishedAt    *time.Time   `json:"finished_at,omitempty"`
}
