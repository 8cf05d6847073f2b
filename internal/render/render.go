package render

import (
	"io"

	"github.com/yukikurage/story-relay-api/internal/models"
)

// Entry is one contribution as it appears in an export.
type Entry struct {
	Author  string
	Content string
}

// Document is the renderer input: the story title followed by its
// contributions in creation order.
type Document struct {
	Title   string
	Entries []Entry
}

// Renderer writes a Document in one export format.
type Renderer interface {
	Render(w io.Writer, doc Document) error
	ContentType() string
	Extension() string
}

// ForFormat returns the renderer producing the given export format.
func ForFormat(format models.ExportFormat) (Renderer, bool) {
	switch format {
	case models.ExportFormatPDF:
		return NewPDFRenderer(), true
	case models.ExportFormatImage:
		return NewImageRenderer(), true
	}
	return nil, false
}

// NewDocument builds a Document from a story and its ordered contributions.
func NewDocument(story *models.Story, contributions []models.Contribution) Document {
	doc := Document{Title: story.Title, Entries: make([]Entry, 0, len(contributions))}
	for _, c := range contributions {
		doc.Entries = append(doc.Entries, Entry{Author: c.User.Username, Content: c.Content})
	}
	return doc
}

// Line formats an entry as "username: content".
func (e Entry) Line() string {
	return e.Author + ": " + e.Content
}
