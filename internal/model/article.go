// Package model defines the published article and the data shared by page templates.
package model

import (
	"html/template"
	"time"

	"github.com/debemdeboas/inkwell/internal/editor"
)

type ArticleID string

type Article struct {
	ID ArticleID

	Title         string
	Excerpt       string
	Category      string
	Author        string
	CoverImageRef string
	ReadTime      string

	Markdown []byte
	Content  template.HTML

	// Used for cache busting.
	ContentHash string

	CreatedDate  time.Time
	ModifiedDate time.Time
}

// FromDocument copies the document's fields into a.
func (a *Article) FromDocument(doc editor.Document) {
	a.Title = doc.Title
	a.Excerpt = doc.Excerpt
	a.Category = doc.Category
	a.Author = doc.Author
	a.CoverImageRef = doc.CoverImageRef
	a.ReadTime = doc.ReadTime
	a.Markdown = []byte(doc.Text)
}

// Document returns the article as an editable document.
func (a *Article) Document() editor.Document {
	return editor.Document{
		Title:         a.Title,
		Excerpt:       a.Excerpt,
		Category:      a.Category,
		Author:        a.Author,
		CoverImageRef: a.CoverImageRef,
		Text:          string(a.Markdown),
		ReadTime:      a.ReadTime,
	}
}
