// Package editor implements the article authoring core: the document buffer,
// selection handling, the formatting engine, asset insertion and autosave.
package editor

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	DefaultWordsPerMinute = 200
	DefaultCategory       = "Engineering"
	DefaultAuthor         = "Guest Author"

	// Shown before the first mutation of a fresh document.
	InitialReadTime = "5 min read"
)

var ErrInvalidDocument = errors.New("document is missing a title, excerpt or body")

// Document is the article being edited. Text is the single source of truth;
// ReadTime is derived from it and kept in step by the Session.
type Document struct {
	Title         string `json:"title"`
	Excerpt       string `json:"excerpt"`
	Category      string `json:"category"`
	Author        string `json:"author"`
	CoverImageRef string `json:"coverImageRef"`

	Text     string `json:"text"`
	ReadTime string `json:"readTime"`
}

// NewDocument returns doc with the default category and author filled in.
// A document without a read time gets InitialReadTime.
func NewDocument(doc Document) Document {
	if doc.Category == "" {
		doc.Category = DefaultCategory
	}
	if doc.Author == "" {
		doc.Author = DefaultAuthor
	}
	if doc.ReadTime == "" {
		doc.ReadTime = InitialReadTime
	}
	return doc
}

// Valid reports whether doc can be saved.
func Valid(doc Document) bool {
	return strings.TrimSpace(doc.Title) != "" &&
		strings.TrimSpace(doc.Excerpt) != "" &&
		strings.TrimSpace(doc.Text) != ""
}

// HasDraft reports whether doc holds anything worth keeping on teardown.
func HasDraft(doc Document) bool {
	return strings.TrimSpace(doc.Text) != "" || strings.TrimSpace(doc.Title) != ""
}

type Metrics struct {
	Words      int    `json:"words"`
	Characters int    `json:"characters"`
	ReadTime   string `json:"readTime"`
}

// Measure computes the derived metrics for text. Runs of whitespace count as a
// single separator. wpm <= 0 means DefaultWordsPerMinute.
func Measure(text string, wpm int) Metrics {
	words := len(strings.Fields(text))
	return Metrics{
		Words:      words,
		Characters: utf8.RuneCountInString(text),
		ReadTime:   ReadTime(words, wpm),
	}
}

func ReadTime(words, wpm int) string {
	if wpm <= 0 {
		wpm = DefaultWordsPerMinute
	}
	minutes := (words + wpm - 1) / wpm
	return fmt.Sprintf("%d min read", minutes)
}
