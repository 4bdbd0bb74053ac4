// Package repository persists published articles and autosaved drafts.
package repository

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/inkwell/internal/editor"
	"github.com/debemdeboas/inkwell/internal/model"
)

var ErrNotFound = errors.New("not found")

var repoLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

type ArticleRepository interface {
	editor.Publisher

	Init() error
	NewArticleID() string
	ReadArticle(ctx context.Context, id string) (*model.Article, error)
	ListArticles() []model.Article
}

type DraftRepository interface {
	editor.DraftStore

	GetDraft(ctx context.Context, id string) (editor.Document, error)
}

var (
	_ ArticleRepository = (*DBArticleRepository)(nil)
	_ DraftRepository   = (*MemoryDraftRepository)(nil)
	_ DraftRepository   = (*FSDraftRepository)(nil)
	_ DraftRepository   = (*DBDraftRepository)(nil)
)
