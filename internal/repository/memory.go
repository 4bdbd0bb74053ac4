package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/debemdeboas/inkwell/internal/editor"
)

type MemoryDraftRepository struct {
	drafts sync.Map
}

func NewMemoryDraftRepository() *MemoryDraftRepository {
	return &MemoryDraftRepository{}
}

func (m *MemoryDraftRepository) SaveDraft(_ context.Context, id string, doc editor.Document) error {
	m.drafts.Store(id, doc)
	return nil
}

func (m *MemoryDraftRepository) GetDraft(_ context.Context, id string) (editor.Document, error) {
	if draft, ok := m.drafts.Load(id); ok {
		return draft.(editor.Document), nil
	}
	return editor.Document{}, fmt.Errorf("draft %s: %w", id, ErrNotFound)
}

func (m *MemoryDraftRepository) DeleteDraft(_ context.Context, id string) error {
	m.drafts.Delete(id)
	return nil
}
