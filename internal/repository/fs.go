package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/debemdeboas/inkwell/internal/editor"
)

// FSDraftRepository keeps one JSON file per draft in a directory.
type FSDraftRepository struct {
	dir string
}

func NewFSDraftRepository(dir string) (*FSDraftRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating drafts directory: %w", err)
	}
	return &FSDraftRepository{dir: dir}, nil
}

func (r *FSDraftRepository) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid draft id %q", id)
	}
	return filepath.Join(r.dir, id+".json"), nil
}

func (r *FSDraftRepository) SaveDraft(_ context.Context, id string, doc editor.Document) error {
	path, err := r.path(id)
	if err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error encoding draft: %w", err)
	}

	// Write then rename so a crash never leaves half a draft.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("error writing draft: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("error writing draft: %w", err)
	}

	repoLogger.Debug().Str("draft_id", id).Str("path", path).Msg("Draft written")
	return nil
}

func (r *FSDraftRepository) GetDraft(_ context.Context, id string) (editor.Document, error) {
	path, err := r.path(id)
	if err != nil {
		return editor.Document{}, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return editor.Document{}, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return editor.Document{}, fmt.Errorf("error reading draft: %w", err)
	}

	var doc editor.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return editor.Document{}, fmt.Errorf("error decoding draft %s: %w", id, err)
	}
	return doc, nil
}

func (r *FSDraftRepository) DeleteDraft(_ context.Context, id string) error {
	path, err := r.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error deleting draft: %w", err)
	}
	return nil
}
