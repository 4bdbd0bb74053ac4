package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/editor"
	"github.com/debemdeboas/inkwell/internal/util/compression"
)

// DBDraftRepository stores drafts as compressed JSON in the drafts table.
type DBDraftRepository struct {
	db         db.DB
	compressor compression.Compressor
}

func NewDBDraftRepository(db db.DB, compressor compression.Compressor) *DBDraftRepository {
	if compressor == nil {
		compressor = compression.ZstdCompressor{}
	}
	return &DBDraftRepository{db: db, compressor: compressor}
}

func (r *DBDraftRepository) SaveDraft(ctx context.Context, id string, doc editor.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error encoding draft: %w", err)
	}
	compressed, err := r.compressor.Compress(data)
	if err != nil {
		return fmt.Errorf("error compressing draft: %w", err)
	}

	_, err = r.db.Get().ExecContext(ctx,
		`INSERT INTO drafts (id, document, modified_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET document = excluded.document, modified_at = excluded.modified_at`,
		id, compressed, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("error saving draft: %w", err)
	}
	return nil
}

func (r *DBDraftRepository) GetDraft(ctx context.Context, id string) (editor.Document, error) {
	var compressed []byte
	err := r.db.Get().QueryRowContext(ctx, `SELECT document FROM drafts WHERE id = ?`, id).Scan(&compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return editor.Document{}, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return editor.Document{}, fmt.Errorf("error reading draft: %w", err)
	}

	data, err := r.compressor.Decompress(compressed)
	if err != nil {
		return editor.Document{}, fmt.Errorf("error decompressing draft: %w", err)
	}

	var doc editor.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return editor.Document{}, fmt.Errorf("error decoding draft %s: %w", id, err)
	}
	return doc, nil
}

func (r *DBDraftRepository) DeleteDraft(ctx context.Context, id string) error {
	if _, err := r.db.Get().ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("error deleting draft: %w", err)
	}
	return nil
}
