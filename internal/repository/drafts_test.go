package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDraftRepositories(t *testing.T) {
	repos := map[string]func(t *testing.T) DraftRepository{
		"memory": func(t *testing.T) DraftRepository {
			return NewMemoryDraftRepository()
		},
		"fs": func(t *testing.T) DraftRepository {
			repo, err := NewFSDraftRepository(filepath.Join(t.TempDir(), "drafts"))
			if err != nil {
				t.Fatalf("NewFSDraftRepository: %v", err)
			}
			return repo
		},
		"db": func(t *testing.T) DraftRepository {
			return NewDBDraftRepository(setupTestDB(t), nil)
		},
	}

	for name, newRepo := range repos {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)

			if _, err := repo.GetDraft(ctx, "d1"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Expected ErrNotFound for a missing draft, got %v", err)
			}

			doc := testDocument("Draft")
			if err := repo.SaveDraft(ctx, "d1", doc); err != nil {
				t.Fatalf("SaveDraft: %v", err)
			}

			got, err := repo.GetDraft(ctx, "d1")
			if err != nil {
				t.Fatalf("GetDraft: %v", err)
			}
			if diff := cmp.Diff(doc, got); diff != "" {
				t.Errorf("Draft mismatch (-want +got):\n%s", diff)
			}

			doc.Text = "overwritten"
			if err := repo.SaveDraft(ctx, "d1", doc); err != nil {
				t.Fatalf("SaveDraft: %v", err)
			}
			if got, _ := repo.GetDraft(ctx, "d1"); got.Text != "overwritten" {
				t.Errorf("Expected overwritten draft, got %q", got.Text)
			}

			if err := repo.DeleteDraft(ctx, "d1"); err != nil {
				t.Fatalf("DeleteDraft: %v", err)
			}
			if _, err := repo.GetDraft(ctx, "d1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected draft to be deleted, got %v", err)
			}

			// Deleting twice is not an error.
			if err := repo.DeleteDraft(ctx, "d1"); err != nil {
				t.Errorf("Expected repeated delete to succeed, got %v", err)
			}
		})
	}
}

func TestFSDraftRepositoryRejectsPaths(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFSDraftRepository(dir)
	if err != nil {
		t.Fatalf("NewFSDraftRepository: %v", err)
	}

	for _, id := range []string{"", "..", "../escape", `a\b`} {
		if err := repo.SaveDraft(context.Background(), id, testDocument("x")); err == nil {
			t.Errorf("Expected id %q to be rejected", id)
		}
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Expected no files written, got %d", len(entries))
	}
}

func TestFSDraftRepositoryCorruptFile(t *testing.T) {
	dir := t.TempDir()
	repo, _ := NewFSDraftRepository(dir)

	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := repo.GetDraft(context.Background(), "bad")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Expected a decode error, got %v", err)
	}
}
