package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/editor"
	"github.com/debemdeboas/inkwell/internal/repository"
	"github.com/debemdeboas/inkwell/internal/util"
)

// main imports every .md file of a directory as a published article.
func main() {
	path := flag.String("path", "", "Path to the directory containing .md files")
	dbPath := flag.String("db", "", "Path to the sqlite database (defaults to the configured one)")
	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	if *path == "" {
		log.Fatal("The --path flag is required")
	}

	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatal(err)
	}
	if *dbPath == "" {
		*dbPath = config.AppConfig.Storage.Database
	}

	DB := db.NewSQLite(*dbPath)
	if err := DB.InitDB(); err != nil {
		log.Fatalf(config.ErrInitializeDatabaseFmt, err)
	}
	defer DB.Close()

	repo := repository.NewDBArticleRepository(DB, nil)

	files, err := os.ReadDir(*path)
	if err != nil {
		log.Fatalf("Error reading directory %s: %v", *path, err)
	}

	imported := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(*path, file.Name()))
		if err != nil {
			log.Printf("Error reading file %s: %v", file.Name(), err)
			continue
		}

		doc, err := documentFromMarkdown(strings.TrimSuffix(file.Name(), ".md"), content, config.AppConfig.Editor)
		if err != nil {
			log.Printf("Skipping %s: %v", file.Name(), err)
			continue
		}

		if err := repo.SaveArticle(context.Background(), repo.NewArticleID(), doc); err != nil {
			log.Printf("Error saving article from %s: %v", file.Name(), err)
			continue
		}
		imported++
		log.Printf("Imported %q from %s", doc.Title, file.Name())
	}

	log.Printf("Imported %d articles", imported)
}

// documentFromMarkdown builds a publishable document from a file's front
// matter and body. The file name is the fallback title.
func documentFromMarkdown(name string, content []byte, cfg config.EditorConfig) (editor.Document, error) {
	info, body := util.SplitFrontMatter(content)

	doc := editor.Document{
		Title:    name,
		Category: cfg.DefaultCategory,
		Author:   cfg.DefaultAuthor,
		Text:     strings.TrimSpace(string(body)),
	}
	if info != nil {
		if info.Title != "" {
			doc.Title = info.Title
		}
		doc.Excerpt = info.Excerpt
		if info.Category != "" {
			doc.Category = info.Category
		}
		if info.Author != "" {
			doc.Author = info.Author
		}
		doc.CoverImageRef = info.Cover
	}
	doc = editor.NewDocument(doc)
	doc.ReadTime = editor.Measure(doc.Text, cfg.WordsPerMinute).ReadTime

	if !editor.Valid(doc) {
		return doc, editor.ErrInvalidDocument
	}
	return doc, nil
}
