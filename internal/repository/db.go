package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/debemdeboas/inkwell/internal/cache"
	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/editor"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/util"
	"github.com/debemdeboas/inkwell/internal/util/compression"
)

type DBArticleRepository struct { // implements ArticleRepository
	articlesCache *cache.Cache[string, *model.Article]

	mu                  sync.RWMutex
	articlesCacheSorted []model.Article

	db         db.DB
	compressor compression.Compressor
}

func NewDBArticleRepository(db db.DB, compressor compression.Compressor) *DBArticleRepository {
	if compressor == nil {
		compressor = compression.ZstdCompressor{}
	}

	return &DBArticleRepository{
		articlesCache: cache.NewCache[string, *model.Article](),

		db: db,

		compressor: compressor,
	}
}

// Init loads every stored article into the list cache.
func (r *DBArticleRepository) Init() error {
	articles, articleMap, err := r.GetArticles()
	if err != nil {
		return fmt.Errorf("error initializing articles: %w", err)
	}

	r.setCache(articles, articleMap)
	repoLogger.Info().Int("articles", len(articles)).Msg("Articles loaded")
	return nil
}

func (r *DBArticleRepository) setCache(articles []model.Article, articleMap map[string]*model.Article) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.articlesCacheSorted = articles
	r.articlesCache.SetTo(articleMap)
}

// GetArticles reads every article, newest modification first.
func (r *DBArticleRepository) GetArticles() ([]model.Article, map[string]*model.Article, error) {
	rows, err := r.db.Query(`SELECT id, title, excerpt, category, author, cover_image, read_time, content, content_hash, created_at, modified_at FROM articles`)
	if err != nil {
		return nil, nil, fmt.Errorf("error querying articles: %w", err)
	}
	defer rows.Close()

	articles := make([]model.Article, 0)
	articleMap := make(map[string]*model.Article)

	for rows.Next() {
		article, err := r.scanArticle(rows)
		if err != nil {
			return nil, nil, err
		}

		articles = append(articles, *article)
		articleMap[string(article.ID)] = article
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating articles: %w", err)
	}

	slices.SortStableFunc(articles, func(a, b model.Article) int {
		return -a.ModifiedDate.Compare(b.ModifiedDate)
	})

	return articles, articleMap, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *DBArticleRepository) scanArticle(row scanner) (*model.Article, error) {
	var article model.Article
	var compressed []byte
	var category, author, cover, readTime sql.NullString

	err := row.Scan(
		&article.ID, &article.Title, &article.Excerpt, &category, &author, &cover, &readTime,
		&compressed, &article.ContentHash, &article.CreatedDate, &article.ModifiedDate,
	)
	if err != nil {
		return nil, fmt.Errorf("error scanning article: %w", err)
	}

	article.Category = category.String
	article.Author = author.String
	article.CoverImageRef = cover.String
	article.ReadTime = readTime.String

	content, err := r.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("error decompressing content: %w", err)
	}
	article.Markdown = content

	return &article, nil
}

func (r *DBArticleRepository) ListArticles() []model.Article {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.articlesCacheSorted
}

func (r *DBArticleRepository) ReadArticle(ctx context.Context, id string) (*model.Article, error) {
	if article, ok := r.articlesCache.Get(id); ok {
		return article, nil
	}

	row := r.db.Get().QueryRowContext(ctx,
		`SELECT id, title, excerpt, category, author, cover_image, read_time, content, content_hash, created_at, modified_at FROM articles WHERE id = ?`, id)
	article, err := r.scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return article, nil
}

func (r *DBArticleRepository) NewArticleID() string {
	return uuid.New().String()
}

// SaveArticle inserts the document under id, or replaces the stored article
// while keeping its creation date.
func (r *DBArticleRepository) SaveArticle(ctx context.Context, id string, doc editor.Document) error {
	compressed, err := r.compressor.Compress([]byte(doc.Text))
	if err != nil {
		return fmt.Errorf("error compressing content: %w", err)
	}

	// Hash the stored bytes so a codec change also busts caches.
	hash := util.ContentHash(compressed)
	now := time.Now().UTC()

	res, err := r.db.Get().ExecContext(ctx,
		`INSERT INTO articles (id, title, excerpt, category, author, cover_image, read_time, content, content_hash, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			excerpt = excluded.excerpt,
			category = excluded.category,
			author = excluded.author,
			cover_image = excluded.cover_image,
			read_time = excluded.read_time,
			content = excluded.content,
			content_hash = excluded.content_hash,
			modified_at = excluded.modified_at`,
		id, doc.Title, doc.Excerpt, doc.Category, doc.Author, doc.CoverImageRef, doc.ReadTime,
		compressed, hash, now, now,
	)
	if err != nil {
		return fmt.Errorf("error saving article: %w", err)
	}

	repoLogger.Debug().Str("article_id", id).Interface("result", res).Msg("Article saved")

	articles, articleMap, err := r.GetArticles()
	if err != nil {
		return fmt.Errorf("error reloading articles: %w", err)
	}
	r.setCache(articles, articleMap)

	return nil
}
