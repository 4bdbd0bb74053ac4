package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/inkwell/internal/assets"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/editor"
	"github.com/debemdeboas/inkwell/internal/handler"
	"github.com/debemdeboas/inkwell/internal/logger"
	"github.com/debemdeboas/inkwell/internal/render"
	"github.com/debemdeboas/inkwell/internal/repository"
	"github.com/debemdeboas/inkwell/internal/sse"
)

//go:embed static/* templates/*
var content embed.FS

var mainLogger = zerolog.Nop()

var clients = sse.NewSSEClients()

var articleRepository repository.ArticleRepository

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file loaded")
	}

	configPath := os.Getenv("INKWELL_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	if err := config.LoadConfig(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	l := logger.New(config.AppConfig.Logging.Level)
	setLoggers(l)

	if err := run(config.AppConfig); err != nil {
		mainLogger.Fatal().Err(err).Msg("Server stopped")
	}
}

func setLoggers(l zerolog.Logger) {
	mainLogger = logger.Component(l, "main")
	config.SetLogger(logger.Component(l, "config"))
	db.SetLogger(logger.Component(l, "db"))
	editor.SetLogger(logger.Component(l, "editor"))
	render.SetLogger(logger.Component(l, "render"))
	repository.SetLogger(logger.Component(l, "repository"))
	assets.SetLogger(logger.Component(l, "assets"))
	handler.SetLogger(logger.Component(l, "handler"))
}

func run(cfg *config.Config) error {
	sqlite := db.NewSQLite(cfg.Storage.Database)
	if err := sqlite.InitDB(); err != nil {
		return fmt.Errorf(config.ErrInitializeDatabaseFmt, err)
	}
	defer sqlite.Close()

	articles := repository.NewDBArticleRepository(sqlite, nil)
	if err := articles.Init(); err != nil {
		return fmt.Errorf("%s: %w", config.ErrInitializeArticles, err)
	}
	articleRepository = articles

	drafts, err := newDraftRepository(cfg.Storage, sqlite)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrInitializeDrafts, err)
	}

	store, err := newAssetStore(context.Background(), cfg.Assets)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrInitializeAssets, err)
	}

	editorHandler := handler.NewEditorHandler(articles, drafts, store, clients, content, handler.OptionsFromConfig(cfg))

	mux := http.NewServeMux()
	registerSiteRoutes(mux)
	editorHandler.Register(mux)

	srv := &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           cacheIt(secureHeaders(mux.ServeHTTP)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go editorHandler.RunExpiry(ctx)

	errCh := make(chan error, 1)
	go func() {
		mainLogger.Info().Str("addr", srv.Addr).Msg("Listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	mainLogger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Open sessions get their drafts written before the database closes.
	editorHandler.Shutdown(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}

func newDraftRepository(cfg config.StorageConfig, sqlite db.DB) (repository.DraftRepository, error) {
	switch cfg.Drafts {
	case "memory":
		return repository.NewMemoryDraftRepository(), nil
	case "db":
		return repository.NewDBDraftRepository(sqlite, nil), nil
	case "fs", "":
		return repository.NewFSDraftRepository(cfg.DraftsDir)
	default:
		return nil, fmt.Errorf("unknown drafts backend %q", cfg.Drafts)
	}
}

func newAssetStore(ctx context.Context, cfg config.AssetsConfig) (assets.Store, error) {
	switch cfg.Backend {
	case "datauri", "":
		return assets.DataURIStore{}, nil
	case "s3":
		if cfg.Bucket == "" || cfg.PublicURL == "" {
			return nil, errors.New("s3 assets need a bucket and a public URL")
		}
		client, err := assets.NewS3Client(ctx, os.Getenv("S3_ACCESS_KEY_ID"), os.Getenv("S3_ACCESS_KEY_SECRET"), cfg.Endpoint)
		if err != nil {
			return nil, err
		}
		return assets.NewS3Store(client, cfg.Bucket, cfg.PublicURL), nil
	default:
		return nil, fmt.Errorf("unknown assets backend %q", cfg.Backend)
	}
}

func staticFS() fs.FS {
	static, _ := fs.Sub(content, "static")
	return static
}
