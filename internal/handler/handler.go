// Package handler serves the editing sessions over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/inkwell/internal/assets"
	"github.com/debemdeboas/inkwell/internal/cache"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/editor"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/render"
	"github.com/debemdeboas/inkwell/internal/repository"
	"github.com/debemdeboas/inkwell/internal/routes"
	"github.com/debemdeboas/inkwell/internal/sse"
	"github.com/debemdeboas/inkwell/internal/util"
)

var handlerLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	handlerLogger = l
}

const maxBodySize = 4 << 20

type Options struct {
	Autosave       bool
	AutosaveDelay  time.Duration
	WordsPerMinute int

	DefaultCategory string
	DefaultAuthor   string

	MaxAssetSize int64

	// SessionIdle is how long a session may go untouched before ExpireIdle
	// closes it. Zero keeps sessions until they are closed explicitly.
	SessionIdle time.Duration

	// AfterFunc replaces time.AfterFunc for autosave timers when set.
	AfterFunc editor.AfterFunc
	// Now replaces time.Now for idle tracking when set.
	Now       func() time.Time
}

// OptionsFromConfig maps the editor and assets sections onto handler options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Autosave:        cfg.Editor.Autosave,
		AutosaveDelay:   cfg.Editor.AutosaveDelay,
		WordsPerMinute:  cfg.Editor.WordsPerMinute,
		DefaultCategory: cfg.Editor.DefaultCategory,
		DefaultAuthor:   cfg.Editor.DefaultAuthor,
		MaxAssetSize:    int64(cfg.Assets.MaxSize),
		SessionIdle:     cfg.Editor.SessionIdle,
	}
}

type EditorHandler struct {
	openMu   sync.Mutex
	sessions *cache.Cache[string, *editor.Session]
	lastSeen *cache.Cache[string, time.Time]

	articles repository.ArticleRepository
	drafts   repository.DraftRepository
	assets   assets.Store
	clients  *sse.SSEClients

	templates fs.FS
	opts      Options
}

func NewEditorHandler(
	articles repository.ArticleRepository,
	drafts repository.DraftRepository,
	store assets.Store,
	clients *sse.SSEClients,
	templates fs.FS,
	opts Options,
) *EditorHandler {
	if opts.MaxAssetSize <= 0 {
		opts.MaxAssetSize = 10 << 20
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &EditorHandler{
		sessions:  cache.NewCache[string, *editor.Session](),
		lastSeen:  cache.NewCache[string, time.Time](),
		articles:  articles,
		drafts:    drafts,
		assets:    store,
		clients:   clients,
		templates: templates,
		opts:      opts,
	}
}

func (h *EditorHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+routes.EditorPage, h.ServeEditor)
	mux.HandleFunc("GET "+routes.EditorEditPage, h.ServeEditor)

	mux.HandleFunc("POST "+routes.APIEditor, h.CreateSession)
	mux.HandleFunc("PUT "+routes.APIEditorContent, h.SetContent)
	mux.HandleFunc("POST "+routes.APIEditorFormat, h.Format)
	mux.HandleFunc("POST "+routes.APIEditorAssets, h.InsertAsset)
	mux.HandleFunc("PUT "+routes.APIEditorMeta, h.SetMeta)
	mux.HandleFunc("POST "+routes.APIEditorAutosave, h.SetAutosave)
	mux.HandleFunc("POST "+routes.APIEditorSave, h.Save)
	mux.HandleFunc("POST "+routes.APIEditorKey, h.Key)
	mux.HandleFunc("DELETE "+routes.APIEditorSession, h.CloseSession)

	mux.HandleFunc("GET "+routes.PartialsEditorPreview, h.ServePreview)
	mux.HandleFunc("GET "+routes.PartialsEditorSource, h.ServeSource)

	mux.HandleFunc("GET "+routes.SSEPath, h.ServeEvents)
}

// Session returns the live session registered under id.
func (h *EditorHandler) Session(id string) (*editor.Session, bool) {
	return h.sessions.Get(id)
}

// Shutdown closes every live session, writing drafts where there is one.
func (h *EditorHandler) Shutdown(ctx context.Context) {
	for _, s := range h.sessions.Values() {
		h.drop(s.ID())
		if err := s.Close(ctx); err != nil {
			handlerLogger.Error().Err(err).Str("session_id", s.ID()).Msg("Error closing session")
		}
	}
}

// ExpireIdle closes sessions untouched for longer than SessionIdle, keeping
// their drafts, and returns how many it closed.
func (h *EditorHandler) ExpireIdle(ctx context.Context) int {
	if h.opts.SessionIdle <= 0 {
		return 0
	}
	now := h.opts.Now()

	h.openMu.Lock()
	var idle []*editor.Session
	for _, s := range h.sessions.Values() {
		if seen, ok := h.lastSeen.Get(s.ID()); ok && now.Sub(seen) < h.opts.SessionIdle {
			continue
		}
		h.drop(s.ID())
		idle = append(idle, s)
	}
	h.openMu.Unlock()

	for _, s := range idle {
		handlerLogger.Info().Str("session_id", s.ID()).Msg("Closing idle session")
		if err := s.Close(ctx); err != nil {
			handlerLogger.Error().Err(err).Str("session_id", s.ID()).Msg("Error closing idle session")
		}
	}
	return len(idle)
}

// RunExpiry calls ExpireIdle every half idle period until ctx is done.
func (h *EditorHandler) RunExpiry(ctx context.Context) {
	if h.opts.SessionIdle <= 0 {
		return
	}
	ticker := time.NewTicker(h.opts.SessionIdle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.ExpireIdle(ctx)
		}
	}
}

func (h *EditorHandler) touch(id string) {
	h.lastSeen.Set(id, h.opts.Now())
}

// drop unregisters a session and its cached preview. The caller closes it.
func (h *EditorHandler) drop(id string) {
	h.sessions.Delete(id)
	h.lastSeen.Delete(id)
	render.Forget(previewKey(id))
}

func previewKey(id string) string {
	return "editor:" + id
}

// open returns the live session for id or starts one from the stored draft,
// the published article, or a blank document, in that order.
func (h *EditorHandler) open(ctx context.Context, id string) (*editor.Session, error) {
	h.openMu.Lock()
	defer h.openMu.Unlock()

	if s, ok := h.sessions.Get(id); ok {
		h.touch(id)
		return s, nil
	}

	doc := editor.Document{Category: h.opts.DefaultCategory, Author: h.opts.DefaultAuthor}
	if article, err := h.articles.ReadArticle(ctx, id); err == nil {
		doc = article.Document()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if draft, err := h.drafts.GetDraft(ctx, id); err == nil {
		handlerLogger.Debug().Str("session_id", id).Msg("Restoring draft")
		doc = draft
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	s := editor.NewSession(id, doc, editor.Options{
		WordsPerMinute: h.opts.WordsPerMinute,
		Autosave:       h.opts.Autosave,
		AutosaveDelay:  h.opts.AutosaveDelay,
		AfterFunc:      h.opts.AfterFunc,
		Drafts:         h.drafts,
		Publisher:      h.articles,
		Observer:       h.clients.Observer(id),
	})
	h.sessions.Set(id, s)
	h.touch(id)

	handlerLogger.Info().Str("session_id", id).Msg("Editing session opened")
	return s, nil
}

func (h *EditorHandler) session(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	s, ok := h.sessions.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, config.ErrSessionNotFound, http.StatusNotFound)
		return nil, false
	}
	h.touch(s.ID())
	return s, true
}

func (h *EditorHandler) ServeEditor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		if cookie, err := r.Cookie(config.CookieSessionID); err == nil && cookie.Value != "" {
			id = cookie.Value
		} else {
			id = h.articles.NewArticleID()
		}
	}

	s, err := h.open(r.Context(), id)
	if err != nil {
		handlerLogger.Error().Err(err).Str("session_id", id).Msg("Error opening session")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}
	setSessionCookie(w, id)

	tmpl, err := template.ParseFS(h.templates, config.TemplatesLocalDir+"/"+config.TemplateLayout, config.TemplatesLocalDir+"/"+config.TemplateEditor)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	isEditor := true
	data := struct {
		*model.PageData
		Document  editor.Document
		SessionID string
		Metrics   editor.Metrics
		Autosave  bool
		Commands  []editor.Command
	}{
		PageData:  model.NewPageData(r),
		Document:  s.Document(),
		SessionID: id,
		Metrics:   s.Metrics(),
		Autosave:  s.AutosaveEnabled(),
		Commands:  editor.Commands(),
	}
	data.IsEditorPage = &isEditor

	w.Header().Set(config.HETag, util.ContentHash([]byte(data.Theme+data.SyntaxTheme)))
	if err := tmpl.ExecuteTemplate(w, config.TemplateLayout, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.CookieSessionID,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		handlerLogger.Debug().Err(err).Str("path", r.URL.Path).Msg("Bad request body")
		http.Error(w, config.ErrInvalidRequestBody, http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		handlerLogger.Error().Err(err).Msg("Error writing response")
	}
}
