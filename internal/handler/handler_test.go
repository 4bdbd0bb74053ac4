package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/debemdeboas/inkwell/internal/assets"
	"github.com/debemdeboas/inkwell/internal/cache"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/editor"
	"github.com/debemdeboas/inkwell/internal/repository"
	"github.com/debemdeboas/inkwell/internal/sse"
)

var pngPixel, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

type manualTimer struct {
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (c *manualClock) AfterFunc(_ time.Duration, f func()) editor.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) fire() {
	c.mu.Lock()
	timers := append([]*manualTimer(nil), c.timers...)
	c.timers = nil
	c.mu.Unlock()
	for _, t := range timers {
		if !t.stopped {
			t.f()
		}
	}
}

type testEnv struct {
	handler  *EditorHandler
	mux      *http.ServeMux
	articles *repository.DBArticleRepository
	drafts   *repository.MemoryDraftRepository
	clients  *sse.SSEClients
	clock    *manualClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	original := config.AppConfig
	config.AppConfig = config.Default()
	t.Cleanup(func() { config.AppConfig = original })

	sqlite := db.NewSQLite(":memory:")
	if err := sqlite.InitDB(); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	articles := repository.NewDBArticleRepository(sqlite, nil)
	if err := articles.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	env := &testEnv{
		articles: articles,
		drafts:   repository.NewMemoryDraftRepository(),
		clients:  sse.NewSSEClients(),
		clock:    &manualClock{},
		mux:      http.NewServeMux(),
	}

	opts := OptionsFromConfig(config.AppConfig)
	opts.AfterFunc = env.clock.AfterFunc

	env.handler = NewEditorHandler(articles, env.drafts, assets.DataURIStore{}, env.clients, os.DirFS("../.."), opts)
	env.handler.Register(env.mux)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(config.HCType, config.CTypeJSON)
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) State {
	t.Helper()

	var s State
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("Expected state JSON, got %q: %v", rec.Body.String(), err)
	}
	return s
}

func (e *testEnv) create(t *testing.T) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/editor", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decodeState(t, rec).ID
}

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/editor", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", rec.Code)
	}

	s := decodeState(t, rec)
	if s.ID == "" {
		t.Fatal("Expected a session id")
	}
	if s.ReadTime != editor.InitialReadTime {
		t.Errorf("Expected initial read time, got %q", s.ReadTime)
	}
	if s.Valid {
		t.Error("Expected an empty document to be invalid")
	}
	if !s.Autosave {
		t.Error("Expected autosave to follow the configured default")
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != config.CookieSessionID || cookies[0].Value != s.ID {
		t.Errorf("Expected session cookie, got %v", cookies)
	}

	session, ok := env.handler.Session(s.ID)
	if !ok {
		t.Fatal("Expected session to be registered")
	}
	if doc := session.Document(); doc.Category != "Engineering" || doc.Author != "Guest Author" {
		t.Errorf("Expected configured defaults, got %+v", doc)
	}
}

func TestContentAndFormat(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(t)

	rec := env.do(t, http.MethodPut, "/api/editor/"+id+"/content", contentRequest{Content: "make this bold", Start: 10, End: 14})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	s := decodeState(t, rec)
	if s.Words != 3 || s.Characters != 14 || s.ReadTime != "1 min read" {
		t.Errorf("Unexpected metrics %+v", s)
	}
	if s.Caret != 14 {
		t.Errorf("Expected caret at selection end, got %d", s.Caret)
	}

	rec = env.do(t, http.MethodPost, "/api/editor/"+id+"/format", formatRequest{Command: "bold", Start: 10, End: 14})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	s = decodeState(t, rec)
	if s.Content != "make this **bold**" {
		t.Errorf("Unexpected content %q", s.Content)
	}
	if s.Caret != 18 {
		t.Errorf("Expected caret after the wrapped text, got %d", s.Caret)
	}

	rec = env.do(t, http.MethodPost, "/api/editor/"+id+"/format", formatRequest{Command: "strike"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown command, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPut, "/api/editor/"+id+"/content", "not an object")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a bad body, got %d", rec.Code)
	}
}

func TestUnknownSession(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPut, "/api/editor/missing/content"},
		{http.MethodPost, "/api/editor/missing/save"},
		{http.MethodDelete, "/api/editor/missing"},
		{http.MethodGet, "/partials/editor/missing/preview"},
	} {
		rec := env.do(t, tc.method, tc.path, map[string]string{})
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: expected 404, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func upload(t *testing.T, env *testEnv, id, name string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/editor/"+id+"/assets", &buf)
	req.Header.Set(config.HCType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

func TestInsertAsset(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(t)
	env.do(t, http.MethodPut, "/api/editor/"+id+"/content", contentRequest{Content: "Text"})

	rec := upload(t, env, id, "pixel.png", pngPixel, map[string]string{"offset": "4"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	s := decodeState(t, rec)
	if !strings.HasPrefix(s.Content, "Text\n![Image](data:image/png;base64,") || !strings.HasSuffix(s.Content, ")\n") {
		t.Errorf("Expected image token after the text, got %q", s.Content)
	}
	if s.Caret != len([]rune(s.Content)) {
		t.Errorf("Expected caret after the token, got %d of %d", s.Caret, len([]rune(s.Content)))
	}

	t.Run("rejects non-images", func(t *testing.T) {
		rec := upload(t, env, id, "notes.txt", []byte("plain text"), nil)
		if rec.Code != http.StatusUnsupportedMediaType {
			t.Errorf("Expected 415, got %d", rec.Code)
		}
	})

	t.Run("cover image", func(t *testing.T) {
		before, _ := env.handler.Session(id)
		text := before.Document().Text

		rec := upload(t, env, id, "cover.png", pngPixel, map[string]string{"cover": "true"})
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		doc := before.Document()
		if !strings.HasPrefix(doc.CoverImageRef, "data:image/png") {
			t.Errorf("Expected cover image to be set, got %q", doc.CoverImageRef)
		}
		if doc.Text != text {
			t.Error("Expected cover upload to leave the text alone")
		}
	})

	t.Run("size limit", func(t *testing.T) {
		env.handler.opts.MaxAssetSize = 8
		defer func() { env.handler.opts.MaxAssetSize = 10 << 20 }()

		rec := upload(t, env, id, "pixel.png", pngPixel, nil)
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("Expected 413, got %d", rec.Code)
		}
	})
}

func fillValid(t *testing.T, env *testEnv, id string) {
	t.Helper()

	env.do(t, http.MethodPut, "/api/editor/"+id+"/meta", editor.Metadata{Title: "Title", Excerpt: "Excerpt", Category: "Design", Author: "Ada"})
	rec := env.do(t, http.MethodPut, "/api/editor/"+id+"/content", contentRequest{Content: "## Heading\nBody"})
	if !decodeState(t, rec).Valid {
		t.Fatal("Expected document to be valid")
	}
}

func TestSave(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(t)

	rec := env.do(t, http.MethodPost, "/api/editor/"+id+"/save", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for an invalid document, got %d", rec.Code)
	}

	fillValid(t, env, id)
	env.drafts.SaveDraft(context.Background(), id, editor.Document{Title: "stale"})

	rec = env.do(t, http.MethodPost, "/api/editor/"+id+"/save", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp saveResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.URL != "/articles/"+id {
		t.Errorf("Expected article URL, got %q", resp.URL)
	}

	article, err := env.articles.ReadArticle(context.Background(), id)
	if err != nil {
		t.Fatalf("ReadArticle: %v", err)
	}
	if article.Title != "Title" || article.Category != "Design" || string(article.Markdown) != "## Heading\nBody" {
		t.Errorf("Unexpected stored article %+v", article)
	}

	if _, err := env.drafts.GetDraft(context.Background(), id); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected draft to be cleared on save, got %v", err)
	}
}

func TestAutosave(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(t)
	fillValid(t, env, id)

	env.clock.fire()

	draft, err := env.drafts.GetDraft(context.Background(), id)
	if err != nil {
		t.Fatalf("Expected autosaved draft: %v", err)
	}
	if draft.Text != "## Heading\nBody" {
		t.Errorf("Unexpected draft text %q", draft.Text)
	}

	rec := env.do(t, http.MethodPost, "/api/editor/"+id+"/autosave", autosaveRequest{Enabled: false})
	if decodeState(t, rec).Autosave {
		t.Error("Expected autosave to be disabled")
	}

	env.drafts.DeleteDraft(context.Background(), id)
	env.do(t, http.MethodPut, "/api/editor/"+id+"/content", contentRequest{Content: "changed"})
	env.clock.fire()
	if _, err := env.drafts.GetDraft(context.Background(), id); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected no autosave while disabled, got %v", err)
	}
}

func TestKey(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(t)
	env.do(t, http.MethodPut, "/api/editor/"+id+"/content", contentRequest{Content: "word"})

	rec := env.do(t, http.MethodPost, "/api/editor/"+id+"/key", keyRequest{Key: "b", Primary: true, Start: 0, End: 4})
	var resp keyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Handled || resp.Content != "**word**" {
		t.Errorf("Expected bold shortcut, got %+v", resp)
	}

	rec = env.do(t, http.MethodPost, "/api/editor/"+id+"/key", keyRequest{Key: "s", Primary: true})
	resp = keyResponse{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Handled {
		t.Error("Expected save shortcut to be swallowed")
	}
	if len(env.articles.ListArticles()) != 0 {
		t.Error("Expected invalid document not to be published")
	}

	rec = env.do(t, http.MethodPost, "/api/editor/"+id+"/key", keyRequest{Key: "x", Primary: true})
	resp = keyResponse{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Handled {
		t.Error("Expected unbound key not to be handled")
	}
}

func TestCloseSessionWritesDraft(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(t)
	env.do(t, http.MethodPut, "/api/editor/"+id+"/content", contentRequest{Content: "half written"})

	rec := env.do(t, http.MethodDelete, "/api/editor/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}
	if _, ok := env.handler.Session(id); ok {
		t.Error("Expected session to be removed")
	}

	draft, err := env.drafts.GetDraft(context.Background(), id)
	if err != nil || draft.Text != "half written" {
		t.Fatalf("Expected draft on teardown, got %+v, %v", draft, err)
	}

	t.Run("reopen restores the draft", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/editor", createRequest{Article: id})
		if s := decodeState(t, rec); s.Content != "half written" {
			t.Errorf("Expected restored draft, got %q", s.Content)
		}
	})
}

func TestPartials(t *testing.T) {
	env := newTestEnv(t)
	id := env.create(t)
	env.do(t, http.MethodPut, "/api/editor/"+id+"/content", contentRequest{Content: "## Title\n**bold**"})

	rec := env.do(t, http.MethodGet, "/partials/editor/"+id+"/preview", nil)
	body := rec.Body.String()
	if !strings.Contains(body, `<h3 class="content-heading">Title</h3>`) || !strings.Contains(body, "<strong>bold</strong>") {
		t.Errorf("Unexpected preview %q", body)
	}

	rec = env.do(t, http.MethodGet, "/partials/editor/"+id+"/source", nil)
	if !strings.HasPrefix(rec.Body.String(), `<div class="source-view">`) {
		t.Errorf("Unexpected source view %q", rec.Body.String())
	}
}

func TestServeEditor(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/editor", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `data-command="bold"`) {
		t.Error("Expected toolbar commands in the editor page")
	}
	if env.handler.sessions.Len() != 1 {
		t.Errorf("Expected the page to open a session, got %d", env.handler.sessions.Len())
	}
}

func TestServeEvents(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.mux)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/sse?session=s1", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /sse: %v", err)
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	if line, _ := reader.ReadString('\n'); line != "event: connected\n" {
		t.Fatalf("Expected connected event, got %q", line)
	}

	deadline := time.Now().Add(2 * time.Second)
	for env.clients.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	env.clients.Observer("s1").Notify(editor.Event{Kind: editor.AutosaveSaved})

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("Stream ended before the event: %v", err)
		}
		if strings.HasPrefix(line, "data: {") {
			if line != "data: {\"event\":\"saved\"}\n" {
				t.Errorf("Unexpected event payload %q", line)
			}
			return
		}
	}
}

func TestServeEventsRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(t, http.MethodGet, "/sse", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestPreviewKeepsLatestRender(t *testing.T) {
	env := newTestEnv(t)
	cache.ClearRenderedPreviewCache()
	id := env.create(t)

	for _, text := range []string{"first draft", "second **draft**"} {
		env.do(t, http.MethodPut, "/api/editor/"+id+"/content", contentRequest{Content: text})
		rec := env.do(t, http.MethodGet, "/partials/editor/"+id+"/preview", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
	}

	if n := cache.RenderedPreviewCount(); n != 1 {
		t.Errorf("Expected one cached preview for the session, got %d", n)
	}
	cached, ok := cache.GetRenderedPreview(previewKey(id))
	if !ok || !strings.Contains(string(cached.HTML), "<strong>draft</strong>") {
		t.Errorf("Expected the latest render cached, got %q", cached.HTML)
	}

	env.do(t, http.MethodDelete, "/api/editor/"+id, nil)
	if n := cache.RenderedPreviewCount(); n != 0 {
		t.Errorf("Expected preview dropped with the session, got %d entries", n)
	}
}

func TestExpireIdle(t *testing.T) {
	env := newTestEnv(t)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	env.handler.opts.SessionIdle = time.Minute
	env.handler.opts.Now = func() time.Time { return now }

	stale := env.create(t)
	env.do(t, http.MethodPut, "/api/editor/"+stale+"/content", contentRequest{Content: "left behind"})

	now = now.Add(40 * time.Second)
	active := env.create(t)

	now = now.Add(30 * time.Second)
	if n := env.handler.ExpireIdle(context.Background()); n != 1 {
		t.Fatalf("Expected one idle session closed, got %d", n)
	}

	if _, ok := env.handler.Session(stale); ok {
		t.Error("Expected idle session to be unregistered")
	}
	if _, ok := env.handler.Session(active); !ok {
		t.Error("Expected recently used session to stay open")
	}

	draft, err := env.drafts.GetDraft(context.Background(), stale)
	if err != nil {
		t.Fatalf("Expected draft written for the idle session: %v", err)
	}
	if draft.Text != "left behind" {
		t.Errorf("Expected draft text kept, got %q", draft.Text)
	}

	rec := env.do(t, http.MethodGet, "/partials/editor/"+stale+"/preview", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for the expired session, got %d", rec.Code)
	}

	t.Run("Disabled without an idle period", func(t *testing.T) {
		env.handler.opts.SessionIdle = 0
		now = now.Add(time.Hour)
		if n := env.handler.ExpireIdle(context.Background()); n != 0 {
			t.Errorf("Expected nothing closed, got %d", n)
		}
	})
}
