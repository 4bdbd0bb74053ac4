package editor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var editorLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	editorLogger = l
}

// DraftStore keeps unfinished drafts. Autosave and teardown write to it; an
// explicit save clears it.
type DraftStore interface {
	SaveDraft(ctx context.Context, id string, doc Document) error
	DeleteDraft(ctx context.Context, id string) error
}

// Publisher receives the finished document on explicit save.
type Publisher interface {
	SaveArticle(ctx context.Context, id string, doc Document) error
}

type Options struct {
	WordsPerMinute int

	Autosave      bool
	AutosaveDelay time.Duration
	AfterFunc     AfterFunc

	Drafts    DraftStore
	Publisher Publisher
	Observer  Observer
}

type Metadata struct {
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	Category string `json:"category"`
	Author   string `json:"author"`
}

// Session is one editing surface over one document. Mutations are serialised;
// the only other goroutine touching the document is the autosave tick, which
// reads a copy.
type Session struct {
	mu  sync.Mutex
	id  string
	doc Document
	sel Selection
	wpm int

	drafts    DraftStore
	publisher Publisher
	observer  Observer
	autosave  *Autosave
	closed    bool
}

func NewSession(id string, doc Document, opts Options) *Session {
	if opts.WordsPerMinute <= 0 {
		opts.WordsPerMinute = DefaultWordsPerMinute
	}

	s := &Session{
		id:        id,
		doc:       NewDocument(doc),
		wpm:       opts.WordsPerMinute,
		drafts:    opts.Drafts,
		publisher: opts.Publisher,
		observer:  opts.Observer,
	}
	s.autosave = NewAutosave(s.snapshot, AutosaveOptions{
		Enabled:   opts.Autosave,
		Delay:     opts.AutosaveDelay,
		Store:     opts.Drafts,
		Observer:  opts.Observer,
		AfterFunc: opts.AfterFunc,
	})
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Document returns a copy of the current document.
func (s *Session) Document() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// Select records the active selection, clamped to the current text.
func (s *Session) Select(sel Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel = sel.Clamp(s.textLen())
}

func (s *Session) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Measure(s.doc.Text, s.wpm)
}

// SetText replaces the body, as typing does. The caret moves to the end when
// the previous selection no longer fits.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	s.setTextLocked(text)
	s.sel = s.sel.Clamp(s.textLen())
	s.mu.Unlock()

	s.autosave.Schedule()
}

// Apply runs cmd on the current selection and leaves the caret where the
// formatting engine puts it. It returns the new caret.
func (s *Session) Apply(cmd Command) int {
	s.mu.Lock()
	if !cmd.Valid() {
		caret := s.sel.End
		s.mu.Unlock()
		return caret
	}
	text, caret := Apply(s.doc.Text, s.sel, cmd)
	s.setTextLocked(text)
	s.sel = Caret(caret)
	s.mu.Unlock()

	editorLogger.Debug().Str("session_id", s.id).Stringer("command", cmd).Int("caret", caret).Msg("Applied formatting")
	s.autosave.Schedule()
	return caret
}

// InsertAsset embeds ref at the start of the current selection.
func (s *Session) InsertAsset(ref string) int {
	s.mu.Lock()
	text, caret := InsertAsset(s.doc.Text, s.sel.Start, ref)
	s.setTextLocked(text)
	s.sel = Caret(caret)
	s.mu.Unlock()

	s.autosave.Schedule()
	return caret
}

// SetMetadata updates the sibling fields. Empty category and author fall back
// to their defaults.
func (s *Session) SetMetadata(m Metadata) {
	s.mu.Lock()
	s.doc.Title = m.Title
	s.doc.Excerpt = m.Excerpt
	s.doc.Category = m.Category
	s.doc.Author = m.Author
	s.doc = NewDocument(s.doc)
	s.mu.Unlock()

	s.autosave.Schedule()
}

func (s *Session) SetCoverImage(ref string) {
	s.mu.Lock()
	s.doc.CoverImageRef = ref
	s.mu.Unlock()

	s.autosave.Schedule()
}

// SetAutosave turns autosave on or off. Turning it on arms a tick right away,
// so an idle valid document is saved after one quiet period. A closed session
// never autosaves again.
func (s *Session) SetAutosave(enabled bool) {
	s.autosave.Configure(enabled)
	if enabled {
		s.autosave.Schedule()
	}
}

func (s *Session) AutosaveEnabled() bool {
	return s.autosave.Enabled()
}

func (s *Session) AutosaveState() AutosaveState {
	return s.autosave.State()
}

// Save hands the document to the publisher and clears the draft. An invalid
// document is refused with ErrInvalidDocument and nothing is written.
func (s *Session) Save(ctx context.Context) (Document, error) {
	doc := s.Document()
	if !Valid(doc) {
		return doc, ErrInvalidDocument
	}
	if s.publisher == nil {
		return doc, fmt.Errorf("session %s has no publisher", s.id)
	}

	s.autosave.Cancel()

	if err := s.publisher.SaveArticle(ctx, s.id, doc); err != nil {
		return doc, fmt.Errorf("error saving article %s: %w", s.id, err)
	}

	if s.drafts != nil {
		if err := s.drafts.DeleteDraft(ctx, s.id); err != nil {
			editorLogger.Warn().Err(err).Str("session_id", s.id).Msg("Error clearing draft after save")
		}
	}

	editorLogger.Info().Str("session_id", s.id).Str("title", doc.Title).Msg("Article saved")
	if s.observer != nil {
		s.observer.Notify(Event{Kind: DocumentSaved})
	}
	return doc, nil
}

// Close tears the session down. A document with content is kept as a draft.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	doc := s.doc
	s.mu.Unlock()

	s.autosave.Stop()

	if s.drafts == nil || !HasDraft(doc) {
		return nil
	}
	if err := s.drafts.SaveDraft(ctx, s.id, doc); err != nil {
		return fmt.Errorf("error saving draft %s on close: %w", s.id, err)
	}
	return nil
}

func (s *Session) snapshot() (string, Document) {
	return s.id, s.Document()
}

func (s *Session) setTextLocked(text string) {
	s.doc.Text = text
	s.doc.ReadTime = Measure(text, s.wpm).ReadTime
}

func (s *Session) textLen() int {
	return len([]rune(s.doc.Text))
}
