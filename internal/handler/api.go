package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/debemdeboas/inkwell/internal/assets"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/editor"
	"github.com/debemdeboas/inkwell/internal/render"
	"github.com/debemdeboas/inkwell/internal/theme"
)

// State is the reply to every editing call.
type State struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	Caret      int    `json:"caret"`
	Words      int    `json:"words"`
	Characters int    `json:"characters"`
	ReadTime   string `json:"readTime"`
	Valid      bool   `json:"valid"`
	Autosave   bool   `json:"autosave"`
}

func state(s *editor.Session, caret int) State {
	doc := s.Document()
	m := s.Metrics()
	return State{
		ID:         s.ID(),
		Content:    doc.Text,
		Caret:      caret,
		Words:      m.Words,
		Characters: m.Characters,
		ReadTime:   doc.ReadTime,
		Valid:      editor.Valid(doc),
		Autosave:   s.AutosaveEnabled(),
	}
}

type createRequest struct {
	// Article resumes editing of a published article or its draft.
	Article string `json:"article"`
}

func (h *EditorHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	id := req.Article
	if id == "" {
		id = h.articles.NewArticleID()
	}

	s, err := h.open(r.Context(), id)
	if err != nil {
		handlerLogger.Error().Err(err).Str("session_id", id).Msg("Error opening session")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}

	setSessionCookie(w, id)
	writeJSON(w, http.StatusCreated, state(s, s.Selection().End))
}

type contentRequest struct {
	Content string `json:"content"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

func (h *EditorHandler) SetContent(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req contentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s.SetText(req.Content)
	s.Select(editor.Selection{Start: req.Start, End: req.End})
	writeJSON(w, http.StatusOK, state(s, s.Selection().End))
}

type formatRequest struct {
	Command string `json:"command"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

func (h *EditorHandler) Format(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req formatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cmd, ok := editor.ParseCommand(req.Command)
	if !ok {
		http.Error(w, config.ErrUnknownCommand, http.StatusBadRequest)
		return
	}

	s.Select(editor.Selection{Start: req.Start, End: req.End})
	caret := s.Apply(cmd)

	handlerLogger.Debug().Str("session_id", s.ID()).Stringer("command", cmd).Int("caret", caret).Msg("Formatting applied")
	writeJSON(w, http.StatusOK, state(s, caret))
}

// InsertAsset stores the uploaded image and inserts its token at "offset",
// or makes it the cover image when "cover" is set.
func (h *EditorHandler) InsertAsset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxAssetSize+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, config.ErrInvalidRequestBody, http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.opts.MaxAssetSize+1))
	if err != nil {
		http.Error(w, config.ErrInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if int64(len(data)) > h.opts.MaxAssetSize {
		http.Error(w, fmt.Sprintf("Images are limited to %d bytes", h.opts.MaxAssetSize), http.StatusRequestEntityTooLarge)
		return
	}

	ref, err := h.assets.Put(r.Context(), header.Filename, data)
	if errors.Is(err, assets.ErrNotImage) {
		http.Error(w, config.ErrAssetRejected, http.StatusUnsupportedMediaType)
		return
	}
	if err != nil {
		handlerLogger.Error().Err(err).Str("session_id", s.ID()).Str("file", header.Filename).Msg("Error storing asset")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}

	if cover, _ := strconv.ParseBool(r.FormValue("cover")); cover {
		s.SetCoverImage(ref)
		writeJSON(w, http.StatusOK, state(s, s.Selection().End))
		return
	}

	if offset, err := strconv.Atoi(r.FormValue("offset")); err == nil {
		s.Select(editor.Caret(offset))
	}
	caret := s.InsertAsset(ref)
	writeJSON(w, http.StatusOK, state(s, caret))
}

func (h *EditorHandler) SetMeta(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req editor.Metadata
	if !decodeJSON(w, r, &req) {
		return
	}

	s.SetMetadata(req)
	writeJSON(w, http.StatusOK, state(s, s.Selection().End))
}

type autosaveRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *EditorHandler) SetAutosave(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req autosaveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s.SetAutosave(req.Enabled)
	writeJSON(w, http.StatusOK, state(s, s.Selection().End))
}

type saveResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (h *EditorHandler) Save(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if _, err := s.Save(r.Context()); err != nil {
		if errors.Is(err, editor.ErrInvalidDocument) {
			http.Error(w, config.ErrInvalidDocument, http.StatusUnprocessableEntity)
			return
		}
		handlerLogger.Error().Err(err).Str("session_id", s.ID()).Msg("Error saving article")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, saveResponse{ID: s.ID(), URL: config.ArticlesUrlPath + s.ID()})
}

type keyRequest struct {
	Key     string `json:"key"`
	Primary bool   `json:"primary"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

type keyResponse struct {
	State
	Handled bool `json:"handled"`
}

func (h *EditorHandler) Key(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req keyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s.Select(editor.Selection{Start: req.Start, End: req.End})
	handled, err := s.HandleKey(r.Context(), req.Primary, req.Key)
	if err != nil {
		handlerLogger.Error().Err(err).Str("session_id", s.ID()).Msg("Error handling shortcut")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, keyResponse{State: state(s, s.Selection().End), Handled: handled})
}

func (h *EditorHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	h.drop(s.ID())
	if err := s.Close(r.Context()); err != nil {
		handlerLogger.Error().Err(err).Str("session_id", s.ID()).Msg("Error writing draft on close")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EditorHandler) ServePreview(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	w.Header().Set(config.HCType, config.CTypeHTML)
	w.WriteHeader(http.StatusOK)
	w.Write(render.RenderCached(previewKey(s.ID()), s.Document().Text))
}

func (h *EditorHandler) ServeSource(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	html, err := render.HighlightSource(s.Document().Text, theme.GetSyntaxThemeFromRequest(r))
	if err != nil {
		handlerLogger.Warn().Err(err).Str("session_id", s.ID()).Msg("Source highlighting failed")
	}

	w.Header().Set(config.HCType, config.CTypeHTML)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}
