// Package render turns an editor buffer into preview blocks and HTML.
package render

import (
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/inkwell/internal/cache"
	"github.com/debemdeboas/inkwell/internal/editor"
	"github.com/debemdeboas/inkwell/internal/util"
)

var renderLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

type Kind int

const (
	Empty Kind = iota
	Paragraph
	Heading
	Quote
	ListItem
	Image
	RawHTML
)

var kindNames = [...]string{
	Empty:     "empty",
	Paragraph: "paragraph",
	Heading:   "heading",
	Quote:     "quote",
	ListItem:  "list-item",
	Image:     "image",
	RawHTML:   "raw-html",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Block is one rendered source line. Content is the image reference for
// Image, the raw line for RawHTML, inline-formatted HTML for Paragraph and
// plain text otherwise. Empty blocks carry no content.
type Block struct {
	Kind    Kind
	Content string
}

const (
	headingPrefix = "## "
	quotePrefix   = "> "
	listPrefix    = "- "
)

var (
	regexImage  = regexp.MustCompile(`!\[Image\]\((.*?)\)`)
	regexStrong = regexp.MustCompile(`\*\*(.*?)\*\*`)
	regexEm     = regexp.MustCompile(`\*(.*?)\*`)
)

// Render splits text on newlines and classifies each line. The result has
// exactly one block per source line, in source order. CRLF counts as one
// newline; a lone CR is line content.
func Render(text string) []Block {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	blocks := make([]Block, 0, len(lines))
	for _, line := range lines {
		blocks = append(blocks, renderLine(line))
	}
	return blocks
}

func renderLine(line string) Block {
	// A token missing its closing paren does not match and falls through.
	if m := regexImage.FindStringSubmatch(line); m != nil {
		return Block{Kind: Image, Content: m[1]}
	}

	switch {
	case strings.HasPrefix(line, headingPrefix):
		return Block{Kind: Heading, Content: line[len(headingPrefix):]}
	case strings.HasPrefix(line, quotePrefix):
		return Block{Kind: Quote, Content: line[len(quotePrefix):]}
	case strings.HasPrefix(line, listPrefix):
		return Block{Kind: ListItem, Content: line[len(listPrefix):]}
	case strings.Contains(line, editor.AlignMarker):
		return Block{Kind: RawHTML, Content: line}
	}

	formatted := Inline(line)
	if strings.TrimSpace(formatted) == "" {
		return Block{Kind: Empty}
	}
	return Block{Kind: Paragraph, Content: formatted}
}

// Inline applies strong then emphasis substitution to a single line.
func Inline(line string) string {
	line = regexStrong.ReplaceAllString(line, "<strong>${1}</strong>")
	return regexEm.ReplaceAllString(line, "<em>${1}</em>")
}

// Mutex to protect the check-render-set operation in RenderCached
var renderCacheMutex sync.Mutex

// RenderCached returns the preview HTML for text under key, a session or
// article id. Only the latest render is kept per key, so an edit replaces the
// previous entry instead of adding one.
func RenderCached(key, text string) []byte {
	contentHash := util.ContentHashString(text)

	if cached, found := cache.GetRenderedPreview(key); found && cached.Hash == contentHash {
		renderLogger.Debug().Str("key", key).Str("contentHash", contentHash).Msg("Cache hit for rendered preview")
		return cached.HTML
	}

	renderLogger.Debug().Str("key", key).Str("contentHash", contentHash).Msg("Cache miss for rendered preview")
	renderCacheMutex.Lock()
	defer renderCacheMutex.Unlock()

	if cached, found := cache.GetRenderedPreview(key); found && cached.Hash == contentHash {
		return cached.HTML
	}

	html := HTML(Render(text))
	cache.SetRenderedPreview(key, cache.RenderedPreview{Hash: contentHash, HTML: html})
	return html
}

// Forget drops the cached preview for key.
func Forget(key string) {
	cache.DeleteRenderedPreview(key)
}
