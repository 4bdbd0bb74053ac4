package render

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightSource renders the raw buffer with markdown syntax colouring for
// the editor's source pane. On lexer or formatter failure the error is
// returned along with the unhighlighted text.
func HighlightSource(text, theme string) (string, error) {
	lexer := lexers.Get("markdown")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(theme)
	if style == nil {
		style = styles.Fallback
	}

	formatter := html.New(
		html.WithClasses(true),
		html.WithLineNumbers(true),
		html.PreventSurroundingPre(true),
	)

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text, err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return text, err
	}

	result := `<div class="source-view">` + buf.String() + `</div>`

	// Keep the buffer's line breaks visible without a surrounding <pre>.
	return strings.ReplaceAll(result, "\n", "<br>\n"), nil
}
