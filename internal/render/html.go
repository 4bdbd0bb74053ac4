package render

import (
	"bytes"
	"fmt"
	"html"
)

// HTML writes blocks as an HTML fragment. Paragraph and raw blocks are
// written as is; the other kinds are plain text and get escaped.
func HTML(blocks []Block) []byte {
	var buf bytes.Buffer
	for _, b := range blocks {
		writeBlock(&buf, b)
	}
	return buf.Bytes()
}

func writeBlock(buf *bytes.Buffer, b Block) {
	switch b.Kind {
	case Paragraph:
		fmt.Fprintf(buf, "<p>%s</p>\n", b.Content)
	case Heading:
		fmt.Fprintf(buf, "<h3 class=\"content-heading\">%s</h3>\n", html.EscapeString(b.Content))
	case Quote:
		fmt.Fprintf(buf, "<blockquote class=\"content-quote\">%s</blockquote>\n", html.EscapeString(b.Content))
	case ListItem:
		fmt.Fprintf(buf, "<li class=\"content-list-item\">%s</li>\n", html.EscapeString(b.Content))
	case Image:
		fmt.Fprintf(buf,
			"<div class=\"content-image-container\"><img src=\"%s\" alt=\"Article content\" class=\"content-image\"></div>\n",
			html.EscapeString(b.Content))
	case RawHTML:
		fmt.Fprintf(buf, "<div>%s</div>\n", b.Content)
	}
}
