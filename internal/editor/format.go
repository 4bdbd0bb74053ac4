package editor

import (
	"strings"
	"unicode/utf8"
)

// Apply runs cmd against text under sel and returns the new text and the
// caret position, both in runes. An out-of-range selection is clamped first.
// An invalid command leaves text untouched and returns the clamped selection end.
//
// With a non-empty selection the caret ends up right after the inserted
// decoration. With an empty selection a placeholder is inserted and the caret
// is pulled back into it.
func Apply(text string, sel Selection, cmd Command) (string, int) {
	runes := []rune(text)
	sel = sel.Clamp(len(runes))
	if !cmd.Valid() {
		return text, sel.End
	}
	r := rules[cmd]

	before, selected, after := sel.split(runes)

	body := selected
	if body == "" {
		body = r.placeholder
	}

	var b strings.Builder
	if r.lineBlock && before != "" && !strings.HasSuffix(before, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(r.prefix)
	b.WriteString(body)
	b.WriteString(r.suffix)
	if r.lineBlock && after != "" && !strings.HasPrefix(after, "\n") {
		b.WriteByte('\n')
	}
	inserted := b.String()

	caret := sel.Start + utf8.RuneCountInString(inserted)
	if selected == "" {
		caret -= r.caretBack
	}
	return before + inserted + after, caret
}
