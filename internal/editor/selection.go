package editor

// Selection is a half-open range [Start, End) of rune offsets into the buffer.
// Start == End is a caret with nothing selected.
type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func Caret(pos int) Selection {
	return Selection{Start: pos, End: pos}
}

// Clamp pulls both ends into [0, length]. A reversed range is swapped so the
// selected text survives.
func (s Selection) Clamp(length int) Selection {
	s.Start = clampOffset(s.Start, length)
	s.End = clampOffset(s.End, length)
	if s.End < s.Start {
		s.Start, s.End = s.End, s.Start
	}
	return s
}

func (s Selection) Empty() bool {
	return s.Start == s.End
}

// Text returns the selected runes of text after clamping.
func (s Selection) Text(text string) string {
	_, selected, _ := s.split([]rune(text))
	return selected
}

// split returns the text before, inside and after the clamped selection.
func (s Selection) split(runes []rune) (before, selected, after string) {
	s = s.Clamp(len(runes))
	return string(runes[:s.Start]), string(runes[s.Start:s.End]), string(runes[s.End:])
}

func clampOffset(pos, length int) int {
	if pos < 0 {
		return 0
	}
	if pos > length {
		return length
	}
	return pos
}
