package editor

import "unicode/utf8"

// ImageToken is the fenced reference line for an embedded asset.
func ImageToken(ref string) string {
	return "![Image](" + ref + ")"
}

// InsertAsset splices the image token for ref into text at offset, always
// surrounded by newlines, and returns the caret just past the inserted block.
// ref is opaque and is not validated.
func InsertAsset(text string, offset int, ref string) (string, int) {
	runes := []rune(text)
	offset = clampOffset(offset, len(runes))

	token := "\n" + ImageToken(ref) + "\n"
	return string(runes[:offset]) + token + string(runes[offset:]),
		offset + utf8.RuneCountInString(token)
}
