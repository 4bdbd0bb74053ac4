// Package util provides content hashing and front matter parsing for imported articles.
package util

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/gomarkdown/markdown"
)

// FrontMatter is the TOML header of an imported article, delimited by %%%.
type FrontMatter struct {
	Title    string `toml:"title"`
	Excerpt  string `toml:"excerpt"`
	Category string `toml:"category"`
	Author   string `toml:"author"`
	Cover    string `toml:"cover"`

	// Consumed is the byte length of the header including delimiters.
	Consumed int `toml:"-"`
}

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func ContentHashString(content string) string {
	return ContentHash([]byte(content))
}

// GetFrontMatter decodes the %%% delimited TOML header at the top of md.
// Consumed is measured against the normalised, left-trimmed input; use
// SplitFrontMatter to get the body.
func GetFrontMatter(md []byte) (*FrontMatter, error) {
	md = markdown.NormalizeNewlines(md)
	md = bytes.TrimLeft(md, "\n \t\r")

	delimiter := []byte("%%%")

	// Check if md is long enough to contain the delimiter
	if len(md) < 2*len(delimiter) {
		return nil, fmt.Errorf("invalid front matter format")
	}

	if !bytes.HasPrefix(md, delimiter) {
		return nil, fmt.Errorf("invalid front matter format")
	}

	second := bytes.Index(md[len(delimiter):], delimiter)
	if second == -1 {
		return nil, fmt.Errorf("invalid front matter format")
	}

	end := second + 2*len(delimiter)
	header := md[len(delimiter) : end-len(delimiter)]

	info := &FrontMatter{}
	if _, err := toml.Decode(string(header), info); err != nil {
		return nil, fmt.Errorf("failed to decode front matter: %w", err)
	}

	if end < len(md) && md[end] == '\n' {
		end++
	}
	info.Consumed = end

	return info, nil
}

// SplitFrontMatter returns the header, if any, and the body that follows it.
// Without a valid header the whole normalised input is the body.
func SplitFrontMatter(md []byte) (*FrontMatter, []byte) {
	normalized := bytes.TrimLeft(markdown.NormalizeNewlines(md), "\n \t\r")

	info, err := GetFrontMatter(normalized)
	if err != nil {
		return nil, markdown.NormalizeNewlines(md)
	}
	return info, normalized[info.Consumed:]
}
