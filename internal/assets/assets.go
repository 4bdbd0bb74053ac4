// Package assets turns dropped image files into references the editor can embed.
package assets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

var ErrNotImage = errors.New("asset is not an image")

var assetsLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	assetsLogger = l
}

// Store persists an image and returns the reference written into the buffer.
type Store interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// DetectImage sniffs data and returns its MIME type, or ErrNotImage.
func DetectImage(data []byte) (string, error) {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mime)
	}
	return mime, nil
}

// DataURIStore inlines the image as a base64 data URI.
type DataURIStore struct{}

func (DataURIStore) Put(_ context.Context, name string, data []byte) (string, error) {
	mime, err := DetectImage(data)
	if err != nil {
		return "", err
	}

	assetsLogger.Debug().Str("name", name).Str("mime", mime).Int("size", len(data)).Msg("Inlining image")
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
