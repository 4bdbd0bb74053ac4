// Package compression wraps the codecs used for stored article bodies.
package compression

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// ByName returns the compressor for a storage setting. Unknown names get zstd.
func ByName(name string) Compressor {
	switch name {
	case "gzip":
		return GzipCompressor{}
	case "none":
		return NoopCompressor{}
	default:
		return ZstdCompressor{}
	}
}

type NoopCompressor struct{}

func (NoopCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (NoopCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }
