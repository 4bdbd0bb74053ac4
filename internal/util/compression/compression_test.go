package compression

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompressors(t *testing.T) {
	body := []byte(strings.Repeat("## Heading\nSome **bold** body text.\n", 50))

	for _, name := range []string{"zstd", "gzip", "none"} {
		t.Run(name, func(t *testing.T) {
			c := ByName(name)

			compressed, err := c.Compress(body)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			if name != "none" && len(compressed) >= len(body) {
				t.Errorf("Expected repetitive body to shrink, got %d >= %d", len(compressed), len(body))
			}

			out, err := c.Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(out, body) {
				t.Error("Expected decompressed body to match")
			}
		})
	}
}

func TestDecompressGarbage(t *testing.T) {
	if _, err := (ZstdCompressor{}).Decompress([]byte("not zstd")); err == nil {
		t.Error("Expected error decompressing garbage")
	}
	if _, err := (GzipCompressor{}).Decompress([]byte("not gzip")); err == nil {
		t.Error("Expected error decompressing garbage")
	}
}

func TestGzipCompressor(t *testing.T) {
	tests := []struct {
		name  string
		level int
		body  []byte
	}{
		{"default level", 0, []byte("## Title\n> quote\n- item\n")},
		{"best speed", 1, []byte(strings.Repeat("![Image](data:image/png;base64,AAAA)\n", 20))},
		{"empty body", 0, []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := GzipCompressor{Level: tt.level}

			compressed, err := c.Compress(tt.body)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			if len(compressed) < 2 || compressed[0] != 0x1f || compressed[1] != 0x8b {
				t.Errorf("Expected gzip magic header, got % x", compressed[:min(2, len(compressed))])
			}

			out, err := c.Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(out, tt.body) {
				t.Errorf("Expected %q, got %q", tt.body, out)
			}
		})
	}

	if _, err := (GzipCompressor{Level: 42}).Compress([]byte("x")); err == nil {
		t.Error("Expected invalid level to be rejected")
	}
}
