package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"logshelf/ingestion/parser"
)

// DefaultMaxLineBytes bounds a single physical line (stack trace lines can be long).
const DefaultMaxLineBytes = 1 << 20 // 1 MiB

// FileSource reads a static, fully written log file from the beginning on every Open.
// Files ending in ".gz" or ".zst" are decompressed on the fly.
type FileSource struct {
	Path         string
	MaxLineBytes int
}

// NewFileSource creates a FileSource; maxLineBytes <= 0 selects DefaultMaxLineBytes.
func NewFileSource(path string, maxLineBytes int) *FileSource {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	return &FileSource{Path: path, MaxLineBytes: maxLineBytes}
}

// Reader is one single-pass read of the file. It satisfies parser.Lines.
type Reader struct {
	*bufio.Scanner
	decoder io.Closer
	file    *os.File
}

// Close releases the decompressor, if any, and the underlying file.
func (r *Reader) Close() error {
	if r.decoder != nil {
		_ = r.decoder.Close()
	}
	return r.file.Close()
}

// decompress wraps f according to the file extension.
func decompress(path string, f *os.File) (io.Reader, io.Closer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr, nil
	case ".zst":
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, nil, err
		}
		rc := dec.IOReadCloser()
		return rc, rc, nil
	default:
		return f, nil, nil
	}
}

// Open starts a new pass over the file. Failures wrap parser.ErrSourceUnreadable.
func (s *FileSource) Open() (*Reader, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: open log file '%s': %v", parser.ErrSourceUnreadable, s.Path, err)
	}

	body, decoder, err := decompress(s.Path, f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: decompress log file '%s': %v", parser.ErrSourceUnreadable, s.Path, err)
	}

	maxLine := s.MaxLineBytes
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	initial := 64 * 1024
	if initial > maxLine {
		initial = maxLine
	}

	// ScanLines strips the trailing '\r' of CRLF files
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, initial), maxLine)

	return &Reader{Scanner: scanner, decoder: decoder, file: f}, nil
}

var _ parser.Lines = (*Reader)(nil) // Compile-time interface check
