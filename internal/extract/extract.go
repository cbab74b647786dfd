// ABOUTME: Turns uploaded files into plain text for chunking
// ABOUTME: Accepts UTF-8 text and markdown; everything else is unreadable
package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/harper/ragdoc/internal/models"
)

// MaxDocumentBytes bounds how much of an upload is read
const MaxDocumentBytes = 20 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor produces the text of a named document
type Extractor interface {
	Extract(name string, r io.Reader) (string, error)
}

// PlainText handles .txt, .text, .md, .markdown and files without an extension
type PlainText struct{}

var supported = map[string]bool{
	"":          true,
	".txt":      true,
	".text":     true,
	".md":       true,
	".markdown": true,
}

// Supported reports whether PlainText accepts a file with this name
func Supported(name string) bool {
	return supported[strings.ToLower(filepath.Ext(name))]
}

// Extract reads r fully. Failures wrap ErrDocumentUnreadable.
func (PlainText) Extract(name string, r io.Reader) (string, error) {
	if !Supported(name) {
		return "", fmt.Errorf("%w: unsupported file type %q", models.ErrDocumentUnreadable, filepath.Ext(name))
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %w", models.ErrDocumentUnreadable, name, err)
	}
	if len(data) > MaxDocumentBytes {
		return "", fmt.Errorf("%w: %s is larger than %d bytes", models.ErrDocumentUnreadable, name, MaxDocumentBytes)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8 text", models.ErrDocumentUnreadable, name)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("%w: %s is empty", models.ErrDocumentUnreadable, name)
	}
	return string(data), nil
}

// ExtractFile opens path and extracts it with PlainText
func ExtractFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrDocumentUnreadable, err)
	}
	defer func() { _ = f.Close() }()

	return PlainText{}.Extract(filepath.Base(path), f)
}
