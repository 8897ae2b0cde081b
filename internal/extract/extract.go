// Package extract chooses between native PDF text extraction and OCR behind
// one facade. The facade never returns an error: backends degrade to the next
// one in line, and a file nobody can read yields an empty string, which
// callers treat as "no match possible".
package extract

import (
	"context"
	"fmt"

	"github.com/dharsanguruparan/RenameVault/internal/logging"
)

// Options control a single extraction call.
type Options struct {
	// ForceOCR skips native extraction entirely and goes straight to the
	// OCR provider when one is available.
	ForceOCR bool
	// StripWhitespace removes spaces from OCR output lines; scanned CJK
	// documents pick up spurious spacing otherwise.
	StripWhitespace bool
}

// NativeBackend extracts embedded text from a PDF.
type NativeBackend interface {
	Name() string
	ExtractText(path string) (string, error)
}

// OCRProvider recognizes text from rendered pages. It may be slow; no timeout
// is imposed here.
type OCRProvider interface {
	Name() string
	Available() bool
	ExtractText(ctx context.Context, path string, opts Options) (string, error)
}

// Facade runs the backend-selection algorithm. Backends are tried in the
// order given; the OCR provider is the fallback of last resort.
type Facade struct {
	backends []NativeBackend
	ocr      OCRProvider
}

// NewFacade builds a facade. ocr may be nil when no engine is installed.
func NewFacade(backends []NativeBackend, ocr OCRProvider) *Facade {
	return &Facade{backends: backends, ocr: ocr}
}

// OCRAvailable reports whether an OCR fallback exists.
func (f *Facade) OCRAvailable() bool {
	return f.ocr != nil && f.ocr.Available()
}

// Extract returns the text of the PDF at path, or "" when nothing can read
// it, plus whether the OCR engine produced that text. Backend errors are
// logged per backend and swallowed.
func (f *Facade) Extract(ctx context.Context, path string, opts Options) (string, bool) {
	if opts.ForceOCR && f.OCRAvailable() {
		return f.runOCR(ctx, path, opts), true
	}
	for _, b := range f.backends {
		text, err := safeExtract(b, path)
		if err != nil {
			logging.L.Warnf("%s: extract %s: %v", b.Name(), path, err)
			continue
		}
		if text != "" {
			return text, false
		}
	}
	if f.OCRAvailable() {
		return f.runOCR(ctx, path, opts), true
	}
	return "", false
}

func (f *Facade) runOCR(ctx context.Context, path string, opts Options) string {
	text, err := f.ocr.ExtractText(ctx, path, opts)
	if err != nil {
		logging.L.Warnf("%s: ocr %s: %v", f.ocr.Name(), path, err)
		return ""
	}
	return text
}

// safeExtract shields the facade from panics inside PDF parsers; malformed
// files are a routine input, not a crash.
func safeExtract(b NativeBackend, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", b.Name(), r)
		}
	}()
	return b.ExtractText(path)
}
