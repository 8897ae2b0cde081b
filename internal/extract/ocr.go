package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dharsanguruparan/RenameVault/internal/logging"
)

// TesseractProvider drives an external OCR engine: pdftoppm renders each page
// to a grayscale PNG at 300 dpi inside a scoped temp directory, tesseract
// recognizes each image. The temp directory is removed on every exit path.
type TesseractProvider struct {
	PdftoppmBin  string
	TesseractBin string
	Language     string
}

// NewTesseractProvider returns a provider with the given recognition
// language (tesseract language code, e.g. "eng" or "chi_tra").
func NewTesseractProvider(language string) *TesseractProvider {
	if language == "" {
		language = "eng"
	}
	return &TesseractProvider{
		PdftoppmBin:  "pdftoppm",
		TesseractBin: "tesseract",
		Language:     language,
	}
}

// Name implements OCRProvider.
func (p *TesseractProvider) Name() string { return "tesseract" }

// Available reports whether both external binaries are on PATH.
func (p *TesseractProvider) Available() bool {
	if _, err := exec.LookPath(p.PdftoppmBin); err != nil {
		return false
	}
	if _, err := exec.LookPath(p.TesseractBin); err != nil {
		return false
	}
	return true
}

// ExtractText implements OCRProvider.
func (p *TesseractProvider) ExtractText(ctx context.Context, path string, opts Options) (string, error) {
	tmpDir, err := os.MkdirTemp("", "renamevault-ocr-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			logging.L.Warnf("clean ocr temp dir: %v", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	render := exec.CommandContext(ctx, p.PdftoppmBin, "-r", "300", "-gray", "-png", path, prefix)
	if out, err := render.CombinedOutput(); err != nil {
		return "", fmt.Errorf("render pages: %w: %s", err, strings.TrimSpace(string(out)))
	}

	images, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return "", fmt.Errorf("list rendered pages: %w", err)
	}
	sort.Strings(images)
	if len(images) == 0 {
		return "", fmt.Errorf("no pages rendered for %s", path)
	}

	var builder strings.Builder
	for i, img := range images {
		recognize := exec.CommandContext(ctx, p.TesseractBin, img, "stdout", "-l", p.Language)
		out, err := recognize.Output()
		if err != nil {
			// A single unreadable page should not sink the document.
			logging.L.Warnf("ocr page %d of %s: %v", i+1, path, err)
			continue
		}
		pageText := string(out)
		if opts.StripWhitespace {
			pageText = stripSpaces(pageText)
		}
		builder.WriteString(pageText)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

// stripSpaces removes spaces inside lines but keeps line structure.
func stripSpaces(text string) string {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.ReplaceAll(lines[i], " ", "")
	}
	return strings.Join(lines, "\n")
}
