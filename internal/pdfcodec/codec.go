// Package pdfcodec wraps the pdfcpu operations the pipeline needs: AES
// encryption and page-range splitting. It is the only package that talks to
// the PDF library for writing.
package pdfcodec

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Codec performs PDF write operations.
type Codec struct{}

// New returns a Codec.
func New() *Codec {
	return &Codec{}
}

// Encrypt writes an AES-256 encrypted copy of inPath to outPath with the
// given user (open) and owner (permissions) passwords. Extraction and
// modification permissions are withheld, matching the tool's "lock the
// output" intent.
func (c *Codec) Encrypt(inPath, outPath, userPassword, ownerPassword string) error {
	conf := model.NewAESConfiguration(userPassword, ownerPassword, 256)
	conf.Permissions = model.PermissionsNone
	if err := api.EncryptFile(inPath, outPath, conf); err != nil {
		return fmt.Errorf("encrypt %s: %w", inPath, err)
	}
	return nil
}

// Split writes inPath into chunks of pagesPerFile pages under outDir.
func (c *Codec) Split(inPath, outDir string, pagesPerFile int) error {
	if pagesPerFile <= 0 {
		return fmt.Errorf("pages per file must be positive, got %d", pagesPerFile)
	}
	if err := api.SplitFile(inPath, outDir, pagesPerFile, nil); err != nil {
		return fmt.Errorf("split %s: %w", inPath, err)
	}
	return nil
}
