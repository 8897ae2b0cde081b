package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/RenameVault/internal/action"
	"github.com/dharsanguruparan/RenameVault/internal/extract"
	"github.com/dharsanguruparan/RenameVault/internal/rule"
)

type rawTextBackend struct{ calls int }

func (b *rawTextBackend) Name() string { return "raw" }
func (b *rawTextBackend) ExtractText(path string) (string, error) {
	b.calls++
	data, err := os.ReadFile(path)
	return string(data), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newProcessor(backend extract.NativeBackend, rules []rule.Rule) *Processor {
	facade := extract.NewFacade([]extract.NativeBackend{backend}, nil)
	executor := action.NewExecutor(nil, action.ModeRename, action.Defaults{})
	return NewProcessor(facade, rules, executor, extract.Options{}, false)
}

func TestProcessNoMatch(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "doc.pdf", "irrelevant content")
	proc := newProcessor(&rawTextBackend{}, []rule.Rule{
		rule.New(`will-not-appear`, "out", rule.TargetContent, 1, "", ""),
	})

	res := proc.Process(context.Background(), src)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrNoMatch)
	assert.FileExists(t, src, "unmatched files stay in place")
}

func TestProcessRenamesFirstMatch(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "doc.pdf", "invoice 99")
	proc := newProcessor(&rawTextBackend{}, []rule.Rule{
		rule.New(`invoice \d+`, "matched", rule.TargetContent, 1, "", ""),
		rule.New(`invoice`, "shadowed", rule.TargetContent, 1, "", ""),
	})

	res := proc.Process(context.Background(), src)
	require.True(t, res.Success, "process failed: %v", res.Err)
	assert.Equal(t, filepath.Join(dir, "matched.pdf"), res.NewPath)
	assert.NoFileExists(t, filepath.Join(dir, "shadowed.pdf"))
}

func TestProcessExtractsContentOnce(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "doc.pdf", "target text")
	backend := &rawTextBackend{}
	proc := newProcessor(backend, []rule.Rule{
		rule.New(`absent-one`, "a", rule.TargetContent, 1, "", ""),
		rule.New(`absent-two`, "b", rule.TargetContent, 1, "", ""),
		rule.New(`target`, "c", rule.TargetContent, 1, "", ""),
	})

	res := proc.Process(context.Background(), src)
	require.True(t, res.Success, "process failed: %v", res.Err)
	assert.Equal(t, 1, backend.calls, "content must be extracted once and reused across rules")
}

type staticOCR struct{ text string }

func (o staticOCR) Name() string    { return "static-ocr" }
func (o staticOCR) Available() bool { return true }
func (o staticOCR) ExtractText(ctx context.Context, path string, opts extract.Options) (string, error) {
	return o.text, nil
}

func TestProcessSavesSidecarForOCRFallbackText(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "scan.pdf", "")
	facade := extract.NewFacade([]extract.NativeBackend{&rawTextBackend{}}, staticOCR{text: "agreement 7"})
	executor := action.NewExecutor(nil, action.ModeRename, action.Defaults{})
	rules := []rule.Rule{rule.New(`agreement \d+`, "agreement", rule.TargetContent, 1, "", "")}
	proc := NewProcessor(facade, rules, executor, extract.Options{}, true)

	res := proc.Process(context.Background(), src)
	require.True(t, res.Success, "process failed: %v", res.Err)

	// The text came from OCR even though OCR was not forced, so the sidecar
	// is written next to the output.
	data, err := os.ReadFile(filepath.Join(dir, "agreement_ocr.txt"))
	require.NoError(t, err)
	assert.Equal(t, "\uFEFF"+"agreement 7", string(data))
}

func TestProcessNoSidecarForNativeText(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "doc.pdf", "agreement 7")
	facade := extract.NewFacade([]extract.NativeBackend{&rawTextBackend{}}, staticOCR{text: "unused"})
	executor := action.NewExecutor(nil, action.ModeRename, action.Defaults{})
	rules := []rule.Rule{rule.New(`agreement \d+`, "agreement", rule.TargetContent, 1, "", "")}
	proc := NewProcessor(facade, rules, executor, extract.Options{}, true)

	res := proc.Process(context.Background(), src)
	require.True(t, res.Success, "process failed: %v", res.Err)
	assert.NoFileExists(t, filepath.Join(dir, "agreement_ocr.txt"))
}

func TestProcessFilenameRuleSkipsExtraction(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "scan_0042.pdf", "body")
	backend := &rawTextBackend{}
	proc := newProcessor(backend, []rule.Rule{
		rule.New(`scan_\d+`, "byname", rule.TargetFilename, 1, "", ""),
	})

	res := proc.Process(context.Background(), src)
	require.True(t, res.Success, "process failed: %v", res.Err)
	assert.Zero(t, backend.calls, "filename-only rule sets must never extract content")
}
