// Package pipeline composes one file's processing stages: extract content,
// find the first matching rule, apply its action. Stages are strictly
// sequential within a file; the worker pool provides the parallelism between
// files.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dharsanguruparan/RenameVault/internal/action"
	"github.com/dharsanguruparan/RenameVault/internal/extract"
	"github.com/dharsanguruparan/RenameVault/internal/logging"
	"github.com/dharsanguruparan/RenameVault/internal/model"
	"github.com/dharsanguruparan/RenameVault/internal/rule"
)

// ErrNoMatch is the failure recorded when no rule claims the file.
var ErrNoMatch = errors.New("no matching rule")

// Processor runs the per-file pipeline. It is shared by all workers: every
// field is read-only after construction.
type Processor struct {
	facade      *extract.Facade
	rules       []rule.Rule
	executor    *action.Executor
	opts        extract.Options
	saveOCRText bool
}

// NewProcessor builds a Processor.
func NewProcessor(facade *extract.Facade, rules []rule.Rule, executor *action.Executor, opts extract.Options, saveOCRText bool) *Processor {
	return &Processor{
		facade:      facade,
		rules:       rules,
		executor:    executor,
		opts:        opts,
		saveOCRText: saveOCRText,
	}
}

// Process runs extraction, matching and the file action for one path.
func (p *Processor) Process(ctx context.Context, path string) model.ProcessingResult {
	src := newLazySource(ctx, path, p.facade, p.opts)

	matched, count, ok := rule.Match(p.rules, src)
	if !ok {
		return model.ProcessingResult{Path: path, Err: ErrNoMatch}
	}
	logging.L.Debugf("%s matched %q on %s (%d occurrence(s))", path, matched.RawPattern, matched.TargetKind, count)

	res := p.executor.Execute(path, matched)
	if res.Success && p.saveOCRText && src.viaOCR {
		p.writeTextSidecar(res, src.content)
	}
	return res
}

// writeTextSidecar stores the recognized text next to the output so the OCR
// pass does not have to run again. Failure is logged only.
func (p *Processor) writeTextSidecar(res model.ProcessingResult, text string) {
	target := res.NewPath
	if target == "" {
		target = res.Path
	}
	sidecar := strings.TrimSuffix(target, filepath.Ext(target)) + "_ocr.txt"
	if err := os.WriteFile(sidecar, []byte("\uFEFF"+text), 0o644); err != nil {
		logging.L.Warnf("save ocr text for %s: %v", target, err)
		return
	}
	logging.L.Infof("ocr text saved to %s", sidecar)
}

// lazySource resolves content kinds on demand and memoizes them, so filename
// rules never pay for extraction and content is extracted at most once per
// file no matter how many rules ask for it.
type lazySource struct {
	ctx    context.Context
	path   string
	facade *extract.Facade
	opts   extract.Options

	content        string
	contentLoaded  bool
	viaOCR         bool
	metadata       string
	metadataLoaded bool
}

func newLazySource(ctx context.Context, path string, facade *extract.Facade, opts extract.Options) *lazySource {
	return &lazySource{ctx: ctx, path: path, facade: facade, opts: opts}
}

func (s *lazySource) Content() string {
	if !s.contentLoaded {
		s.content, s.viaOCR = s.facade.Extract(s.ctx, s.path, s.opts)
		s.contentLoaded = true
		if s.content == "" {
			logging.L.Debugf("no text extracted from %s", s.path)
		}
	}
	return s.content
}

func (s *lazySource) Filename() string {
	return filepath.Base(s.path)
}

func (s *lazySource) Metadata() string {
	if !s.metadataLoaded {
		s.metadata = extract.Metadata(s.path)
		s.metadataLoaded = true
	}
	return s.metadata
}

// Describe renders a one-line summary for diagnostics.
func Describe(res model.ProcessingResult) string {
	if res.Success {
		return fmt.Sprintf("done: %s", res.NewPath)
	}
	if res.Err != nil {
		return res.Err.Error()
	}
	return "failed"
}
