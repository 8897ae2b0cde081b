// Package main is the RenameVault CLI: batch rename/copy/encrypt of PDF
// files driven by regex rules over their extracted text, filename or
// metadata.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/RenameVault/internal/action"
	"github.com/dharsanguruparan/RenameVault/internal/config"
	"github.com/dharsanguruparan/RenameVault/internal/extract"
	"github.com/dharsanguruparan/RenameVault/internal/logging"
	"github.com/dharsanguruparan/RenameVault/internal/pdfcodec"
	"github.com/dharsanguruparan/RenameVault/internal/pipeline"
	"github.com/dharsanguruparan/RenameVault/internal/progress"
	"github.com/dharsanguruparan/RenameVault/internal/rule"
	"github.com/dharsanguruparan/RenameVault/internal/store"
	"github.com/dharsanguruparan/RenameVault/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "renamevault: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "renamevault",
		Short: "Rename, copy or encrypt batches of PDF files by content rules",
		Long: `RenameVault scans a directory of PDF files, matches each file against an
ordered list of regex rules (over extracted text, the filename, or PDF
metadata, with OCR fallback for scanned documents) and renames, copies or
encrypts the first match's output accordingly.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newRunCmd(),
		newSplitCmd(),
		newExtractCmd(),
	)
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		rulesPath     string
		workers       int
		copyMode      bool
		useOCR        bool
		stripSpaces   bool
		saveOCRText   bool
		language      string
		userPassword  string
		ownerPassword string
		skipExport    bool
	)
	cmd := &cobra.Command{
		Use:   "run <directory>",
		Short: "Process every PDF in a directory against the rule set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logging.Init(cfg.LogLevel)

			if workers == 0 {
				workers = cfg.Workers
			}
			if language == "" {
				language = cfg.OCRLanguage
			}

			rules, err := rule.LoadCSV(rulesPath)
			if err != nil {
				return fmt.Errorf("load rules: %w", err)
			}

			files, err := discoverPDFs(args[0])
			if err != nil {
				return err
			}
			if len(files) == 0 {
				logging.L.Infof("no PDF files found in %s", args[0])
				return nil
			}

			ocr := extract.NewTesseractProvider(language)
			if !ocr.Available() {
				if useOCR {
					return fmt.Errorf("--ocr requested but no OCR engine found (need %s and %s on PATH)", ocr.PdftoppmBin, ocr.TesseractBin)
				}
				logging.L.Warn("no OCR engine found, scanned documents will extract as empty")
			}
			facade := extract.NewFacade([]extract.NativeBackend{extract.PlainTextBackend{}}, ocr)

			st, err := store.Open(cfg.StatusDBPath)
			if err != nil {
				return fmt.Errorf("open status store: %w", err)
			}
			exportDir := ""
			if cfg.ExportEnabled && !skipExport {
				exportDir = cfg.ExportDir
			}
			defer func() {
				if err := st.Close(exportDir); err != nil {
					logging.L.Warnf("close status store: %v", err)
				}
			}()

			mode := action.ModeRename
			if copyMode {
				mode = action.ModeCopy
			}
			executor := action.NewExecutor(pdfcodec.New(), mode, action.Defaults{
				UserPassword:  userPassword,
				OwnerPassword: ownerPassword,
			})
			proc := pipeline.NewProcessor(facade, rules, executor, extract.Options{
				ForceOCR:        useOCR,
				StripWhitespace: stripSpaces,
			}, saveOCRText)

			reporter := progress.New(st, os.Stdout, cfg.ProgressInterval)
			reporter.Start()

			pool := worker.NewPool(st, workers)
			logging.L.Infof("processing %d file(s) with %d worker(s)", len(files), pool.Workers())
			success := pool.Run(ctx, files, proc.Process)

			reporter.Stop()
			logging.L.Infof("run complete: %d/%d file(s) succeeded", success, len(files))
			if exportDir != "" {
				if path, err := logging.ExportCSV(exportDir); err != nil {
					logging.L.Warnf("export run log: %v", err)
				} else {
					logging.L.Infof("run log exported to %s", path)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&rulesPath, "rules", "r", "rules.csv", "CSV rule file (pattern,name,target_kind,min_occurrences,user_pass,owner_pass)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Worker count (0 picks from CPU count; capped at min(2*CPU, 16))")
	cmd.Flags().BoolVar(&copyMode, "copy", false, "Copy matched files instead of renaming them")
	cmd.Flags().BoolVar(&useOCR, "ocr", false, "Force OCR for every file, skipping native text extraction")
	cmd.Flags().BoolVar(&stripSpaces, "strip-whitespace", false, "Remove spaces from OCR output lines before matching")
	cmd.Flags().BoolVar(&saveOCRText, "save-ocr-text", false, "Write recognized text next to each successful output")
	cmd.Flags().StringVar(&language, "lang", "", "OCR language code (default from config, eng)")
	cmd.Flags().StringVar(&userPassword, "user-pass", "", "Default user (open) password for encrypting rules")
	cmd.Flags().StringVar(&ownerPassword, "owner-pass", "", "Default owner (permissions) password for encrypting rules")
	cmd.Flags().BoolVar(&skipExport, "no-export", false, "Skip the status/log CSV export at teardown")
	return cmd
}

func newSplitCmd() *cobra.Command {
	var (
		pagesPerFile int
		outputDir    string
	)
	cmd := &cobra.Command{
		Use:   "split <file.pdf>",
		Short: "Split a PDF into fixed-size page chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logging.Init(cfg.LogLevel)

			if outputDir == "" {
				outputDir = filepath.Dir(args[0])
			}
			if err := pdfcodec.New().Split(args[0], outputDir, pagesPerFile); err != nil {
				return err
			}
			logging.L.Infof("split %s into %d-page chunks under %s", args[0], pagesPerFile, outputDir)
			return nil
		},
	}
	cmd.Flags().IntVarP(&pagesPerFile, "pages", "p", 1, "Pages per output file")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: alongside the source)")
	return cmd
}

func newExtractCmd() *cobra.Command {
	var (
		useOCR      bool
		stripSpaces bool
		language    string
	)
	cmd := &cobra.Command{
		Use:   "extract <file.pdf>",
		Short: "Print the text the matcher would see for one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logging.Init(cfg.LogLevel)
			if language == "" {
				language = cfg.OCRLanguage
			}

			ocr := extract.NewTesseractProvider(language)
			if useOCR && !ocr.Available() {
				return fmt.Errorf("--ocr requested but no OCR engine found")
			}
			facade := extract.NewFacade([]extract.NativeBackend{extract.PlainTextBackend{}}, ocr)
			text, _ := facade.Extract(cmd.Context(), args[0], extract.Options{
				ForceOCR:        useOCR,
				StripWhitespace: stripSpaces,
			})
			if text == "" {
				logging.L.Warnf("no text extracted from %s", args[0])
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&useOCR, "ocr", false, "Force OCR extraction")
	cmd.Flags().BoolVar(&stripSpaces, "strip-whitespace", false, "Remove spaces from OCR output lines")
	cmd.Flags().StringVar(&language, "lang", "", "OCR language code")
	return cmd
}

// discoverPDFs lists the .pdf files directly inside dir, sorted for a stable
// submission order.
func discoverPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
