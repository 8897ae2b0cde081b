// Package action performs the rename/copy/encrypt step for a matched file:
// collision-free output naming, occupied-file fallback and the atomic relabel
// dance around encryption.
package action

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"

	"github.com/dharsanguruparan/RenameVault/internal/logging"
	"github.com/dharsanguruparan/RenameVault/internal/model"
	"github.com/dharsanguruparan/RenameVault/internal/rule"
)

// ErrTooManyCollisions means 100 numbered suffixes were already taken.
var ErrTooManyCollisions = errors.New("too many filename collisions")

// maxCollisionAttempts bounds the _1, _2, ... suffix search.
const maxCollisionAttempts = 100

// Mode selects whether the source is renamed or copied.
type Mode int

const (
	ModeRename Mode = iota
	ModeCopy
)

// Encryptor is the PDF codec surface the executor needs.
type Encryptor interface {
	Encrypt(inPath, outPath, userPassword, ownerPassword string) error
}

// Defaults are the process-wide fallback passwords. They are set once before
// the pool starts and read-only afterwards.
type Defaults struct {
	UserPassword  string
	OwnerPassword string
}

// Executor applies the matched rule's action to a source file.
type Executor struct {
	codec    Encryptor
	mode     Mode
	defaults Defaults
}

// NewExecutor builds an Executor.
func NewExecutor(codec Encryptor, mode Mode, defaults Defaults) *Executor {
	return &Executor{codec: codec, mode: mode, defaults: defaults}
}

// Execute produces the output file for sourcePath according to r. Any I/O
// failure yields a failed result with the triggering error; no partial state
// is left that would block a later attempt.
func (e *Executor) Execute(sourcePath string, r *rule.Rule) model.ProcessingResult {
	outPath, err := resolveCandidate(filepath.Dir(sourcePath), r.TargetName)
	if err != nil {
		logging.L.Warnf("no free name for %q near %s: %v", r.TargetName, sourcePath, err)
		return model.ProcessingResult{Path: sourcePath, Err: err}
	}

	var res model.ProcessingResult
	if r.Encrypt {
		res = e.encryptInto(sourcePath, outPath, r)
	} else {
		res = e.relocate(sourcePath, outPath)
	}
	if !res.Success {
		// Give the claimed name back; on failure nothing valid lives there.
		if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
			logging.L.Debugf("release claimed name %s: %v", outPath, err)
		}
	}
	return res
}

// encryptInto writes the encrypted copy to a temp sibling, then atomically
// relabels: source -> .bak, temp -> final, drop the .bak.
func (e *Executor) encryptInto(sourcePath, outPath string, r *rule.Rule) model.ProcessingResult {
	userPass := e.resolvePassword(r.UserPassword, e.defaults.UserPassword, "user")
	ownerPass := e.resolvePassword(r.OwnerPassword, e.defaults.OwnerPassword, "owner")

	tmpPath := outPath + ".tmp"
	if err := e.codec.Encrypt(sourcePath, tmpPath, userPass, ownerPass); err != nil {
		os.Remove(tmpPath)
		return model.ProcessingResult{Path: sourcePath, Err: err}
	}

	bakPath := sourcePath + ".bak"
	if err := os.Rename(sourcePath, bakPath); err != nil {
		os.Remove(tmpPath)
		return model.ProcessingResult{Path: sourcePath, Err: fmt.Errorf("stash original: %w", err)}
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		// Put the original back so the file is not lost behind a .bak name.
		if restoreErr := os.Rename(bakPath, sourcePath); restoreErr != nil {
			logging.L.Errorf("restore %s after failed relabel: %v", sourcePath, restoreErr)
		}
		os.Remove(tmpPath)
		return model.ProcessingResult{Path: sourcePath, Err: fmt.Errorf("relabel encrypted copy: %w", err)}
	}
	if err := os.Remove(bakPath); err != nil {
		// Not fatal; the rename already happened.
		logging.L.Warnf("remove backup %s: %v", bakPath, err)
	}
	logging.L.Infof("encrypted and renamed to %s", outPath)
	return model.ProcessingResult{Path: sourcePath, Success: true, NewPath: outPath}
}

// relocate renames or copies the source to outPath. A locked source silently
// upgrades rename to copy for this file; a failed same-volume rename falls
// back to copy-then-delete.
func (e *Executor) relocate(sourcePath, outPath string) model.ProcessingResult {
	mode := e.mode
	if mode == ModeRename && fileInUse(sourcePath) {
		logging.L.Warnf("%s is held open by another process, copying instead", sourcePath)
		mode = ModeCopy
	}

	if mode == ModeCopy {
		if err := copyFile(sourcePath, outPath); err != nil {
			return model.ProcessingResult{Path: sourcePath, Err: err}
		}
		logging.L.Infof("copied to %s", outPath)
		return model.ProcessingResult{Path: sourcePath, Success: true, NewPath: outPath}
	}

	if err := os.Rename(sourcePath, outPath); err != nil {
		// Cross-device renames fail; copy and best-effort delete the original.
		if copyErr := copyFile(sourcePath, outPath); copyErr != nil {
			return model.ProcessingResult{Path: sourcePath, Err: fmt.Errorf("rename: %v; copy fallback: %w", err, copyErr)}
		}
		if delErr := os.Remove(sourcePath); delErr != nil {
			logging.L.Warnf("delete original after copy fallback: %v", delErr)
		}
		logging.L.Infof("copied to %s (rename fallback)", outPath)
		return model.ProcessingResult{Path: sourcePath, Success: true, NewPath: outPath}
	}
	logging.L.Infof("renamed to %s", outPath)
	return model.ProcessingResult{Path: sourcePath, Success: true, NewPath: outPath}
}

// resolvePassword picks the effective password: explicit rule value, then the
// process default, then a fresh random one. Generation is always logged so
// the operator can still open the file.
func (e *Executor) resolvePassword(ruleValue, defaultValue, label string) string {
	if ruleValue != "" {
		return ruleValue
	}
	if defaultValue != "" {
		return defaultValue
	}
	generated := randomPassword(8)
	logging.L.Warnf("no %s password configured, generated: %s", label, generated)
	return generated
}

// resolveCandidate returns name.pdf in dir, or the first free name_N.pdf.
// The chosen name is claimed with an exclusive create so two workers
// resolving the same target concurrently get distinct names; the action then
// overwrites the empty placeholder.
func resolveCandidate(dir, name string) (string, error) {
	candidate := filepath.Join(dir, name+".pdf")
	if claim(candidate) {
		return candidate, nil
	}
	for i := 1; i <= maxCollisionAttempts; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d.pdf", name, i))
		if claim(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w for %q", ErrTooManyCollisions, name)
}

func claim(path string) bool {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}
	// Keep the original modification time, like a plain file copy would.
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		logging.L.Debugf("preserve mtime of %s: %v", dst, err)
	}
	return nil
}

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomPassword(length int) string {
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordAlphabet))))
		if err != nil {
			// crypto/rand failing is effectively unrecoverable; fall back to
			// a fixed character rather than aborting the file.
			buf[i] = 'x'
			continue
		}
		buf[i] = passwordAlphabet[n.Int64()]
	}
	return string(buf)
}
