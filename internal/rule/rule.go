// Package rule holds the user-defined matching directives and the first-match
// evaluation over extracted content. Rules are built once at startup and are
// read-only afterwards, so workers share them without locking.
package rule

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/dharsanguruparan/RenameVault/internal/logging"
)

// TargetKind selects which extracted string a rule matches against.
type TargetKind string

const (
	TargetContent  TargetKind = "content"
	TargetFilename TargetKind = "filename"
	TargetMetadata TargetKind = "metadata"
)

// neverMatch can match no input; it stands in for invalid user patterns so a
// single bad rule does not abort loading the rest of the set.
var neverMatch = regexp.MustCompile(`\za`)

// Rule is one matching/renaming directive.
type Rule struct {
	Pattern        *regexp.Regexp
	RawPattern     string
	TargetKind     TargetKind
	TargetName     string
	MinOccurrences int
	UserPassword   string
	OwnerPassword  string
	// Encrypt is derived at load time from whether either password column
	// was supplied.
	Encrypt bool
}

// New compiles a rule. An invalid pattern is replaced with a never-matching
// one and logged; the rule stays in the set as a no-op.
func New(pattern, targetName string, kind TargetKind, minOccurrences int, userPass, ownerPass string) Rule {
	r := Rule{
		RawPattern:     pattern,
		TargetKind:     kind,
		TargetName:     targetName,
		MinOccurrences: minOccurrences,
		UserPassword:   userPass,
		OwnerPassword:  ownerPass,
		Encrypt:        userPass != "" || ownerPass != "",
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		logging.L.Warnf("invalid pattern %q: %v; rule will never match", pattern, err)
		r.Pattern = neverMatch
		return r
	}
	r.Pattern = re
	return r
}

// LoadCSV reads rules from a CSV file with columns
// pattern,name,target_kind,min_occurrences,user_pass,owner_pass. A header row
// is skipped when detected; short rows and bad thresholds are normalized, not
// fatal.
func LoadCSV(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer f.Close()
	rules, err := parseCSV(f)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("no rules found in %s", path)
	}
	return rules, nil
}

func parseCSV(r io.Reader) ([]Rule, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var rules []Rule
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rules csv: %w", err)
		}
		if len(record) > 0 {
			record[0] = strings.TrimPrefix(record[0], "\uFEFF")
		}
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(record[0]), "pattern") {
				continue
			}
		}
		if len(record) < 2 {
			logging.L.Warnf("skipping malformed rule row: %v", record)
			continue
		}
		r := New(
			field(record, 0),
			field(record, 1),
			parseKind(field(record, 2)),
			parseOccurrences(field(record, 3)),
			field(record, 4),
			field(record, 5),
		)
		logging.L.Infof("rule loaded: match %q on %s at least %d time(s) -> %q%s",
			r.RawPattern, r.TargetKind, r.MinOccurrences, r.TargetName, encryptNote(r))
		rules = append(rules, r)
	}
	return rules, nil
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseKind(s string) TargetKind {
	switch strings.ToLower(s) {
	case "filename":
		return TargetFilename
	case "metadata":
		return TargetMetadata
	default:
		return TargetContent
	}
}

func parseOccurrences(s string) int {
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		logging.L.Warnf("bad min_occurrences %q, using 1", s)
		return 1
	}
	return n
}

func encryptNote(r Rule) string {
	if !r.Encrypt {
		return ""
	}
	return " (output will be encrypted)"
}
