package rule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	content  string
	filename string
	metadata string

	contentCalls int
}

func (s *stubSource) Content() string {
	s.contentCalls++
	return s.content
}
func (s *stubSource) Filename() string { return s.filename }
func (s *stubSource) Metadata() string { return s.metadata }

func TestNewInvalidPatternNeverMatches(t *testing.T) {
	r := New(`([unclosed`, "out", TargetContent, 1, "", "")
	require.NotNil(t, r.Pattern, "invalid pattern must not abort rule construction")
	assert.Empty(t, r.Pattern.FindAllString("anything [unclosed anything", -1))
}

func TestEncryptDerivedFromPasswords(t *testing.T) {
	assert.False(t, New(`a`, "out", TargetContent, 1, "", "").Encrypt)
	assert.True(t, New(`a`, "out", TargetContent, 1, "secret", "").Encrypt)
	assert.True(t, New(`a`, "out", TargetContent, 1, "", "secret").Encrypt)
}

func TestParseCSV(t *testing.T) {
	input := strings.Join([]string{
		`pattern,name,target_kind,min_occurrences,user_pass,owner_pass`,
		`invoice,invoices,content,2,,`,
		`\.scan\.pdf$,scans,filename,1,open123,edit456`,
		`Acme Corp,acme,metadata,,,`,
		`report,reports,content,notanumber,,`,
	}, "\n")

	rules, err := parseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rules, 4)

	assert.Equal(t, "invoices", rules[0].TargetName)
	assert.Equal(t, TargetContent, rules[0].TargetKind)
	assert.Equal(t, 2, rules[0].MinOccurrences)
	assert.False(t, rules[0].Encrypt)

	assert.Equal(t, TargetFilename, rules[1].TargetKind)
	assert.True(t, rules[1].Encrypt)
	assert.Equal(t, "open123", rules[1].UserPassword)
	assert.Equal(t, "edit456", rules[1].OwnerPassword)

	assert.Equal(t, TargetMetadata, rules[2].TargetKind)
	assert.Equal(t, 1, rules[2].MinOccurrences, "missing threshold defaults to 1")

	assert.Equal(t, 1, rules[3].MinOccurrences, "unparsable threshold defaults to 1")
}

func TestMatchFirstWins(t *testing.T) {
	rules := []Rule{
		New(`invoice`, "first", TargetContent, 1, "", ""),
		New(`invoice`, "second", TargetContent, 1, "", ""),
	}
	src := &stubSource{content: "invoice invoice"}

	r, count, ok := Match(rules, src)
	require.True(t, ok)
	assert.Equal(t, "first", r.TargetName)
	assert.Equal(t, 2, count)
}

func TestMatchThreshold(t *testing.T) {
	rules := []Rule{New(`ref`, "out", TargetContent, 3, "", "")}

	_, _, ok := Match(rules, &stubSource{content: "ref ref"})
	assert.False(t, ok, "two occurrences must not satisfy a threshold of three")

	_, count, ok := Match(rules, &stubSource{content: "ref ref ref"})
	require.True(t, ok)
	assert.Equal(t, 3, count)
}

func TestMatchZeroThresholdAlwaysWins(t *testing.T) {
	rules := []Rule{
		New(`no-such-text`, "catchall", TargetContent, 0, "", ""),
		New(`present`, "never-reached", TargetContent, 1, "", ""),
	}
	r, count, ok := Match(rules, &stubSource{content: "present"})
	require.True(t, ok)
	assert.Equal(t, "catchall", r.TargetName)
	assert.Equal(t, 0, count)
}

func TestMatchTargetKinds(t *testing.T) {
	src := &stubSource{
		content:  "body text",
		filename: "scan_0042.pdf",
		metadata: "Author: Acme",
	}

	r, _, ok := Match([]Rule{New(`scan_\d+`, "byname", TargetFilename, 1, "", "")}, src)
	require.True(t, ok)
	assert.Equal(t, "byname", r.TargetName)
	assert.Zero(t, src.contentCalls, "filename rules must not trigger content extraction")

	r, _, ok = Match([]Rule{New(`Acme`, "bymeta", TargetMetadata, 1, "", "")}, src)
	require.True(t, ok)
	assert.Equal(t, "bymeta", r.TargetName)
}

func TestMatchNoRules(t *testing.T) {
	_, _, ok := Match(nil, &stubSource{content: "anything"})
	assert.False(t, ok)
}
