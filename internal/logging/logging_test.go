package logging

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSVContainsCapturedEntries(t *testing.T) {
	Init("info")
	L.SetOutput(io.Discard)
	L.Info("first captured message")
	L.Warn("second captured message")

	dir := t.TempDir()
	path, err := ExportCSV(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.True(t, strings.HasPrefix(content, "\uFEFF"), "log export must start with a BOM")
	assert.Contains(t, content, "time,level,message")
	assert.Contains(t, content, "first captured message")
	assert.Contains(t, content, "warning,second captured message")
}

func TestInitBadLevelFallsBack(t *testing.T) {
	Init("not-a-level")
	assert.Equal(t, "info", L.GetLevel().String())
}
