package dataprocessing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derrrr/xscript-log-stat/internal/charset"
)

func TestSanitizeLine(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"spaces become commas", "1234 CompanyX 20240101\n", "1234,CompanyX,20240101", true},
		{"crlf terminator", "1234 CompanyX 20240101\r\n", "1234,CompanyX,20240101", true},
		{"trailing space", "1234 CompanyX 20240101 \n", "1234,CompanyX,20240101", true},
		{"several trailing spaces", "1234 CompanyX 20240101   \n", "1234,CompanyX,20240101", true},
		{"no terminator", "1234 CompanyX 20240101", "1234,CompanyX,20240101", true},
		{"double space keeps empty field", "1234  CompanyX", "1234,,CompanyX", true},
		{"empty line", "\n", "", false},
		{"spaces only", "    \n", "", false},
		{"tab only", "\t\r\n", "", false},
		{"empty string", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SanitizeLine(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeFile(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "raw", "20240101_A.csv")
	dst := filepath.Join(tmpDir, "fixed", "20240101_A.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0755))

	content := string(charset.BOM) +
		"1234 CompanyX 20240101 \r\n" +
		"\r\n" +
		"   \r\n" +
		"5678 CompanyY 20240101\r\n" +
		"9999 CompanyZ 20240101"
	require.NoError(t, os.WriteFile(src, []byte(content), 0644))

	stats, err := SanitizeFile(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Kept)
	assert.Equal(t, 2, stats.Dropped)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(got), string(charset.BOM)))
	assert.Equal(t,
		"1234,CompanyX,20240101\n5678,CompanyY,20240101\n9999,CompanyZ,20240101\n",
		string(got[len(charset.BOM):]))
}

func TestSanitizeFile_LineProperties(t *testing.T) {
	inputs := []string{
		"a b c\n", " \n", "x,, \n", "a  b  \r\n", "\n", "tail ,\n", "  lead\n", "1 2 3 4 5\n",
	}
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "in.csv")
	dst := filepath.Join(tmpDir, "out.csv")
	require.NoError(t, os.WriteFile(src, []byte(strings.Join(inputs, "")), 0644))

	stats, err := SanitizeFile(src, dst)
	require.NoError(t, err)
	assert.Equal(t, len(inputs), stats.Kept+stats.Dropped)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	body := strings.TrimPrefix(string(got), string(charset.BOM))
	lines := strings.Split(strings.TrimSuffix(body, "\n"), "\n")

	assert.LessOrEqual(t, len(lines), len(inputs))
	for _, l := range lines {
		assert.NotEmpty(t, strings.TrimSpace(l))
		assert.False(t, strings.HasSuffix(l, ","), "line %q ends with a delimiter", l)
	}
}

func TestSanitizeFile_MissingSource(t *testing.T) {
	tmpDir := t.TempDir()
	_, err := SanitizeFile(filepath.Join(tmpDir, "missing"), filepath.Join(tmpDir, "out"))
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(tmpDir, "out"))
}
