package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Workspace is a temporary directory layout for pipeline tests.
type Workspace struct {
	Root         string
	RawDir       string
	FixedDir     string
	ReportDir    string
	ReferenceDir string
}

// NewWorkspace creates raw and reference directories under t.TempDir().
// The fixed and report directories are left for the pipeline to create.
func NewWorkspace(t *testing.T) *Workspace {
	t.Helper()

	root := t.TempDir()
	ws := &Workspace{
		Root:         root,
		RawDir:       filepath.Join(root, "raw"),
		FixedDir:     filepath.Join(root, "fixed"),
		ReportDir:    filepath.Join(root, "report"),
		ReferenceDir: filepath.Join(root, "reference"),
	}
	for _, dir := range []string{ws.RawDir, ws.ReferenceDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}
	return ws
}

// WriteLog writes a raw log file with the given space-delimited lines.
func (w *Workspace) WriteLog(t *testing.T, name string, lines ...string) string {
	t.Helper()
	return writeFile(t, filepath.Join(w.RawDir, name), []byte(strings.Join(lines, "\r\n")+"\r\n"))
}

// WriteRawBytes writes a raw log file verbatim.
func (w *Workspace) WriteRawBytes(t *testing.T, name string, content []byte) string {
	t.Helper()
	return writeFile(t, filepath.Join(w.RawDir, name), content)
}

// WriteReference writes a comma-delimited reference table.
func (w *Workspace) WriteReference(t *testing.T, name string, rows ...string) string {
	t.Helper()
	return writeFile(t, filepath.Join(w.ReferenceDir, name), []byte(strings.Join(rows, "\n")+"\n"))
}

func writeFile(t *testing.T, path string, content []byte) string {
	t.Helper()
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
