package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// FileValidator checks pipeline inputs before they are touched and the
// report after it is written.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateOutputDirectory ensures dir exists and accepts new files
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateFile checks that path is a regular, readable file
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateSources checks every raw log file. The first failure is returned
// so that no file is rewritten when any of them is unusable.
func (v *FileValidator) ValidateSources(paths []string) error {
	for _, path := range paths {
		if err := v.ValidateFile(path); err != nil {
			return err
		}
	}
	return nil
}

// ValidateWorkbook reopens a written report and checks that it holds the
// expected sheets in order.
func (v *FileValidator) ValidateWorkbook(path string, sheets []string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != ".xlsx" {
		return fmt.Errorf("file %s is not an Excel workbook (extension: %s)", path, ext)
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return fmt.Errorf("file %s is a temporary Excel file", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to reopen workbook %s: %w", path, err)
	}
	defer f.Close()

	got := f.GetSheetList()
	if len(got) != len(sheets) {
		return fmt.Errorf("workbook %s has %d sheets, want %d", path, len(got), len(sheets))
	}
	for i, name := range sheets {
		if got[i] != name {
			return fmt.Errorf("workbook %s sheet %d is %q, want %q", path, i+1, got[i], name)
		}
	}

	v.logger.Debug("Workbook validated",
		slog.String("file", path),
		slog.Int("sheets", len(got)))
	return nil
}
