package charset

import (
	"fmt"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/saintfish/chardet"

	apperrors "github.com/derrrr/xscript-log-stat/internal/errors"
	"github.com/derrrr/xscript-log-stat/internal/files"
)

// Normalizer detects and rewrites file encodings.
type Normalizer struct {
	detector Detector
	legacy   Label
	files    *files.Manager
	logger   *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithDetector replaces the statistical detector.
func WithDetector(d Detector) Option {
	return func(n *Normalizer) { n.detector = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) { n.logger = logger }
}

// NewNormalizer creates a normalizer that resolves misdetected labels
// to legacy.
func NewNormalizer(legacy Label, opts ...Option) *Normalizer {
	n := &Normalizer{
		detector: chardet.NewTextDetector(),
		legacy:   legacy,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.files = files.NewManager(n.logger)
	return n
}

// Detect returns the canonical label of b. BOM-prefixed or valid UTF-8
// input (plain ASCII included) is UTF-8 without consulting the detector.
func (n *Normalizer) Detect(b []byte) (Label, error) {
	return n.detect("", b)
}

func (n *Normalizer) detect(path string, b []byte) (Label, error) {
	if HasBOM(b) || utf8.Valid(b) {
		return UTF8, nil
	}

	result, err := n.detector.DetectBest(b)
	if err != nil {
		return "", apperrors.NewEncodingError(path,
			fmt.Sprintf("%s: encoding detection failed", path), err)
	}

	label, ok := Canonical(result.Charset, n.legacy)
	if !ok {
		return "", apperrors.NewEncodingError(path,
			fmt.Sprintf("%s: unsupported encoding %s", path, result.Charset), nil).
			WithContext("detected", result.Charset).
			WithContext("confidence", result.Confidence)
	}

	if key(result.Charset) != key(string(label)) {
		n.logger.Debug("Remapped detected encoding",
			slog.String("path", path),
			slog.String("detected", result.Charset),
			slog.Int("confidence", result.Confidence),
			slog.String("label", string(label)))
	}
	return label, nil
}

// Decode detects the encoding of b and returns its UTF-8 text without a
// BOM.
func (n *Normalizer) Decode(b []byte) ([]byte, Label, error) {
	return n.decodeBytes("", b)
}

func (n *Normalizer) decodeBytes(path string, b []byte) ([]byte, Label, error) {
	label, err := n.detect(path, b)
	if err != nil {
		return nil, "", err
	}
	out, err := decode(path, b, label)
	if err != nil {
		return nil, "", err
	}
	return out, label, nil
}

// DecodeFile reads path and returns its content as UTF-8 without a BOM.
// The file is not modified.
func (n *Normalizer) DecodeFile(path string) ([]byte, Label, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return n.decodeBytes(path, b)
}

// Result describes one Normalize call.
type Result struct {
	Path    string
	Label   Label
	Changed bool
}

// Normalize rewrites path in place as BOM-prefixed UTF-8. A file that is
// already in that form is left untouched.
func (n *Normalizer) Normalize(path string) (Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if IsCanonical(b) {
		return Result{Path: path, Label: UTF8}, nil
	}

	text, label, err := n.decodeBytes(path, b)
	if err != nil {
		return Result{}, err
	}

	out := make([]byte, 0, len(BOM)+len(text))
	out = append(out, BOM...)
	out = append(out, text...)
	if err := n.files.WriteFileAtomic(path, out); err != nil {
		return Result{}, apperrors.NewStorageError("failed to rewrite "+path, err)
	}

	n.logger.Debug("Normalized file encoding",
		slog.String("path", path),
		slog.String("label", string(label)),
		slog.Int("bytes_in", len(b)),
		slog.Int("bytes_out", len(out)))

	return Result{Path: path, Label: label, Changed: true}, nil
}
