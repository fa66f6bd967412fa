package charset

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"

	apperrors "github.com/derrrr/xscript-log-stat/internal/errors"
)

// Label is a canonical encoding name.
type Label string

const (
	UTF8    Label = "UTF-8"
	GB18030 Label = "GB18030"
	Big5    Label = "Big5"
)

// BOM is the UTF-8 byte-order mark written at the start of every
// normalized file.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Detector is the statistical detector used for non-UTF-8 input.
// *chardet.Detector satisfies it.
type Detector interface {
	DetectBest(b []byte) (*chardet.Result, error)
}

// ParseLabel converts a configured codepage name to a legacy Label.
func ParseLabel(name string) (Label, error) {
	switch key(name) {
	case "BIG5", "BIG5HKSCS", "CP950":
		return Big5, nil
	case "GB18030", "GBK", "GB2312", "CP936", "EUCCN":
		return GB18030, nil
	}
	return "", fmt.Errorf("unsupported legacy codepage %q", name)
}

// Canonical maps a detector label to the codepage used for decoding.
// ok is false for labels with no supported mapping.
//
// chardet has no single-byte model for Chinese text and falls back to its
// Latin-1 recognizers on short Big5 or GBK files: ISO-8859-1, or
// windows-1252 once C1 bytes (0x80-0x9F) appear. Those two resolve to
// legacy. Other CJK labels are left unmapped; a Japanese or Korean file
// that happens to decode as Big5 would otherwise pass as mojibake.
func Canonical(detected string, legacy Label) (Label, bool) {
	switch key(detected) {
	case "UTF8", "ASCII", "USASCII":
		return UTF8, true
	case "GB18030", "GBK", "GB2312", "EUCCN", "HZGB2312", "HZ":
		return GB18030, true
	case "BIG5", "BIG5HKSCS":
		return Big5, true
	case "ISO88591", "WINDOWS1252":
		return legacy, true
	}
	return "", false
}

func key(name string) string {
	r := strings.NewReplacer("-", "", "_", "", " ", "")
	return strings.ToUpper(r.Replace(name))
}

// HasBOM reports whether b starts with the UTF-8 byte-order mark.
func HasBOM(b []byte) bool {
	return bytes.HasPrefix(b, BOM)
}

// IsCanonical reports whether b is already BOM-prefixed valid UTF-8.
func IsCanonical(b []byte) bool {
	return HasBOM(b) && utf8.Valid(b[len(BOM):])
}

func decoderFor(label Label) (encoding.Encoding, bool) {
	switch label {
	case GB18030:
		return simplifiedchinese.GB18030, true
	case Big5:
		return traditionalchinese.Big5, true
	}
	return nil, false
}

// decode converts b from label to UTF-8 without a BOM. Any byte sequence
// the codepage cannot represent is an error reported against path.
func decode(path string, b []byte, label Label) ([]byte, error) {
	b = bytes.TrimPrefix(b, BOM)

	if label == UTF8 {
		if !utf8.Valid(b) {
			return nil, lineError(path, b, invalidUTF8Offset(b), label)
		}
		return b, nil
	}

	enc, ok := decoderFor(label)
	if !ok {
		return nil, apperrors.NewEncodingError(path,
			fmt.Sprintf("%s: no decoder for %s", path, label), nil).
			WithContext("label", string(label))
	}

	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return nil, apperrors.NewEncodingError(path,
			fmt.Sprintf("%s: failed to decode as %s", path, label), err).
			WithContext("label", string(label))
	}
	if i := bytes.IndexRune(out, utf8.RuneError); i >= 0 {
		return nil, lineError(path, out, i, label)
	}
	return out, nil
}

func invalidUTF8Offset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}

func lineError(path string, text []byte, offset int, label Label) error {
	line := bytes.Count(text[:offset], []byte("\n")) + 1
	return apperrors.NewEncodingError(path,
		fmt.Sprintf("%s line %d: invalid %s byte sequence", path, line, label), nil).
		WithContext("label", string(label)).
		WithContext("line", line)
}
