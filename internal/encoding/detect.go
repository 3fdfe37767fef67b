package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const peekSize = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// NewUTF8Reader returns a reader that yields r decoded to UTF-8.
//
// A declared charset (for example the charset parameter of a Content-Type
// header) wins when it names a known encoding. Otherwise detection runs:
//  1. BOM (UTF-8 BOM is stripped; UTF-16 LE/BE is decoded)
//  2. valid UTF-8 is returned as-is
//  3. chardet heuristics
//  4. Windows-1252
func NewUTF8Reader(r io.Reader, declared string) (io.Reader, error) {
	if declared = strings.TrimSpace(declared); declared != "" {
		if isUTF8(declared) {
			return r, nil
		}

		if enc, err := htmlindex.Get(declared); err == nil {
			return transform.NewReader(r, enc.NewDecoder()), nil
		}
	}

	br := bufio.NewReader(r)

	buf, err := br.Peek(peekSize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), nil
	case bytes.HasPrefix(buf, bomUTF16BE):
		return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()), nil
	case utf8.Valid(buf):
		return br, nil
	}

	result, err := chardet.NewTextDetector().DetectBest(buf)
	if err == nil {
		switch result.Charset {
		case "UTF-8":
			return br, nil
		case "ISO-8859-9":
			return transform.NewReader(br, charmap.ISO8859_9.NewDecoder()), nil
		case "ISO-8859-15":
			return transform.NewReader(br, charmap.ISO8859_15.NewDecoder()), nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
}

// ToUTF8 reads all of data through NewUTF8Reader.
func ToUTF8(data []byte, declared string) ([]byte, error) {
	r, err := NewUTF8Reader(bytes.NewReader(data), declared)
	if err != nil {
		return nil, err
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}

	return out, nil
}

func isUTF8(charset string) bool {
	switch strings.ToLower(charset) {
	case "utf-8", "utf8":
		return true
	}

	return false
}
