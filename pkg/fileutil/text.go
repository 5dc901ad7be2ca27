package fileutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding はスクリプトテキストの文字コード
type Encoding string

const (
	UTF8     Encoding = "utf-8"
	ShiftJIS Encoding = "shift_jis"
)

// ParseEncoding validates an encoding name. Common aliases are accepted.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return UTF8, nil
	case "shift_jis", "shift-jis", "sjis", "cp932":
		return ShiftJIS, nil
	}
	return "", fmt.Errorf("unsupported encoding: %s (must be utf-8 or shift_jis)", name)
}

func (e Encoding) codec() encoding.Encoding {
	if e == ShiftJIS {
		return japanese.ShiftJIS
	}
	// 読み込み時はBOMがあれば除去する
	return unicode.UTF8BOM
}

// DecodeText converts raw file content to a UTF-8 string.
func DecodeText(data []byte, enc Encoding) (string, error) {
	reader := transform.NewReader(bytes.NewReader(data), enc.codec().NewDecoder())
	out, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", enc, err)
	}
	return string(out), nil
}

// ErrInvalidUTF8 is returned when text to be written is not valid UTF-8;
// reading it back would replace the bad bytes with U+FFFD.
var ErrInvalidUTF8 = errors.New("text is not valid UTF-8")

// EncodeText converts a UTF-8 string to file content in the given encoding.
// Characters that Shift-JIS cannot represent are an error rather than being
// replaced silently.
func EncodeText(text string, enc Encoding) ([]byte, error) {
	if !utf8.ValidString(text) {
		return nil, ErrInvalidUTF8
	}
	if enc != ShiftJIS {
		return []byte(text), nil
	}
	out, _, err := transform.Bytes(enc.codec().NewEncoder(), []byte(text))
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", enc, err)
	}
	return out, nil
}

// ReadText reads a text file and converts it to UTF-8.
func ReadText(path string, enc Encoding) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	text, err := DecodeText(data, enc)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}

// WriteText writes UTF-8 text to path in the given encoding.
func WriteText(path, text string, enc Encoding) error {
	data, err := EncodeText(text, enc)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}
