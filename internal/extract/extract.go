package extract

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrInvalidUTF8 is returned for plain-text uploads that are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("text file is not valid UTF-8")

// FromFile converts an uploaded file into a single plain-text string based on
// its extension (case-insensitive). Unrecognized extensions yield an empty
// string and no error; the caller treats that as no input. Unreadable or
// corrupt files return an error.
func FromFile(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return fromPDF(data)
	case ".docx":
		return fromDOCX(data)
	case ".pptx":
		return fromPPTX(data)
	case ".txt":
		return fromText(data)
	default:
		return "", nil
	}
}

func fromPDF(data []byte) (text string, err error) {
	// ledongthuc/pdf panics on some malformed files; convert to an error.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract pdf page %d: %w", i, err)
		}
		builder.WriteString(pageText)
	}
	return builder.String(), nil
}

func fromText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrInvalidUTF8
	}
	return string(data), nil
}
