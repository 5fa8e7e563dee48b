package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/health-advisor-server/internal/domain"
)

const spreadsheetMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Kind is the decoding path chosen for an upload
type Kind string

const (
	KindText        Kind = "text"
	KindSpreadsheet Kind = "spreadsheet"
	KindUnsupported Kind = "unsupported"
)

// Decoder implements domain.DocumentDecoder for plain text and xlsx uploads
type Decoder struct {
	logger *logrus.Logger
}

// NewDecoder creates a new document decoder
func NewDecoder(logger *logrus.Logger) *Decoder {
	return &Decoder{logger: logger}
}

// DetectKind chooses a decoder from the file extension, falling back to the
// declared content type
func DetectKind(filename, contentType string) Kind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".text", ".csv":
		return KindText
	case ".xlsx", ".xlsm":
		return KindSpreadsheet
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return KindUnsupported
	}
	switch {
	case mediaType == spreadsheetMIME:
		return KindSpreadsheet
	case strings.HasPrefix(mediaType, "text/"):
		return KindText
	default:
		return KindUnsupported
	}
}

// Decode turns the upload into text for the field extractor
func (d *Decoder) Decode(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	kind := DetectKind(filename, contentType)
	if kind == KindUnsupported {
		return "", fmt.Errorf("decoding %q (%s): %w", filename, contentType, domain.ErrUnsupportedDocument)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}

	var text string
	switch kind {
	case KindText:
		text, err = decodeText(data)
	case KindSpreadsheet:
		text, err = decodeSpreadsheet(data)
	}
	if err != nil {
		return "", fmt.Errorf("decoding %q: %w", filename, err)
	}

	d.logger.WithFields(logrus.Fields{
		"filename":    filename,
		"kind":        kind,
		"bytes":       len(data),
		"text_length": len(text),
	}).Debug("Decoded document")

	return text, nil
}

func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", fmt.Errorf("text is not valid UTF-8: %w", domain.ErrUnsupportedDocument)
	}
	return string(data), nil
}

// decodeSpreadsheet renders every sheet row by row: cells joined by spaces,
// rows by newlines
func decodeSpreadsheet(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse spreadsheet: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("failed to read rows of %q: %w", sheet, err)
		}
		for _, row := range rows {
			cells := make([]string, 0, len(row))
			for _, cell := range row {
				if c := strings.TrimSpace(cell); c != "" {
					cells = append(cells, c)
				}
			}
			if len(cells) == 0 {
				continue
			}
			sb.WriteString(strings.Join(cells, " "))
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}
