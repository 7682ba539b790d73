// Package parsers turns uploaded files into document text plus seed
// properties. Text-based formats are supported; binary formats are rejected
// per file so one bad upload never aborts a batch.
package parsers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/relrag-api/models"
)

// Parsed is the outcome of parsing one uploaded file.
type Parsed struct {
	Text       string
	Properties map[string]models.PropertyInput
}

// binaryExtensions are formats we recognize but do not extract text from.
var binaryExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".ppt":  true,
	".pptx": true,
	".zip":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// Parse dispatches on the file extension. Unknown extensions are treated as
// plain text when the content is valid UTF-8.
func Parse(filename string, data []byte) (*Parsed, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if binaryExtensions[ext] {
		return nil, fmt.Errorf("unsupported file format %q", ext)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("file %q is not valid UTF-8 text", filename)
	}

	switch ext {
	case ".csv":
		return parseDelimited(filename, data, ',', "text/csv")
	case ".tsv":
		return parseDelimited(filename, data, '\t', "text/tab-separated-values")
	case ".md", ".markdown":
		return parseMarkdown(filename, data)
	default:
		return parseText(filename, data, "text/plain")
	}
}

func parseText(filename string, data []byte, contentType string) (*Parsed, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("file %q is empty", filename)
	}
	return &Parsed{
		Text:       text,
		Properties: baseProperties(filename, titleFromFilename(filename), contentType),
	}, nil
}

// parseMarkdown treats the first level-1 heading as the document title when
// one exists.
func parseMarkdown(filename string, data []byte) (*Parsed, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("file %q is empty", filename)
	}
	title := titleFromFilename(filename)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			break
		}
	}
	return &Parsed{
		Text:       text,
		Properties: baseProperties(filename, title, "text/markdown"),
	}, nil
}

// parseDelimited flattens tabular files into "header: value" lines per row,
// which chunks and searches better than raw delimiter soup.
func parseDelimited(filename string, data []byte, sep rune, contentType string) (*Parsed, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("file %q: %w", filename, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("file %q is empty", filename)
	}

	headers := records[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	var b strings.Builder
	for _, record := range records[1:] {
		for i, field := range record {
			if i >= len(headers) || strings.TrimSpace(field) == "" {
				continue
			}
			b.WriteString(headers[i])
			b.WriteString(": ")
			b.WriteString(strings.TrimSpace(field))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		// Header-only file, fall back to the raw content.
		text = strings.TrimSpace(string(data))
	}
	if text == "" {
		return nil, fmt.Errorf("file %q is empty", filename)
	}
	return &Parsed{
		Text:       text,
		Properties: baseProperties(filename, titleFromFilename(filename), contentType),
	}, nil
}

func baseProperties(filename, title, contentType string) map[string]models.PropertyInput {
	return map[string]models.PropertyInput{
		"title":           {Value: title, Type: models.PropertyTypeString},
		"source_filename": {Value: filepath.Base(filename), Type: models.PropertyTypeString},
		"content_type":    {Value: contentType, Type: models.PropertyTypeString},
	}
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
