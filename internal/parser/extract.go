package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"quiz-ingest/internal/config"
	"quiz-ingest/internal/models"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	mimeText = "text/plain"
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePDF  = "application/pdf"
	mimeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DetectFormat picks a format from the declared media type, falling back to
// the file name suffix.
func DetectFormat(mimeType, fileName string) models.Format {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch mt {
	case mimeText:
		return models.FormatText
	case mimeDocx:
		return models.FormatDocx
	case mimePDF:
		return models.FormatPDF
	case mimeXlsx:
		return models.FormatXlsx
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt":
		return models.FormatText
	case ".docx":
		return models.FormatDocx
	case ".pdf":
		return models.FormatPDF
	case ".xlsx":
		return models.FormatXlsx
	}
	return models.FormatUnknown
}

// MimeType returns the declared media type of doc, or the canonical one for
// its detected format when none was declared.
func MimeType(doc models.RawDocument) string {
	if doc.MimeType != "" {
		return doc.MimeType
	}
	format := doc.Format
	if format == models.FormatUnknown {
		format = DetectFormat("", doc.Name)
	}
	switch format {
	case models.FormatText:
		return mimeText
	case models.FormatDocx:
		return mimeDocx
	case models.FormatPDF:
		return mimePDF
	case models.FormatXlsx:
		return mimeXlsx
	}
	return ""
}

// Extractor flattens uploaded documents to plain text.
type Extractor struct {
	cfg config.IngestConfig
}

func NewExtractor(cfg config.IngestConfig) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract never fails: any extraction problem is logged and yields empty text.
func (e *Extractor) Extract(doc models.RawDocument) models.ExtractedText {
	out := models.ExtractedText{DocumentName: doc.Name, DocumentSize: doc.Size()}

	format := doc.Format
	if format == models.FormatUnknown {
		format = DetectFormat(doc.MimeType, doc.Name)
	}
	logger := log.With().Str("document", doc.Name).Str("format", string(format)).Logger()

	if e.cfg.MaxDocumentBytes > 0 && doc.Size() > e.cfg.MaxDocumentBytes {
		logger.Warn().Int64("size", doc.Size()).Int64("limit", e.cfg.MaxDocumentBytes).Msg("Document too large, skipping extraction")
		return out
	}

	var (
		text string
		err  error
	)
	switch format {
	case models.FormatText:
		text, err = extractText(doc.Data)
	case models.FormatDocx:
		text, err = extractDocx(doc.Data)
	case models.FormatPDF:
		text, err = e.extractPDF(doc.Data)
	case models.FormatXlsx:
		text, err = extractXlsx(doc.Data)
	default:
		err = fmt.Errorf("unsupported document format (mime %q)", doc.MimeType)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("Text extraction failed, continuing with empty text")
		return out
	}

	logger.Debug().Int("length", len(text)).Msg("Extracted text")
	out.Text = text
	return out
}

func extractText(data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	text, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", err
	}
	return string(text), nil
}

func extractDocx(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer r.Close()

	return documentXMLText(r.Editable().GetContent())
}

// documentXMLText collects the visible text runs of a WordprocessingML body.
func documentXMLText(content string) (string, error) {
	const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

	var text strings.Builder
	dec := xml.NewDecoder(strings.NewReader(content))
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				text.WriteByte('\t')
			case "br", "cr":
				text.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				text.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				text.Write(t)
			}
		}
	}
	return text.String(), nil
}

func (e *Extractor) extractPDF(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	rowSep := " "
	if e.cfg.PDFRowBreaks {
		rowSep = "\n"
	}

	var pages []string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		var lines []string
		for _, row := range rows {
			var items []string
			for _, item := range row.Content {
				if item.S != "" {
					items = append(items, item.S)
				}
			}
			if len(items) > 0 {
				lines = append(lines, strings.Join(items, " "))
			}
		}
		pages = append(pages, strings.Join(lines, rowSep))
	}
	return strings.Join(pages, "\n"), nil
}

func extractXlsx(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return "", fmt.Errorf("sheet %s: %w", sheetName, err)
		}
		for _, row := range rows {
			var cells []string
			for _, cell := range row {
				if cell = strings.TrimSpace(cell); cell != "" {
					cells = append(cells, cell)
				}
			}
			if len(cells) > 0 {
				text.WriteString(strings.Join(cells, " "))
				text.WriteString("\n")
			}
		}
	}
	return text.String(), nil
}
