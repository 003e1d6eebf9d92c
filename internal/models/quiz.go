package models

import (
	"fmt"
	"strings"
)

// Level is a difficulty tier scoping study materials and quiz questions.
type Level string

const (
	LevelEasy   Level = "Easy"
	LevelMedium Level = "Medium"
	LevelHard   Level = "Hard"
)

// Levels in unlock order.
var Levels = []Level{LevelEasy, LevelMedium, LevelHard}

// ParseLevel accepts a level name in any case.
func ParseLevel(s string) (Level, error) {
	for _, l := range Levels {
		if strings.EqualFold(strings.TrimSpace(s), string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown level %q (want Easy, Medium or Hard)", s)
}

// Format is the document container kind used to choose an extractor.
type Format string

const (
	FormatUnknown Format = ""
	FormatText    Format = "text"
	FormatDocx    Format = "docx"
	FormatPDF     Format = "pdf"
	FormatXlsx    Format = "xlsx"
)

// RawDocument is an uploaded file as received from the transport layer.
type RawDocument struct {
	Name     string
	MimeType string
	Format   Format
	Data     []byte
}

func (d RawDocument) Size() int64 {
	return int64(len(d.Data))
}

// ExtractedText is the flattened text of a RawDocument.
type ExtractedText struct {
	Text         string
	DocumentName string
	DocumentSize int64
}

// ParsedQuestion is one multiple-choice question recognised in a document.
type ParsedQuestion struct {
	QuestionText string   `json:"question"`
	Options      []string `json:"options"`
	AnswerIndex  *int     `json:"answer_index"`
	Explanation  string   `json:"explanation"`
}

// Complete reports whether the question can be emitted.
func (q ParsedQuestion) Complete() bool {
	return q.QuestionText != "" && len(q.Options) > 0 && q.AnswerIndex != nil
}

// Source tells where a question record came from.
type Source string

const (
	SourceParsed   Source = "parsed_document"
	SourceFallback Source = "fallback_synthesized"
)

// QuestionRecord is the persisted form of a question.
type QuestionRecord struct {
	UploadID           string   `json:"upload_id"`
	CourseID           string   `json:"course_id"`
	Level              Level    `json:"level"`
	QuestionNumber     int      `json:"question_number"`
	QuestionText       string   `json:"question_text"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correct_answer"`
	Explanation        string   `json:"explanation"`
	Source             Source   `json:"source"`
	DocumentName       string   `json:"document_name,omitempty"`
	DocumentSize       int64    `json:"document_size,omitempty"`
}

// UploadStatus is the processing state of an upload.
type UploadStatus string

const (
	StatusProcessing UploadStatus = "processing"
	StatusProcessed  UploadStatus = "processed"
	StatusError      UploadStatus = "error"
)
