package report

import (
	"errors"
	"strings"
	"testing"

	"quiz-ingest/internal/ingest"
	"quiz-ingest/internal/models"
)

func sampleResults() []ingest.Result {
	return []ingest.Result{
		{
			Upload: ingest.Upload{ID: "u1", CourseID: "go-101", Level: models.LevelEasy, Document: models.RawDocument{Name: "quiz.txt"}},
			Records: []models.QuestionRecord{
				{QuestionNumber: 1, QuestionText: "What is 2+2?", Options: []string{"3", "4"}, CorrectAnswerIndex: 1, Source: models.SourceParsed},
			},
			Status: models.StatusProcessed,
		},
		{
			Upload: ingest.Upload{ID: "u2", CourseID: "go-101", Level: models.LevelHard, Document: models.RawDocument{Name: "a|b.pdf"}},
			Status: models.StatusError,
			Err:    errors.New("save questions: disk full"),
		},
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleResults())

	for _, want := range []string{
		"1 uploads processed, 1 failed, 1 questions.",
		"| u1 | quiz.txt | go-101 | Easy | processed | 1 | parsed_document |  |",
		`| u2 | a\|b.pdf | go-101 | Hard | error | 0 |  | save questions: disk full |`,
		"## quiz.txt",
		"1. What is 2+2?",
		"    - 3\n",
		"    - **4**\n",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "## a") {
		t.Error("uploads without questions should not get a section")
	}
}

func TestHTML(t *testing.T) {
	out, err := HTML(sampleResults())
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	for _, want := range []string{
		"<h1>Quiz ingestion report</h1>",
		"<table>",
		"<th>Upload</th>",
		"<td>u1</td>",
		"<strong>4</strong>",
		"<ol>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q:\n%s", want, out)
		}
	}
}

func TestHTMLEmptyRun(t *testing.T) {
	out, err := HTML(nil)
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if !strings.Contains(out, "0 uploads processed, 0 failed, 0 questions.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
