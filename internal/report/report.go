package report

import (
	"bytes"
	"fmt"
	"strings"

	"quiz-ingest/internal/ingest"
	"quiz-ingest/internal/models"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var cellEscaper = strings.NewReplacer("|", `\|`, "\n", " ", "\r", "")

// Markdown summarises an ingestion run: one table row per upload followed by
// the questions each upload produced.
func Markdown(results []ingest.Result) string {
	var b strings.Builder
	b.WriteString("# Quiz ingestion report\n\n")

	var processed, failed, questions int
	for _, res := range results {
		if res.Status == models.StatusError {
			failed++
		} else {
			processed++
		}
		questions += len(res.Records)
	}
	fmt.Fprintf(&b, "%d uploads processed, %d failed, %d questions.\n\n", processed, failed, questions)

	b.WriteString("| Upload | Document | Course | Level | Status | Questions | Source | Error |\n")
	b.WriteString("|---|---|---|---|---|---:|---|---|\n")
	for _, res := range results {
		source := ""
		if len(res.Records) > 0 {
			source = string(res.Records[0].Source)
		}
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %d | %s | %s |\n",
			cell(res.Upload.ID), cell(res.Upload.Document.Name), cell(res.Upload.CourseID),
			res.Upload.Level, res.Status, len(res.Records), source, cell(errText))
	}

	for _, res := range results {
		if len(res.Records) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", cell(res.Upload.Document.Name))
		for _, rec := range res.Records {
			fmt.Fprintf(&b, "%d. %s\n", rec.QuestionNumber, cell(rec.QuestionText))
			for n, opt := range rec.Options {
				if n == rec.CorrectAnswerIndex {
					fmt.Fprintf(&b, "    - **%s**\n", cell(opt))
				} else {
					fmt.Fprintf(&b, "    - %s\n", cell(opt))
				}
			}
		}
	}
	return b.String()
}

// HTML renders the Markdown report.
func HTML(results []ingest.Result) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(results)), &buf); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

func cell(s string) string {
	return strings.TrimSpace(cellEscaper.Replace(s))
}
