package ingest

import (
	"context"
	"fmt"
	"strings"

	"quiz-ingest/internal/config"
	"quiz-ingest/internal/models"
	"quiz-ingest/internal/parser"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Upload is one quiz document submitted for a course level.
type Upload struct {
	ID       string
	CourseID string
	Level    models.Level
	Document models.RawDocument
}

// Result is the outcome of ingesting one upload.
type Result struct {
	Upload  Upload
	Records []models.QuestionRecord
	Status  models.UploadStatus
	Err     error
}

// Persister stores question records and tracks upload status.
type Persister interface {
	SaveQuestions(ctx context.Context, uploadID string, records []models.QuestionRecord) error
	UpdateUploadStatus(ctx context.Context, uploadID string, status models.UploadStatus) error
}

type Ingester struct {
	store            Persister
	extractor        *parser.Extractor
	attachProvenance bool
	workers          int
}

// New returns an Ingester. A nil store runs without persisting anything.
func New(store Persister, cfg *config.Config) *Ingester {
	workers := cfg.Ingest.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Ingester{
		store:            store,
		extractor:        parser.NewExtractor(cfg.Ingest),
		attachProvenance: cfg.Ingest.AttachProvenance,
		workers:          workers,
	}
}

// Process extracts, parses and stores the questions of a single upload.
func (i *Ingester) Process(ctx context.Context, up Upload) Result {
	logger := log.With().Str("upload_id", up.ID).Str("document", up.Document.Name).Logger()

	extracted := i.extractor.Extract(up.Document)

	source := models.SourceParsed
	questions := parser.ParseQuizText(extracted.Text)
	if len(questions) == 0 && strings.TrimSpace(extracted.Text) != "" {
		logger.Info().Msg("No questions recognised, synthesizing fallback questions")
		source = models.SourceFallback
		questions = parser.SynthesizeFallback(extracted.Text, extracted.DocumentName)
	}

	records := make([]models.QuestionRecord, len(questions))
	for n, q := range questions {
		rec := models.QuestionRecord{
			UploadID:           up.ID,
			CourseID:           up.CourseID,
			Level:              up.Level,
			QuestionNumber:     n + 1,
			QuestionText:       q.QuestionText,
			Options:            q.Options,
			CorrectAnswerIndex: *q.AnswerIndex,
			Explanation:        q.Explanation,
			Source:             source,
		}
		if source == models.SourceFallback || i.attachProvenance {
			rec.DocumentName = extracted.DocumentName
			rec.DocumentSize = extracted.DocumentSize
		}
		records[n] = rec
	}

	res := Result{Upload: up, Records: records, Status: models.StatusProcessed}
	if i.store == nil {
		logger.Info().Int("questions", len(records)).Str("source", string(source)).Msg("Dry run, skipping persistence")
		return res
	}

	if err := i.store.SaveQuestions(ctx, up.ID, records); err != nil {
		res.Status = models.StatusError
		res.Err = fmt.Errorf("save questions for upload %s: %w", up.ID, err)
		logger.Error().Err(err).Msg("Failed to save questions")
		if serr := i.store.UpdateUploadStatus(ctx, up.ID, models.StatusError); serr != nil {
			logger.Error().Err(serr).Msg("Failed to mark upload as errored")
		}
		return res
	}
	if err := i.store.UpdateUploadStatus(ctx, up.ID, models.StatusProcessed); err != nil {
		res.Status = models.StatusError
		res.Err = fmt.Errorf("update status for upload %s: %w", up.ID, err)
		logger.Error().Err(err).Msg("Failed to update upload status")
		return res
	}

	logger.Info().Int("questions", len(records)).Str("source", string(source)).Msg("Upload processed")
	return res
}

// ProcessAll ingests uploads concurrently. Results are in input order and a
// failing upload does not stop the others.
func (i *Ingester) ProcessAll(ctx context.Context, uploads []Upload) []Result {
	results := make([]Result, len(uploads))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(i.workers)
	for n, up := range uploads {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[n] = i.skip(gctx, up, err)
				return nil
			}
			results[n] = i.Process(gctx, up)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

// skip reports an upload that was never processed and records it as errored,
// so its row does not stay in processing.
func (i *Ingester) skip(ctx context.Context, up Upload, cause error) Result {
	res := Result{Upload: up, Status: models.StatusError, Err: fmt.Errorf("upload %s not started: %w", up.ID, cause)}
	if i.store == nil {
		return res
	}
	if err := i.store.UpdateUploadStatus(context.WithoutCancel(ctx), up.ID, models.StatusError); err != nil {
		log.Error().Err(err).Str("upload_id", up.ID).Msg("Failed to mark skipped upload as errored")
	}
	return res
}
