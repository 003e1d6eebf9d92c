package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"quiz-ingest/internal/db"
	"quiz-ingest/internal/helper"
	"quiz-ingest/internal/ingest"
	"quiz-ingest/internal/models"
	"quiz-ingest/internal/parser"
	"quiz-ingest/internal/report"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [flags] FILE...",
		Short: "Extract and store the questions of one or more quiz documents",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runIngest,
	}
	f := cmd.Flags()
	f.StringP("course", "c", "", "Course ID the documents belong to")
	f.StringP("level", "l", "", "Difficulty level (Easy, Medium, Hard)")
	f.String("upload-id", "", "Re-ingest into an existing upload (single file only)")
	f.String("uploaded-by", "", "Admin recorded as the uploader")
	f.Bool("dry-run", false, "Dry run, print questions instead of saving them")
	f.String("report", "", "Write an HTML ingestion report to this path")
	_ = cmd.MarkFlagRequired("course")
	_ = cmd.MarkFlagRequired("level")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	f := cmd.Flags()
	course, _ := f.GetString("course")
	levelName, _ := f.GetString("level")
	uploadID, _ := f.GetString("upload-id")
	uploadedBy, _ := f.GetString("uploaded-by")
	dryRun, _ := f.GetBool("dry-run")
	reportPath, _ := f.GetString("report")

	level, err := models.ParseLevel(levelName)
	if err != nil {
		return err
	}
	if uploadID != "" && len(args) > 1 {
		return errors.New("--upload-id can only be used with a single file")
	}

	var store *db.Store
	if !dryRun {
		store, err = db.Open(ctx, &cfg.Database)
		if err != nil {
			log.Error().Err(err).Msg("Error connecting to database")
			return err
		}
		defer store.Close()
	}

	// read everything before touching the database so a bad path leaves no rows behind
	uploads := make([]ingest.Upload, 0, len(args))
	for _, path := range args {
		doc, err := helper.LoadDocument(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		id := uploadID
		if id == "" {
			if id, err = helper.GenerateUUID(); err != nil {
				return err
			}
		}
		uploads = append(uploads, ingest.Upload{ID: id, CourseID: course, Level: level, Document: doc})
	}

	if store != nil {
		for n, up := range uploads {
			if err := registerUpload(ctx, store, up, uploadedBy); err != nil {
				abandonUploads(ctx, store, uploads[:n])
				return fmt.Errorf("register upload %s: %w", up.ID, err)
			}
		}
	}

	// a nil *db.Store must not become a non-nil Persister
	var persister ingest.Persister
	if store != nil {
		persister = store
	}
	results := ingest.New(persister, cfg).ProcessAll(ctx, uploads)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			log.Error().Err(res.Err).Str("upload_id", res.Upload.ID).Msg("Upload failed")
			continue
		}
		log.Info().
			Str("upload_id", res.Upload.ID).
			Str("document", res.Upload.Document.Name).
			Int("questions", len(res.Records)).
			Msg("Upload ingested")
		if dryRun {
			helper.PrettyPrint(cmd.OutOrStdout(), res.Records)
		}
	}

	if reportPath != "" {
		page, err := report.HTML(results)
		if err != nil {
			return err
		}
		if err := os.WriteFile(reportPath, []byte(page), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		log.Info().Str("path", reportPath).Msg("Report written")
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(results))
	}
	return nil
}

// registerUpload creates the upload row, or points an existing one at the new
// document so its questions are superseded.
func registerUpload(ctx context.Context, store *db.Store, up ingest.Upload, uploadedBy string) error {
	row := &db.Upload{
		ID:         up.ID,
		CourseID:   up.CourseID,
		Level:      up.Level,
		FileName:   up.Document.Name,
		FileSize:   up.Document.Size(),
		FileType:   parser.MimeType(up.Document),
		UploadedBy: uploadedBy,
	}
	if _, err := store.GetUpload(ctx, up.ID); err == nil {
		return store.ReplaceUpload(ctx, row)
	} else if !errors.Is(err, db.ErrUploadNotFound) {
		return err
	}
	return store.CreateUpload(ctx, row)
}

// abandonUploads marks uploads that were registered but will not be processed.
func abandonUploads(ctx context.Context, store *db.Store, uploads []ingest.Upload) {
	for _, up := range uploads {
		if err := store.UpdateUploadStatus(context.WithoutCancel(ctx), up.ID, models.StatusError); err != nil {
			log.Error().Err(err).Str("upload_id", up.ID).Msg("Failed to mark upload as errored")
		}
	}
}

func questionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Print the question bank of a course level in quiz order",
		RunE: func(cmd *cobra.Command, args []string) error {
			course, _ := cmd.Flags().GetString("course")
			levelName, _ := cmd.Flags().GetString("level")
			level, err := models.ParseLevel(levelName)
			if err != nil {
				return err
			}

			store, err := db.Open(cmd.Context(), &cfg.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.ListQuestions(cmd.Context(), course, level)
			if err != nil {
				return err
			}
			helper.PrettyPrint(cmd.OutOrStdout(), records)
			return nil
		},
	}
	cmd.Flags().StringP("course", "c", "", "Course ID")
	cmd.Flags().StringP("level", "l", "", "Difficulty level (Easy, Medium, Hard)")
	_ = cmd.MarkFlagRequired("course")
	_ = cmd.MarkFlagRequired("level")
	return cmd
}

type uploadView struct {
	ID          string              `json:"id"`
	FileName    string              `json:"file_name"`
	FilePath    string              `json:"file_path"`
	FileSize    int64               `json:"file_size"`
	FileType    string              `json:"file_type"`
	Status      models.UploadStatus `json:"status"`
	UploadedBy  string              `json:"uploaded_by,omitempty"`
	UploadedAt  time.Time           `json:"uploaded_at"`
	ProcessedAt *time.Time          `json:"processed_at,omitempty"`
}

func uploadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "List a course's uploads grouped by level, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			course, _ := cmd.Flags().GetString("course")

			store, err := db.Open(cmd.Context(), &cfg.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			uploads, err := store.ListUploads(cmd.Context(), course)
			if err != nil {
				return err
			}

			grouped := make(map[models.Level][]uploadView, len(models.Levels))
			for _, l := range models.Levels {
				grouped[l] = []uploadView{}
			}
			for _, u := range uploads {
				v := uploadView{
					ID:         u.ID,
					FileName:   u.FileName,
					FilePath:   u.FilePath,
					FileSize:   u.FileSize,
					FileType:   u.FileType,
					Status:     u.Status,
					UploadedBy: u.UploadedBy,
					UploadedAt: u.UploadedAt,
				}
				if !u.ProcessedAt.IsZero() {
					v.ProcessedAt = &u.ProcessedAt
				}
				grouped[u.Level] = append(grouped[u.Level], v)
			}
			helper.PrettyPrint(cmd.OutOrStdout(), grouped)
			return nil
		},
	}
	cmd.Flags().StringP("course", "c", "", "Course ID")
	_ = cmd.MarkFlagRequired("course")
	return cmd
}

func deleteUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-upload UPLOAD_ID",
		Short: "Delete an upload and all of its questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := db.Open(cmd.Context(), &cfg.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteUpload(cmd.Context(), args[0]); err != nil {
				return err
			}
			log.Info().Str("upload_id", args[0]).Msg("Upload deleted")
			return nil
		},
	}
}
