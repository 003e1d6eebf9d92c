package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"time"

	"quiz-ingest/internal/config"
	"quiz-ingest/internal/models"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	_ "modernc.org/sqlite"
)

var ErrUploadNotFound = errors.New("upload not found")

type Upload struct {
	bun.BaseModel `bun:"table:quiz_uploads,alias:u"`
	ID            string              `bun:"id,pk"`
	CourseID      string              `bun:"course_id,notnull"`
	Level         models.Level        `bun:"level,notnull"`
	FileName      string              `bun:"file_name,notnull"`
	FilePath      string              `bun:"file_path,notnull"`
	FileSize      int64               `bun:"file_size"`
	FileType      string              `bun:"file_type"`
	UploadedBy    string              `bun:"uploaded_by"`
	Status        models.UploadStatus `bun:"status,notnull"`
	UploadedAt    time.Time           `bun:"uploaded_at,notnull"`
	ProcessedAt   time.Time           `bun:"processed_at,nullzero"`
}

type QuizQuestion struct {
	bun.BaseModel  `bun:"table:quiz_questions,alias:q"`
	ID             int64         `bun:"id,pk,autoincrement"`
	UploadID       string        `bun:"quiz_upload_id,notnull"`
	CourseID       string        `bun:"course_id,notnull"`
	Level          models.Level  `bun:"level,notnull"`
	QuestionNumber int           `bun:"question_number,notnull"`
	QuestionText   string        `bun:"question_text,notnull"`
	Options        []string      `bun:"options,notnull"`
	CorrectAnswer  int           `bun:"correct_answer,notnull"`
	Explanation    string        `bun:"explanation"`
	Source         models.Source `bun:"source,notnull"`
	DocumentName   string        `bun:"document_name"`
	DocumentSize   int64         `bun:"document_size"`
}

// FilePath is the storage key of an uploaded quiz document.
func FilePath(courseID string, level models.Level, fileName string) string {
	return path.Join("local", courseID, string(level), fileName)
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		sqldb, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			return nil, err
		}
		// single writer, and ":memory:" databases live on one connection
		sqldb.SetMaxOpenConns(1)
		return sqldb, nil
	case config.DriverPostgres:
		opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
		if cfg.Password != "" {
			opts = append(opts, pgdriver.WithPassword(cfg.Password))
		}
		return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func NewDB(sqldb *sql.DB, cfg *config.DatabaseConfig) *bun.DB {
	var db *bun.DB
	if cfg.Driver == config.DriverPostgres {
		db = bun.NewDB(sqldb, pgdialect.New())
	} else {
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func InitDB(ctx context.Context, db *bun.DB) error {
	for _, model := range []any{(*Upload)(nil), (*QuizQuestion)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	_, err := db.NewCreateIndex().
		Model((*QuizQuestion)(nil)).
		Index("idx_quiz_questions_course_level").
		Column("course_id", "level").
		IfNotExists().
		Exec(ctx)
	return err
}

// Store keeps uploads and their question records.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Open connects with cfg and makes sure the schema exists.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*Store, error) {
	sqldb, err := ConnectDB(cfg)
	if err != nil {
		return nil, err
	}
	db := NewDB(sqldb, cfg)
	if err := InitDB(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return NewStore(db), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateUpload records a new upload in the processing state.
func (s *Store) CreateUpload(ctx context.Context, u *Upload) error {
	if u.Status == "" {
		u.Status = models.StatusProcessing
	}
	if u.UploadedAt.IsZero() {
		u.UploadedAt = time.Now().UTC()
	}
	if u.FilePath == "" {
		u.FilePath = FilePath(u.CourseID, u.Level, u.FileName)
	}
	_, err := s.db.NewInsert().Model(u).Exec(ctx)
	return err
}

// ReplaceUpload points an existing upload at a new document and puts it back
// into processing. Its questions are replaced by the next SaveQuestions.
func (s *Store) ReplaceUpload(ctx context.Context, u *Upload) error {
	u.Status = models.StatusProcessing
	u.UploadedAt = time.Now().UTC()
	u.ProcessedAt = time.Time{}
	if u.FilePath == "" {
		u.FilePath = FilePath(u.CourseID, u.Level, u.FileName)
	}
	res, err := s.db.NewUpdate().
		Model(u).
		Column("course_id", "level", "file_name", "file_path", "file_size", "file_type", "uploaded_by", "status", "uploaded_at", "processed_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrUploadNotFound, u.ID)
	}
	return nil
}

func (s *Store) GetUpload(ctx context.Context, id string) (*Upload, error) {
	u := new(Upload)
	err := s.db.NewSelect().Model(u).Where("u.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUploadNotFound, id)
	}
	return u, err
}

// SaveQuestions replaces every question of the upload with records.
func (s *Store) SaveQuestions(ctx context.Context, uploadID string, records []models.QuestionRecord) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*QuizQuestion)(nil)).
			Where("quiz_upload_id = ?", uploadID).
			Exec(ctx); err != nil {
			return fmt.Errorf("clear questions: %w", err)
		}
		if len(records) == 0 {
			return nil
		}

		rows := make([]QuizQuestion, len(records))
		for i, r := range records {
			rows[i] = QuizQuestion{
				UploadID:       uploadID,
				CourseID:       r.CourseID,
				Level:          r.Level,
				QuestionNumber: r.QuestionNumber,
				QuestionText:   r.QuestionText,
				Options:        r.Options,
				CorrectAnswer:  r.CorrectAnswerIndex,
				Explanation:    r.Explanation,
				Source:         r.Source,
				DocumentName:   r.DocumentName,
				DocumentSize:   r.DocumentSize,
			}
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		return nil
	})
}

func (s *Store) UpdateUploadStatus(ctx context.Context, uploadID string, status models.UploadStatus) error {
	q := s.db.NewUpdate().
		Model((*Upload)(nil)).
		Set("status = ?", status).
		Where("id = ?", uploadID)
	if status == models.StatusProcessing {
		q = q.Set("processed_at = NULL")
	} else {
		q = q.Set("processed_at = ?", time.Now().UTC())
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrUploadNotFound, uploadID)
	}
	return nil
}

// ListQuestions returns the question bank of one course level in quiz order.
func (s *Store) ListQuestions(ctx context.Context, courseID string, level models.Level) ([]models.QuestionRecord, error) {
	var rows []QuizQuestion
	err := s.db.NewSelect().
		Model(&rows).
		Where("q.course_id = ?", courseID).
		Where("q.level = ?", level).
		Order("q.question_number ASC", "q.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]models.QuestionRecord, len(rows))
	for i, q := range rows {
		records[i] = models.QuestionRecord{
			UploadID:           q.UploadID,
			CourseID:           q.CourseID,
			Level:              q.Level,
			QuestionNumber:     q.QuestionNumber,
			QuestionText:       q.QuestionText,
			Options:            q.Options,
			CorrectAnswerIndex: q.CorrectAnswer,
			Explanation:        q.Explanation,
			Source:             q.Source,
			DocumentName:       q.DocumentName,
			DocumentSize:       q.DocumentSize,
		}
	}
	return records, nil
}

// ListUploads returns a course's uploads, newest first.
func (s *Store) ListUploads(ctx context.Context, courseID string) ([]Upload, error) {
	var uploads []Upload
	err := s.db.NewSelect().
		Model(&uploads).
		Where("u.course_id = ?", courseID).
		Order("u.uploaded_at DESC", "u.id ASC").
		Scan(ctx)
	return uploads, err
}

// DeleteUpload removes an upload together with its questions.
func (s *Store) DeleteUpload(ctx context.Context, uploadID string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*QuizQuestion)(nil)).
			Where("quiz_upload_id = ?", uploadID).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().
			Model((*Upload)(nil)).
			Where("id = ?", uploadID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", ErrUploadNotFound, uploadID)
		}
		return nil
	})
}
