package services

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"paper-shelf/models"
)

// ErrNoSourceText is returned by RegenerateSummary when a paper carries no
// text a summary could be generated from. Callers treat it as "nothing to
// do", not as a failure.
var ErrNoSourceText = errors.New("paper has no source text for a summary")

// createdAtLayout is ISO-8601 at second precision, matching the TEXT
// created_at column.
const createdAtLayout = "2006-01-02T15:04:05"

// createPapersTable is the base schema. The three columns added later
// (summary_ai, category, keywords) are handled by paperColumnMigrations so
// that databases created before those features upgrade in place.
const createPapersTable = `
CREATE TABLE IF NOT EXISTS papers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    authors TEXT,
    year INTEGER,
    journal TEXT,
    summary_short TEXT,
    summary_detail TEXT,
    pdf_path TEXT,
    word_path TEXT,
    ppt_path TEXT,
    created_at TEXT
)`

// paperColumnMigrations are applied in order, each guarded by a column
// presence check. Additive only.
var paperColumnMigrations = []struct {
	column string
	ddl    string
}{
	{"summary_ai", "ALTER TABLE papers ADD COLUMN summary_ai TEXT"},
	{"category", "ALTER TABLE papers ADD COLUMN category TEXT"},
	{"keywords", "ALTER TABLE papers ADD COLUMN keywords TEXT"},
}

// PaperInput carries the raw form fields of a create or edit submission.
// Attachment paths are set only when a new file was stored for that slot;
// nil means "no new file".
type PaperInput struct {
	Title         string
	Authors       string
	Year          string
	Journal       string
	SummaryShort  string
	SummaryDetail string
	Category      string
	Keyword1      string
	Keyword2      string
	Keyword3      string

	PDFPath  *string
	WordPath *string
	PPTPath  *string
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	// Query matches case-insensitively as a substring against title,
	// authors, both summaries, and keywords.
	Query string
	// Category is an exact match, AND'd with Query.
	Category string
}

// PaperService owns the papers table: schema presence, CRUD, and summary
// regeneration.
type PaperService struct {
	DB     *gorm.DB
	Logger *zap.Logger

	// Summarize generates summary_ai content. Defaults to the AiSummary
	// placeholder; swap it for a real summarizer.
	Summarize SummarizeFunc
}

// NewPaperService creates a new PaperService instance.
func NewPaperService(db *gorm.DB, logger *zap.Logger) *PaperService {
	return &PaperService{
		DB:        db,
		Logger:    logger,
		Summarize: AiSummary,
	}
}

// EnsureSchema creates the papers table if it is absent and applies the
// additive column migrations. Safe to call on every startup.
func (s *PaperService) EnsureSchema() error {
	if err := s.DB.Exec(createPapersTable).Error; err != nil {
		return err
	}
	for _, m := range paperColumnMigrations {
		if s.DB.Migrator().HasColumn(&models.Paper{}, m.column) {
			continue
		}
		s.Logger.Info("Adding missing papers column", zap.String("column", m.column))
		if err := s.DB.Exec(m.ddl).Error; err != nil {
			return err
		}
	}
	return nil
}

// Insert persists a new paper from form input and returns it with its
// assigned id. summary_ai is always absent on insert; created_at is stamped
// with the current time at second precision.
func (s *PaperService) Insert(input PaperInput) (*models.Paper, error) {
	paper := &models.Paper{
		Title:         input.Title,
		Authors:       input.Authors,
		Year:          parseYear(input.Year),
		Journal:       input.Journal,
		SummaryShort:  input.SummaryShort,
		SummaryDetail: input.SummaryDetail,
		PDFPath:       input.PDFPath,
		WordPath:      input.WordPath,
		PPTPath:       input.PPTPath,
		Category:      input.Category,
		Keywords:      models.JoinKeywords(input.Keyword1, input.Keyword2, input.Keyword3),
		CreatedAt:     time.Now().Format(createdAtLayout),
	}
	if err := s.DB.Create(paper).Error; err != nil {
		return nil, err
	}
	return paper, nil
}

// Get returns the paper with the given id, or gorm.ErrRecordNotFound.
func (s *PaperService) Get(id uint) (*models.Paper, error) {
	var paper models.Paper
	if err := s.DB.First(&paper, id).Error; err != nil {
		return nil, err
	}
	return &paper, nil
}

// List returns papers matching the filter, newest first.
func (s *PaperService) List(filter ListFilter) ([]models.Paper, error) {
	query := s.DB.Model(&models.Paper{})

	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + q + "%"
		query = query.Where(
			"title LIKE ? OR authors LIKE ? OR summary_short LIKE ? OR summary_detail LIKE ? OR keywords LIKE ?",
			like, like, like, like, like,
		)
	}
	if c := strings.TrimSpace(filter.Category); c != "" {
		query = query.Where("category = ?", c)
	}

	var papers []models.Paper
	if err := query.Order("created_at desc").Find(&papers).Error; err != nil {
		return nil, err
	}
	return papers, nil
}

// Update overwrites the paper's fields from form input. Attachment paths
// fall back to the stored values when no new file was supplied, and
// summary_ai is never touched here. A nonexistent id is a silent no-op.
func (s *PaperService) Update(id uint, input PaperInput) error {
	var current models.Paper
	if err := s.DB.First(&current, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	pdfPath, wordPath, pptPath := current.PDFPath, current.WordPath, current.PPTPath
	if input.PDFPath != nil {
		pdfPath = input.PDFPath
	}
	if input.WordPath != nil {
		wordPath = input.WordPath
	}
	if input.PPTPath != nil {
		pptPath = input.PPTPath
	}

	updates := map[string]interface{}{
		"title":          input.Title,
		"authors":        input.Authors,
		"year":           parseYear(input.Year),
		"journal":        input.Journal,
		"summary_short":  input.SummaryShort,
		"summary_detail": input.SummaryDetail,
		"pdf_path":       pdfPath,
		"word_path":      wordPath,
		"ppt_path":       pptPath,
		"category":       input.Category,
		"keywords":       models.JoinKeywords(input.Keyword1, input.Keyword2, input.Keyword3),
	}

	return s.DB.Model(&models.Paper{}).Where("id = ?", id).Updates(updates).Error
}

// RegenerateSummary recomputes summary_ai from the paper's own text,
// preferring summary_detail, then summary_short, then the title. Returns
// gorm.ErrRecordNotFound for an unknown id and ErrNoSourceText when all
// three sources are empty; the record is unchanged in both cases.
func (s *PaperService) RegenerateSummary(id uint) error {
	paper, err := s.Get(id)
	if err != nil {
		return err
	}

	source := paper.SummaryDetail
	if source == "" {
		source = paper.SummaryShort
	}
	if source == "" {
		source = paper.Title
	}
	// Only a fully empty source skips regeneration; whitespace-only text
	// still goes through the summarizer, which stores its sentinel.
	if source == "" {
		return ErrNoSourceText
	}

	summary := s.Summarize(source)
	return s.DB.Model(&models.Paper{}).Where("id = ?", id).
		Update("summary_ai", summary).Error
}

// Delete removes the paper row. Attached files on disk are left alone; see
// CleanupService for reclaiming them. Deleting an absent id is a no-op.
func (s *PaperService) Delete(id uint) error {
	return s.DB.Delete(&models.Paper{}, id).Error
}

// parseYear converts the raw form value to an integer, or absent when the
// field is empty or not a number.
func parseYear(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &year
}
