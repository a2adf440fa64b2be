package services

import (
	"path"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"paper-shelf/models"
	"paper-shelf/storage"
)

// CleanupService finds attachment files no paper references anymore.
// Deleting a paper never removes its files, so orphans accumulate until
// they are purged explicitly (or by the scheduled scan).
type CleanupService struct {
	DB      *gorm.DB
	Uploads *storage.UploadStore
	Logger  *zap.Logger
}

// NewCleanupService creates a new CleanupService instance.
func NewCleanupService(db *gorm.DB, uploads *storage.UploadStore, logger *zap.Logger) *CleanupService {
	return &CleanupService{DB: db, Uploads: uploads, Logger: logger}
}

// OrphanScan returns the filenames present in the upload directory that no
// paper's attachment slot points at.
func (s *CleanupService) OrphanScan() ([]string, error) {
	var papers []models.Paper
	if err := s.DB.Select("pdf_path", "word_path", "ppt_path").Find(&papers).Error; err != nil {
		return nil, err
	}

	referenced := make(map[string]bool)
	for _, paper := range papers {
		for _, ref := range []*string{paper.PDFPath, paper.WordPath, paper.PPTPath} {
			if ref != nil && *ref != "" {
				referenced[path.Base(*ref)] = true
			}
		}
	}

	files, err := s.Uploads.Files()
	if err != nil {
		return nil, err
	}

	orphans := make([]string, 0)
	for _, name := range files {
		if !referenced[name] {
			orphans = append(orphans, name)
		}
	}
	return orphans, nil
}

// PurgeOrphans deletes every orphaned file and returns how many were
// removed.
func (s *CleanupService) PurgeOrphans() (int, error) {
	orphans, err := s.OrphanScan()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range orphans {
		if err := s.Uploads.Remove(name); err != nil {
			s.Logger.Warn("Failed to remove orphaned attachment",
				zap.String("file", name), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}
