package services

import (
	"context"
	"github.com/maxaizer/apply-archive/internal/logger"
	"github.com/maxaizer/apply-archive/internal/metrics"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"os"
	"path"
	"path/filepath"
	"time"
)

type FileReferenceRepository interface {
	ReferencedFiles(ctx context.Context) ([]string, error)
}

// UploadsCleaner removes uploaded files that no record points to once they are older than
// the retention period.
type UploadsCleaner struct {
	records             FileReferenceRepository
	uploadsDir          string
	cron                *cron.Cron
	retentionTimeInDays int
	now                 func() time.Time
}

func NewUploadsCleaner(records FileReferenceRepository, uploadsDir string, retentionInDays int) (*UploadsCleaner, error) {

	if retentionInDays <= 0 {
		return nil, errors.New("retention in days must be greater than zero")
	}

	uc := &UploadsCleaner{
		records:             records,
		uploadsDir:          uploadsDir,
		cron:                cron.New(),
		retentionTimeInDays: retentionInDays,
		now:                 time.Now,
	}

	_, err := uc.cron.AddFunc("0 0 * * *", uc.cleanOrphanedUploads)
	if err != nil {
		return nil, err
	}
	return uc, nil
}

func (uc *UploadsCleaner) Start() {
	uc.cron.Start()
	log.Infof("uploads cleaner started, retention in days: %d", uc.retentionTimeInDays)
}

func (uc *UploadsCleaner) Stop() {
	<-uc.cron.Stop().Done()
}

// Clean removes expired orphaned uploads and returns how many files were deleted.
func (uc *UploadsCleaner) Clean(ctx context.Context) (int, error) {
	referenced, err := uc.records.ReferencedFiles(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to load referenced files")
	}
	keep := lo.SliceToMap(referenced, func(p string) (string, struct{}) {
		return path.Base(p), struct{}{}
	})

	entries, err := os.ReadDir(uc.uploadsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to read uploads directory")
	}

	expirationTime := uc.now().Add(-time.Duration(uc.retentionTimeInDays) * 24 * time.Hour)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := keep[entry.Name()]; ok {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(expirationTime) {
			continue
		}
		if err := os.Remove(filepath.Join(uc.uploadsDir, entry.Name())); err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeUpload).
				Errorf("failed to remove orphaned upload %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}

	metrics.UploadsRemoved.Add(float64(removed))
	return removed, nil
}

func (uc *UploadsCleaner) cleanOrphanedUploads() {
	removed, err := uc.Clean(context.Background())
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeUpload).
			Errorf("Failed to clean orphaned uploads: %v", err)
	} else {
		log.Infof("Orphaned uploads were cleaned at %v, removed files: %v", time.Now(), removed)
	}
}
