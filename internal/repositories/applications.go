package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/maxaizer/apply-archive/internal/entities"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var ErrDuplicateID = errors.New("record with this id already exists")

// Applications is the document store behind the applications API.
type Applications struct {
	db *gorm.DB
}

func NewApplicationsRepository(db *gorm.DB) *Applications {
	return &Applications{db: db}
}

func (repo *Applications) GetAll(ctx context.Context) ([]entities.JobRecord, error) {

	var docs []entities.ApplicationDocument
	if err := repo.db.WithContext(ctx).Order("created_at").Find(&docs).Error; err != nil {
		return nil, err
	}

	records := make([]entities.JobRecord, 0, len(docs))
	for _, doc := range docs {
		record, err := decodeDocument(doc)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (repo *Applications) GetByID(ctx context.Context, id string) (*entities.JobRecord, error) {

	var doc entities.ApplicationDocument
	if err := repo.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	record, err := decodeDocument(doc)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (repo *Applications) Add(ctx context.Context, record entities.JobRecord) error {
	doc, err := encodeDocument(record)
	if err != nil {
		return err
	}

	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.ApplicationDocument{}).Where("id = ?", record.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateID
		}
		return tx.Create(&doc).Error
	})
}

// Update returns false when there is no document with the record's id.
func (repo *Applications) Update(ctx context.Context, record entities.JobRecord) (bool, error) {
	doc, err := encodeDocument(record)
	if err != nil {
		return false, err
	}

	res := repo.db.WithContext(ctx).Model(&entities.ApplicationDocument{}).Where("id = ?", record.ID).
		Updates(map[string]any{
			"status":       doc.Status,
			"company_name": doc.CompanyName,
			"last_updated": doc.LastUpdated,
			"document":     doc.Document,
		})
	return res.RowsAffected > 0, res.Error
}

func (repo *Applications) Remove(ctx context.Context, id string) (bool, error) {
	res := repo.db.WithContext(ctx).Delete(&entities.ApplicationDocument{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

// ReferencedFiles returns every resume and cover letter path some record points to.
func (repo *Applications) ReferencedFiles(ctx context.Context) ([]string, error) {
	records, err := repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, record := range records {
		if record.ResumePath != "" {
			paths = append(paths, record.ResumePath)
		}
		if record.CoverLetterPath != "" {
			paths = append(paths, record.CoverLetterPath)
		}
	}
	return paths, nil
}

func (repo *Applications) Ping(ctx context.Context) error {
	db, err := repo.db.DB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func encodeDocument(record entities.JobRecord) (entities.ApplicationDocument, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return entities.ApplicationDocument{}, fmt.Errorf("failed to encode record %s: %w", record.ID, err)
	}
	return entities.ApplicationDocument{
		ID:          record.ID,
		Status:      string(record.Status),
		CompanyName: record.CompanyName,
		LastUpdated: record.LastUpdated,
		Document:    raw,
	}, nil
}

func decodeDocument(doc entities.ApplicationDocument) (entities.JobRecord, error) {
	var record entities.JobRecord
	if err := json.Unmarshal(doc.Document, &record); err != nil {
		return entities.JobRecord{}, fmt.Errorf("failed to decode document %s: %w", doc.ID, err)
	}
	return record, nil
}
