package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/example/uniform-control/internal/classifier"
)

// DetectionRecord is a persisted detection, mirroring the legacy
// `detecciones` table.
type DetectionRecord struct {
	ID          uint      `gorm:"primaryKey"`
	IsCompliant bool      `gorm:"column:is_compliant"`
	Confidence  float64   `gorm:"column:confidence"`
	UniformType string    `gorm:"column:uniform_type;size:128"`
	Timestamp   string    `gorm:"column:timestamp;size:32"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name.
func (DetectionRecord) TableName() string {
	return "detecciones"
}

// DetectionRepository persists verdicts when a database sink is configured.
// It is optional infrastructure: the request pipeline works identically
// without it.
type DetectionRepository struct {
	db *gorm.DB
}

// NewDetectionRepository creates a new repository instance.
func NewDetectionRepository(db *gorm.DB) *DetectionRepository {
	return &DetectionRepository{db: db}
}

// AutoMigrate ensures the schema is available.
func (r *DetectionRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&DetectionRecord{})
}

// Save persists one verdict.
func (r *DetectionRepository) Save(ctx context.Context, verdict classifier.Verdict) error {
	record := DetectionRecord{
		IsCompliant: verdict.IsCompliant,
		Confidence:  verdict.Confidence,
		UniformType: verdict.UniformType,
		Timestamp:   verdict.Timestamp,
		CreatedAt:   time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Create(&record).Error
}
