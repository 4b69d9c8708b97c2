package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"joints/internal/models"
	"joints/internal/observability"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// collectionRecord holds one whole collection as a JSON array.
type collectionRecord struct {
	Name      string `gorm:"primaryKey;type:varchar(64)"`
	Body      string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (collectionRecord) TableName() string {
	return "collections"
}

// GORMStore keeps each collection in a single row of the collections table.
// It has the same whole-collection semantics as FileStore.
type GORMStore struct {
	db *gorm.DB
}

// NewGORMStore migrates the collections table and returns a store on db.
func NewGORMStore(db *gorm.DB) (*GORMStore, error) {
	if err := db.AutoMigrate(&collectionRecord{}); err != nil {
		return nil, models.NewStorageError("migrate", "collections", err)
	}
	return &GORMStore{db: db}, nil
}

// Load returns the collection stored under name.
func (s *GORMStore) Load(ctx context.Context, name string) ([]Document, error) {
	defer observability.TrackStore("load", name)()

	if err := checkName(name); err != nil {
		return nil, models.NewStorageError("load", name, err)
	}

	var rec collectionRecord
	err := s.db.WithContext(ctx).First(&rec, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []Document{}, nil
	}
	if err != nil {
		observability.StoreErrors.WithLabelValues("load", name).Inc()
		return nil, models.NewStorageError("load", name, err)
	}

	docs, err := decodeDocuments([]byte(rec.Body))
	if err != nil {
		observability.StoreErrors.WithLabelValues("load", name).Inc()
		return nil, models.NewStorageError("load", name, err)
	}
	return docs, nil
}

// Save upserts the collection row.
func (s *GORMStore) Save(ctx context.Context, name string, docs []Document) error {
	defer observability.TrackStore("save", name)()

	if err := checkName(name); err != nil {
		return models.NewStorageError("save", name, err)
	}

	data, err := encodeDocuments(docs)
	if err != nil {
		return models.NewStorageError("save", name, err)
	}

	rec := collectionRecord{Name: name, Body: string(data), UpdatedAt: time.Now()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		observability.StoreErrors.WithLabelValues("save", name).Inc()
		return models.NewStorageError("save", name, err)
	}
	return nil
}

// OpenDB opens a gorm connection for the "sqlite" or "postgres" driver.
func OpenDB(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	return db, nil
}
