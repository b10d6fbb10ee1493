package storage

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/pstuifzand/tui-mindmap/internal/model"
)

// documentRow is one stored document per key
type documentRow struct {
	Key       string    `gorm:"column:doc_key;primaryKey"`
	Body      string    `gorm:"column:body;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (documentRow) TableName() string { return "documents" }

// SQLiteStore keeps the document as a row in a SQLite database
type SQLiteStore struct {
	db  *gorm.DB
	key string
}

// NewSQLiteStore opens (and creates if needed) the database at path.
func NewSQLiteStore(path, key string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, model.NewStorageError("open", errors.Wrap(err, "failed to create directory"))
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, model.NewStorageError("open", errors.Wrap(err, "failed to open database"))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, model.NewStorageError("open", err)
	}
	// one connection: writers are serialized and ":memory:" stays a single database
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&documentRow{}); err != nil {
		sqlDB.Close()
		return nil, model.NewStorageError("open", errors.Wrap(err, "failed to migrate schema"))
	}

	if key == "" {
		key = DefaultKey
	}
	return &SQLiteStore{db: db, key: key}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*model.Document, error) {
	var row documentRow
	err := s.db.WithContext(ctx).Where("doc_key = ?", s.key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewStorageError("load", errors.Wrap(err, "failed to query document"))
	}
	return decodeLoaded([]byte(row.Body))
}

// Save upserts the row inside a transaction.
func (s *SQLiteStore) Save(ctx context.Context, doc *model.Document) error {
	data, restore, err := encodeForSave(doc)
	if err != nil {
		return model.NewStorageError("save", err)
	}

	row := documentRow{
		Key:       s.key,
		Body:      string(data),
		UpdatedAt: *doc.UpdatedAt,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "doc_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
		}).Create(&row).Error
	})
	if err != nil {
		restore()
		return model.NewStorageError("save", errors.Wrap(err, "failed to write document"))
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).Where("doc_key = ?", s.key).Delete(&documentRow{}).Error
	if err != nil {
		return model.NewStorageError("clear", errors.Wrap(err, "failed to delete document"))
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
