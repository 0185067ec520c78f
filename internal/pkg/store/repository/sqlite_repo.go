package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Nevi32/wofuo1/internal/pkg/consts"
	"github.com/Nevi32/wofuo1/internal/service/interfaces"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ledgerBlob is one row of the key/value table holding serialized snapshots.
type ledgerBlob struct {
	Key       string `gorm:"column:blob_key;primaryKey;size:128"`
	Data      []byte
	UpdatedAt time.Time
}

func (ledgerBlob) TableName() string { return consts.SQLiteBlobTable }

// SQLiteBlobRepository keeps the serialized ledger snapshot in a SQLite file,
// for single-machine installs without Redis.
type SQLiteBlobRepository struct {
	db  *gorm.DB
	key string
}

// OpenSQLite opens (creating when needed) the SQLite database at path.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	return db, nil
}

func NewSQLiteBlobRepository(db *gorm.DB, key string) (*SQLiteBlobRepository, error) {
	if err := db.AutoMigrate(&ledgerBlob{}); err != nil {
		return nil, fmt.Errorf("failed to migrate %s: %w", consts.SQLiteBlobTable, err)
	}
	return &SQLiteBlobRepository{db: db, key: key}, nil
}

func (r *SQLiteBlobRepository) Load(ctx context.Context) ([]byte, error) {
	var row ledgerBlob
	err := r.db.WithContext(ctx).First(&row, "blob_key = ?", r.key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, interfaces.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot key %s: %w", r.key, err)
	}
	return row.Data, nil
}

func (r *SQLiteBlobRepository) Store(ctx context.Context, data []byte) error {
	row := ledgerBlob{Key: r.key, Data: data, UpdatedAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("failed to write snapshot key %s: %w", r.key, err)
	}
	return nil
}

// Update runs the read-modify-write inside one SQLite transaction.
func (r *SQLiteBlobRepository) Update(ctx context.Context, fn func(current []byte) ([]byte, error)) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row ledgerBlob
		var current []byte
		err := tx.First(&row, "blob_key = ?", r.key).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return fmt.Errorf("failed to read snapshot key %s: %w", r.key, err)
		default:
			current = row.Data
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		return tx.Save(&ledgerBlob{Key: r.key, Data: next, UpdatedAt: time.Now().UTC()}).Error
	})
}

func (r *SQLiteBlobRepository) Clear(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Delete(&ledgerBlob{}, "blob_key = ?", r.key).Error; err != nil {
		return fmt.Errorf("failed to delete snapshot key %s: %w", r.key, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (r *SQLiteBlobRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
