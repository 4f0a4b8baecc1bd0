package storage

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"ballot-backend/models"
)

type ballotObjectModel struct {
	ObjectKey   string    `gorm:"column:object_key;primaryKey"`
	Body        []byte    `gorm:"column:body;not null"`
	ContentType string    `gorm:"column:content_type;not null"`
	Digest      string    `gorm:"column:digest;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null"`
}

func (ballotObjectModel) TableName() string {
	return "ballot_objects"
}

// PostgresStore persists ballot objects in PostgreSQL through gorm.
type PostgresStore struct {
	db *gorm.DB
}

// OpenPostgresStore connects to dsn and makes sure the table exists.
func OpenPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	store := &PostgresStore{db: db}
	if err := db.WithContext(ctx).AutoMigrate(&ballotObjectModel{}); err != nil {
		_ = store.Close()
		return nil, errors.Wrap(err, "migrate ballot_objects")
	}
	return store, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresStore) Put(ctx context.Context, key models.DerivedKey, payload []byte) error {
	if s == nil || s.db == nil {
		return unavailable("put", key, errors.New("storage is not configured"))
	}
	record := models.NewStorageRecord(key, payload)
	row := ballotObjectModel{
		ObjectKey:   record.Key,
		Body:        record.Body,
		ContentType: record.ContentType,
		Digest:      record.Digest.Hex(),
		UpdatedAt:   record.UpdatedAt,
	}
	create := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "object_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "content_type", "digest", "updated_at"}),
	}).Create(&row)
	if create.Error != nil {
		return unavailable("put", key, errors.Wrap(create.Error, "upsert ballot object"))
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key models.DerivedKey) (models.StorageRecord, error) {
	if s == nil || s.db == nil {
		return models.StorageRecord{}, unavailable("get", key, errors.New("storage is not configured"))
	}
	var row ballotObjectModel
	err := s.db.WithContext(ctx).
		Where("object_key = ?", key.ObjectKey()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.StorageRecord{}, ErrNotFound
		}
		return models.StorageRecord{}, unavailable("get", key, errors.Wrap(err, "select ballot object"))
	}
	record := models.StorageRecord{
		Key:         row.ObjectKey,
		Body:        row.Body,
		ContentType: row.ContentType,
		Digest:      common.HexToHash(row.Digest),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
	if !record.Verify() {
		return models.StorageRecord{}, unavailable("get", key, errors.New("ballot digest mismatch"))
	}
	return record, nil
}
