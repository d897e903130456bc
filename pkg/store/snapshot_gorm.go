package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// snapshotModel is the single-row table holding the projection.
type snapshotModel struct {
	Name      string         `gorm:"primaryKey"`
	Data      datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

func (snapshotModel) TableName() string { return "reading_snapshots" }

// GormSnapshotStore persists the projection in Postgres, one row per
// snapshot slot name.
type GormSnapshotStore struct {
	db   *gorm.DB
	name string
}

// NewGormSnapshotStore opens the DB and runs auto-migration.
func NewGormSnapshotStore(dsn, name string) (*GormSnapshotStore, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultSnapshotKey
	}
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&snapshotModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormSnapshotStore{db: db, name: name}, nil
}

// Save upserts the projection row.
func (s *GormSnapshotStore) Save(ctx context.Context, p Projection) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("%w: marshal projection: %w", ErrSnapshotWrite, err)
	}
	model := snapshotModel{
		Name:      s.name,
		Data:      datatypes.JSON(data),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&model).Error; err != nil {
		return fmt.Errorf("%w: upsert snapshot: %w", ErrSnapshotWrite, err)
	}
	return nil
}

// Load reads the projection row.
func (s *GormSnapshotStore) Load(ctx context.Context) (Projection, bool, error) {
	var model snapshotModel
	if err := s.db.WithContext(ctx).First(&model, "name = ?", s.name).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return Projection{}, false, nil
		}
		return Projection{}, false, err
	}
	var p Projection
	if err := json.Unmarshal(model.Data, &p); err != nil {
		return Projection{}, false, fmt.Errorf("parse projection: %w", err)
	}
	return p, true, nil
}
