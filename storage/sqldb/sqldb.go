// Package sqldb implements a datastore on a SQL database through GORM.
// One stored object is one row; the primary key on the object path makes
// the fail-if-exists write atomic on the database server.
package sqldb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/datrocity/pond/storage"
)

// Config contains the database connection settings.
type Config struct {
	// Driver selects the database driver: "sqlite" (pure Go, default),
	// "sqlite3" (cgo), "mysql" or "postgres".
	Driver string `json:"driver" yaml:"driver"`
	// DSN is the driver-specific data source name.
	DSN string `json:"dsn" yaml:"dsn"`
	// MaxOpenConns bounds the connection pool; 0 keeps the driver default.
	MaxOpenConns int `json:"max_open_conns" yaml:"max_open_conns"`
}

// Object is one stored blob. Location, Name and Version are denormalized
// from the path so version listing stays a single indexed query.
type Object struct {
	Path      string `gorm:"primaryKey;size:512"`
	Location  string `gorm:"size:256;index:idx_objects_artifact"`
	Name      string `gorm:"size:128;index:idx_objects_artifact"`
	Version   string `gorm:"size:64"`
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the table name stable across GORM naming strategies.
func (Object) TableName() string { return "pond_objects" }

// Datastore stores objects as rows in a single table.
type Datastore struct {
	id string
	db *gorm.DB
}

// New opens the database, migrates the objects table, and returns the
// datastore.
func New(id string, cfg Config) (*Datastore, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("access connection pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.AutoMigrate(&Object{}); err != nil {
		return nil, fmt.Errorf("migrate objects table: %w", err)
	}

	return &Datastore{id: id, db: db}, nil
}

func openDialector(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return sqlite.Open(cfg.DSN), nil
	case "sqlite3":
		return gormsqlite.Open(cfg.DSN), nil
	case "mysql":
		return gormmysql.Open(cfg.DSN), nil
	case "postgres":
		return gormpostgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unknown sql driver %q", cfg.Driver)
	}
}

func (d *Datastore) ID() string { return d.id }

func (d *Datastore) Exists(ctx context.Context, path string) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&Object{}).
		Where("path = ?", path).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("sql exists: %w", err)
	}
	return count > 0, nil
}

func (d *Datastore) ListVersions(ctx context.Context, location, name string) ([]string, error) {
	var versions []string
	err := d.db.WithContext(ctx).Model(&Object{}).
		Distinct("version").
		Where("location = ? AND name = ? AND version <> ''", location, name).
		Pluck("version", &versions).Error
	if err != nil {
		return nil, fmt.Errorf("sql list versions: %w", err)
	}
	return versions, nil
}

func (d *Datastore) Read(ctx context.Context, path string) ([]byte, error) {
	var obj Object
	err := d.db.WithContext(ctx).First(&obj, "path = ?", path).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sql read: %w", err)
	}
	return obj.Data, nil
}

func (d *Datastore) Write(ctx context.Context, path string, data []byte, overwrite bool) error {
	obj := objectFromPath(path, data)

	if overwrite {
		err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "path"}},
			UpdateAll: true,
		}).Create(&obj).Error
		if err != nil {
			return fmt.Errorf("sql write: %w", err)
		}
		return nil
	}

	// INSERT .. ON CONFLICT DO NOTHING: the database decides the winner.
	res := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoNothing: true,
	}).Create(&obj)
	if res.Error != nil {
		return fmt.Errorf("sql write: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrAlreadyExists
	}
	return nil
}

func (d *Datastore) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// objectFromPath denormalizes the trailing path segments. The artifact
// layout is <location>/<name>/<version>/<filename> where only the
// location may contain slashes.
func objectFromPath(path string, data []byte) Object {
	obj := Object{Path: path, Data: data}
	parts := strings.Split(path, "/")
	if len(parts) >= 4 {
		obj.Location = strings.Join(parts[:len(parts)-3], "/")
		obj.Name = parts[len(parts)-3]
		obj.Version = parts[len(parts)-2]
	}
	return obj
}

var _ storage.Datastore = (*Datastore)(nil)
