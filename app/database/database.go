package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	// Registers the cgo-free "sqlite" driver used by the sqlite dialector.
	_ "modernc.org/sqlite"

	"github.com/AsyncXeNo/zenrenne-backend/models"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Options describes how to reach the backing store.
type Options struct {
	Driver string
	DSN    string
	// Debug logs every statement through gorm's logger.
	Debug bool
}

// New opens a gorm connection for the configured driver.
func New(opts Options) (*gorm.DB, error) {
	dialector, err := dialectorFor(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}

	level := logger.Silent
	if opts.Debug {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.Driver == DriverSQLite {
		// One connection: in-memory databases are per connection and SQLite
		// allows a single writer anyway.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverPostgres, "":
		return postgres.Open(dsn), nil
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverSQLite:
		return sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// oneMainImageIndex allows a single main image per variant. MySQL has no
// partial indexes, so there the variant row lock is the only guard.
const oneMainImageIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_variant_images_one_main ON variant_images (variant_id) WHERE is_main`

// AutoMigrate creates or updates every table from the entity definitions.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if db.Dialector.Name() == DriverSQLite {
		if err := db.Exec(oneMainImageIndex).Error; err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
	}
	return nil
}

// Migrate brings the schema up to date: the embedded SQL files on Postgres,
// AutoMigrate on every other driver.
func Migrate(ctx context.Context, db *gorm.DB, opts Options) error {
	if opts.Driver == DriverPostgres || opts.Driver == "" {
		_, err := RunSQLMigrations(ctx, opts.DSN)
		return err
	}
	return AutoMigrate(db)
}

// OpenSQLiteMemory opens a private in-memory database with foreign keys on
// and the schema migrated. name keeps parallel tests apart.
func OpenSQLiteMemory(name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", name)
	db, err := New(Options{Driver: DriverSQLite, DSN: dsn})
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
