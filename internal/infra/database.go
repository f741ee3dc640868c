package infra

import (
	"embed"
	"fmt"
	"reflect"

	"atlascrm/internal/model"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewDatabase opens the Postgres pool, creates or updates all tables with
// AutoMigrate, then applies the SQL patches GORM cannot express (partial
// indexes, check constraints) through goose.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations registers callbacks, migrates the models and applies the
// goose patches. Integration tests call it on their container database.
func RunMigrations(db *gorm.DB) error {
	if err := Prepare(db); err != nil {
		return err
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// Prepare installs the callbacks every connection needs, whatever the dialect.
func Prepare(db *gorm.DB) error {
	if db.Callback().Create().Get("atlas:assign_id") != nil {
		return nil
	}
	return db.Callback().Create().Before("gorm:create").Register("atlas:assign_id", assignID)
}

// assignID fills zero uuid primary keys before insert so rows get their id
// without relying on a database default.
func assignID(db *gorm.DB) {
	if db.Statement.Schema == nil {
		return
	}
	field := db.Statement.Schema.PrioritizedPrimaryField
	if field == nil || field.FieldType != reflect.TypeOf(uuid.UUID{}) {
		return
	}
	ctx := db.Statement.Context
	set := func(rv reflect.Value) {
		if _, zero := field.ValueOf(ctx, rv); zero {
			_ = field.Set(ctx, rv, uuid.New())
		}
	}
	rv := db.Statement.ReflectValue
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			set(reflect.Indirect(rv.Index(i)))
		}
	case reflect.Struct:
		set(rv)
	}
}

func applySchemaPatches(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(sqlDB, "migrations")
}
