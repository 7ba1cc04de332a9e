package db

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/model"
)

// Open returns a connected GORM DB instance for the configured driver.
func Open(driver, dsn string, log logrus.FieldLogger) (*gorm.DB, error) {
	switch driver {
	case "mysql", "":
		return NewMySQL(dsn, log)
	case "postgres", "postgresql":
		return NewPostgres(dsn, log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// NewMySQL returns a connected GORM DB instance backed by MySQL.
func NewMySQL(dsn string, log logrus.FieldLogger) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return db, nil
}

// NewPostgres returns a connected GORM DB instance backed by PostgreSQL.
func NewPostgres(dsn string, log logrus.FieldLogger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Session{},
		&model.Account{},
		&model.Customer{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderEvent{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// DropAll removes every table in reverse dependency order.
func DropAll(db *gorm.DB) error {
	tables := []interface{}{
		&model.OrderEvent{},
		&model.OrderItem{},
		&model.Order{},
		&model.Customer{},
		&model.Product{},
		&model.Account{},
		&model.Session{},
		&model.User{},
	}
	for _, table := range tables {
		if err := db.Migrator().DropTable(table); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	return nil
}

func gormConfig(log logrus.FieldLogger) *gorm.Config {
	cfg := &gorm.Config{}
	if log != nil {
		cfg.Logger = logger.New(logWriter{log: log}, logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}
	return cfg
}

// logWriter adapts logrus to gorm's logger.Writer.
type logWriter struct {
	log logrus.FieldLogger
}

func (w logWriter) Printf(format string, args ...interface{}) {
	w.log.WithField("component", "gorm").Warnf(format, args...)
}
