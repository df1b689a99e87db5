// Package database opens the gorm connection (SQLite or PostgreSQL), migrates
// the schema and seeds the configured admin account.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inkpost/blog/config"
	"github.com/inkpost/blog/database/model"
	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/util/crypto"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func initModels(db *gorm.DB) error {
	models := []any{
		&model.User{},
		&model.Post{},
		&model.Comment{},
		&model.AuditLog{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			logger.Warningf("Error auto migrating model %T: %v", m, err)
			return err
		}
	}
	return nil
}

// Open connects to the configured database and migrates the schema.
func Open(c *config.DatabaseConfig) (*gorm.DB, error) {
	if err := c.ValidateConfig(); err != nil {
		return nil, err
	}
	if err := c.EnsureDirectoryExists(); err != nil {
		return nil, err
	}

	var gormLogger gormlogger.Interface
	if config.IsDebug() {
		gormLogger = gormlogger.Default
	} else {
		gormLogger = gormlogger.Discard
	}

	gc := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	}

	var dialector gorm.Dialector
	if c.IsPostgreSQL() {
		dialector = postgres.Open(c.GetDSN())
	} else {
		dialector = sqlite.Open(c.GetDSN() + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on")
	}

	db, err := gorm.Open(dialector, gc)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if c.IsSQLite() {
		// One writer at a time: concurrent inserts queue up and the unique
		// indexes, not the lock, decide which one wins.
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON;").Error; err != nil {
			return nil, err
		}
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := initModels(db); err != nil {
		return nil, err
	}
	return db, nil
}

// SeedAdmin creates an admin account with the given email unless one exists.
// An existing account is left untouched, whatever its role.
func SeedAdmin(db *gorm.DB, email, password string) error {
	if email == "" {
		return nil
	}
	key := model.NormalizeEmail(email)

	user := &model.User{}
	err := db.Where("email_key = ?", key).First(user).Error
	if IsNotFound(err) {
		hash, err := crypto.HashPasswordAsBcrypt(password)
		if err != nil {
			return err
		}
		user = &model.User{
			Email:        email,
			EmailKey:     key,
			DisplayName:  "admin",
			PasswordHash: hash,
			Role:         model.RoleAdmin,
		}
		if err := db.Create(user).Error; err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		logger.Infof("created admin account %s", email)
		return nil
	} else if err != nil {
		return err
	}

	if user.Role != model.RoleAdmin {
		// the account's password belongs to whoever registered it
		logger.Warningf("%s is a self-registered account and was not made admin; run `user promote --email %s` to grant it", email, email)
	}
	return nil
}

// Close checkpoints the SQLite WAL and closes the pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if db.Dialector.Name() == "sqlite" {
		if err := Checkpoint(db); err != nil {
			logger.Warningf("error executing checkpoint: %v", err)
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Pinger adapts db to readiness probes.
type Pinger struct {
	DB *gorm.DB
}

func (p Pinger) Ping(ctx context.Context) error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a unique constraint violation.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func Checkpoint(db *gorm.DB) error {
	return db.Exec("PRAGMA wal_checkpoint;").Error
}
