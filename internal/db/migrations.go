package db

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Migrations returns the ordered schema migrations.
func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "001_interview_playbooks",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&PlaybookModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(TablePlaybooks)
			},
		},
		{
			// lookups and upserts ignore case
			ID: "002_playbooks_unique_key",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_playbooks_key
					ON interview_playbooks (lower(role), lower(skill), lower(seniority))`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec(`DROP INDEX IF EXISTS idx_playbooks_key`).Error
			},
		},
		{
			ID: "003_session_states",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&SessionStateModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(TableSessionStates)
			},
		},
	}
}

// OpenGorm opens a gorm handle used only for migrations.
func OpenGorm(databaseURL string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database for migrations: %w", err)
	}
	return gdb, nil
}

// Migrate applies every pending migration.
func Migrate(gdb *gorm.DB, log *zap.Logger) error {
	m := gormigrate.New(gdb, gormigrate.DefaultOptions, Migrations())
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if log != nil {
		log.Info("migrations applied", zap.Int("count", len(Migrations())))
	}
	return nil
}

// RollbackLast reverts the most recent migration.
func RollbackLast(gdb *gorm.DB, log *zap.Logger) error {
	m := gormigrate.New(gdb, gormigrate.DefaultOptions, Migrations())
	if err := m.RollbackLast(); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	if log != nil {
		log.Info("rolled back last migration")
	}
	return nil
}
