// Package testutil stellt eine migrierte In-Memory-Datenbank für Tests bereit.
package testutil

import (
	"testing"

	"medline-loader/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// DB gibt eine frische, migrierte SQLite-Datenbank zurück, die nur dieser Test sieht.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := storage.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

// Store umhüllt DB(tb) als storage.DB.
func Store(tb testing.TB) (*storage.DB, *gorm.DB) {
	tb.Helper()
	db := DB(tb)
	return storage.NewDB(db, 50, 0), db
}

// Logger schreibt in die Testausgabe.
func Logger(tb testing.TB) *zap.Logger {
	return zaptest.NewLogger(tb)
}

// Count zählt die Zeilen der Tabelle von model.
func Count(tb testing.TB, db *gorm.DB, model any) int64 {
	tb.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		tb.Fatalf("count %T: %v", model, err)
	}
	return n
}
