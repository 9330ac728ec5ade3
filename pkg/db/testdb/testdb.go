// Package testdb opens isolated in-memory SQLite databases carrying the full
// BazaarLink schema for package tests.
package testdb

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/bazaarlink-backend/pkg/db"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
)

// Models lists every table the services touch.
var Models = []any{
	&models.Customer{},
	&models.Address{},
	&models.Vendor{},
	&models.Courier{},
	&models.BankAccount{},
	&models.Product{},
	&models.CartLine{},
	&models.Coupon{},
	&models.OrderGroup{},
	&models.Order{},
	&models.OrderItem{},
	&models.VendorPickup{},
	&models.DeliveryOTP{},
	&models.Wallet{},
	&models.WalletTransaction{},
	&models.CashoutRequest{},
	&models.OutboxEvent{},
	&models.OutboxDLQ{},
}

// Open returns a fresh database. A single connection serializes concurrent
// transactions the same way row locks would on Postgres.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(Models...); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

// Client wraps Open in a db.Client for services that need WithTx.
func Client(t *testing.T) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.NewFromGorm(conn), conn
}

// MustCreate inserts each row or fails the test.
func MustCreate(t *testing.T, conn *gorm.DB, rows ...any) {
	t.Helper()
	for _, row := range rows {
		if err := conn.Create(row).Error; err != nil {
			t.Fatalf("seed %T: %v", row, err)
		}
	}
}
