// Package repotest opens throwaway SQLite databases carrying the orchestrator schema.
package repotest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"golang-ea-automation/internal/entity"
	"golang-ea-automation/internal/orchestrator/repository"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var seq int64

// NewDB returns an isolated in-memory database with all tables migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, atomic.AddInt64(&seq, 1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedUser inserts a user.
func SeedUser(t *testing.T, db *gorm.DB, email, role string) *entity.User {
	t.Helper()
	u := &entity.User{Email: email, Role: role, Status: entity.UserStatusActive}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedAccount inserts an account owned by userID.
func SeedAccount(t *testing.T, db *gorm.DB, userID uint, number string, status entity.AccountStatus) *entity.TradingAccount {
	t.Helper()
	a := &entity.TradingAccount{
		UserID:           userID,
		AccountNumber:    number,
		Server:           "Demo-Server",
		Platform:         entity.PlatformMT5,
		Status:           status,
		EAStatus:         entity.EAStatusInactive,
		AutomationStatus: entity.AutomationNone,
		Balance:          decimal.NewFromInt(1000),
		Equity:           decimal.NewFromInt(1000),
	}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

// SeedVPS inserts a VPS for accountID.
func SeedVPS(t *testing.T, db *gorm.DB, accountID uint, status entity.VPSStatus) *entity.VPSInstance {
	t.Helper()
	v := &entity.VPSInstance{
		AccountID:          accountID,
		Name:               fmt.Sprintf("MT5-%d", accountID),
		SSHPort:            3389,
		OSType:             "windows",
		Status:             status,
		Provider:           "vultr",
		ProviderInstanceID: fmt.Sprintf("inst-%d", accountID),
	}
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("seed vps: %v", err)
	}
	return v
}
