package repository

import (
	"testing"
	"time"

	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.ClientModel{},
		&models.GatewayModel{},
		&models.GatewayAssignmentModel{},
		&models.GatewayHealthModel{},
		&models.TransactionModel{},
		&models.CommissionWalletModel{},
		&models.PayoutLogModel{},
	))

	// a single connection serializes concurrent access, which sqlite needs
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func now(offsetMinutes int) time.Time {
	return time.Now().Add(time.Duration(offsetMinutes) * time.Minute)
}

func seedClientWithWallet(t *testing.T, db *gorm.DB, clientID string) {
	require.NoError(t, db.Create(&models.ClientModel{
		ID:         clientID,
		ClientKey:  "key-" + clientID,
		ClientSalt: "salt",
		FeePercent: 3.5,
		IsActive:   true,
	}).Error)
	require.NoError(t, db.Create(&models.CommissionWalletModel{
		ID:       "wallet-" + clientID,
		ClientID: clientID,
	}).Error)
}
