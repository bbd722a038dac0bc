package postgres

import (
	"log"

	"github.com/lightspeedpay/payment-service/internal/config"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func MustInitDB(cfg *config.PaymentConfig) *gorm.DB {
	dsn := cfg.PaymentDB.Dsn
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	db.AutoMigrate(
		&models.ClientModel{},
		&models.GatewayModel{},
		&models.GatewayAssignmentModel{},
		&models.GatewayHealthModel{},
		&models.TransactionModel{},
		&models.CommissionWalletModel{},
		&models.PayoutLogModel{},
		&models.JobModel{},
	)

	return db
}
