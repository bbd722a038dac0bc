package mappers

import (
	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/models"
)

func ToDomainTransaction(model *models.TransactionModel) *domain.Transaction {
	return &domain.Transaction{
		ID:            model.ID,
		ClientID:      model.ClientID,
		GatewayID:     model.GatewayID,
		OrderID:       model.OrderID,
		Amount:        model.Amount,
		Status:        model.Status,
		ProviderTxnID: model.ProviderTxnID,
		CheckoutURL:   model.CheckoutURL,
		RawResponse:   model.RawResponse,
		Attempts:      model.Attempts,
		NextRetryAt:   model.NextRetryAt,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

func ToGORMTransaction(txn *domain.Transaction) *models.TransactionModel {
	return &models.TransactionModel{
		ID:            txn.ID,
		ClientID:      txn.ClientID,
		GatewayID:     txn.GatewayID,
		OrderID:       txn.OrderID,
		Amount:        txn.Amount,
		Status:        txn.Status,
		ProviderTxnID: txn.ProviderTxnID,
		CheckoutURL:   txn.CheckoutURL,
		RawResponse:   txn.RawResponse,
		Attempts:      txn.Attempts,
		NextRetryAt:   txn.NextRetryAt,
	}
}
