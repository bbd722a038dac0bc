package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lightspeedpay/payment-service/internal/delivery/http/response"
	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/usecase"
)

type PaymentHandler struct {
	Payments usecase.PaymentUsecase
}

func NewPaymentHandler(payments usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{Payments: payments}
}

type initiateRequest struct {
	Amount    int64  `json:"amount" binding:"required,gt=0"`
	OrderID   string `json:"order_id" binding:"required"`
	ClientKey string `json:"client_key" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

type initiateResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	CheckoutURL   string `json:"checkout_url"`
}

func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req initiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	out, err := h.Payments.InitiatePayment(c.Request.Context(), &usecase.InitiatePaymentInput{
		Amount:    req.Amount,
		OrderID:   req.OrderID,
		ClientKey: req.ClientKey,
		Signature: req.Signature,
	})
	if err != nil {
		h.writeInitiateError(c, err)
		return
	}

	response.OK(c, http.StatusCreated, initiateResponse{
		TransactionID: out.TransactionID,
		Status:        string(out.Status),
		CheckoutURL:   out.CheckoutURL,
	})
}

func (h *PaymentHandler) writeInitiateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrClientNotFound):
		response.Fail(c, http.StatusNotFound, "CLIENT_NOT_FOUND", "unknown or inactive client key")
	case errors.Is(err, domain.ErrAuthenticationFailed):
		response.Fail(c, http.StatusUnauthorized, "INVALID_SIGNATURE", "request signature verification failed")
	case errors.Is(err, domain.ErrClientSuspended):
		response.Fail(c, http.StatusForbidden, "CLIENT_SUSPENDED", "outstanding commission balance exceeds the threshold")
	case errors.Is(err, domain.ErrNoGatewayAvailable):
		response.Fail(c, http.StatusServiceUnavailable, "NO_GATEWAY", "no payment gateway is currently available")
	case errors.Is(err, domain.ErrDuplicateOrderID):
		response.Fail(c, http.StatusConflict, "DUPLICATE_ORDER", "order_id was already used by this client")
	default:
		response.Fail(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

type transactionResponse struct {
	TransactionID string     `json:"transaction_id"`
	OrderID       string     `json:"order_id"`
	Amount        int64      `json:"amount"`
	Status        string     `json:"status"`
	CheckoutURL   string     `json:"checkout_url,omitempty"`
	ProviderTxnID string     `json:"provider_txn_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (h *PaymentHandler) GetTransaction(c *gin.Context) {
	txn, err := h.Payments.GetTransaction(c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			response.Fail(c, http.StatusNotFound, "NOT_FOUND", "transaction not found")
			return
		}
		response.Fail(c, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	response.OK(c, http.StatusOK, transactionResponse{
		TransactionID: txn.ID,
		OrderID:       txn.OrderID,
		Amount:        txn.Amount,
		Status:        string(txn.Status),
		CheckoutURL:   txn.CheckoutURL,
		ProviderTxnID: txn.ProviderTxnID,
		CreatedAt:     txn.CreatedAt,
		UpdatedAt:     txn.UpdatedAt,
	})
}
