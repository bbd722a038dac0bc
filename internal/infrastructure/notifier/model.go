package notifier

import "time"

type CallbackPayload struct {
	TransactionID string    `json:"transaction_id"`
	OrderID       string    `json:"order_id"`
	Status        string    `json:"status"`
	Amount        int64     `json:"amount"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}
