package kafka

type TransactionEvent struct {
	TransactionID string `json:"transaction_id"`
	ClientID      string `json:"client_id"`
	OrderID       string `json:"order_id"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	Provider      string `json:"provider"`
}

// DeadLetterAlert is raised when a job exhausts its retry budget. Consumers
// (ops tooling, paging) are outside this service.
type DeadLetterAlert struct {
	Queue     string `json:"queue"`
	JobID     string `json:"job_id"`
	Attempts  int    `json:"attempts"`
	LastError string `json:"last_error"`
}
