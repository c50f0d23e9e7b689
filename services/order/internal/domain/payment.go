package domain

// ChargeRequest is sent to the payment service.
type ChargeRequest struct {
	OrderID  int64  `json:"order_id"`
	UserID   int64  `json:"user_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Method   string `json:"method"`
}

type ChargeResult struct {
	PaymentID     int64         `json:"payment_id"`
	TransactionID string        `json:"transaction_id"`
	Status        PaymentStatus `json:"status"`
	PaymentURL    string        `json:"payment_url,omitempty"`
}

type RefundRequest struct {
	OrderID int64  `json:"order_id"`
	Amount  int64  `json:"amount"`
	Reason  string `json:"reason"`
}

type RefundResult struct {
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
}
