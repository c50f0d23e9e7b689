package domain

import "time"

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusSuccess  Status = "SUCCESS"
	StatusFailed   Status = "FAILED"
	StatusRefunded Status = "REFUNDED"
)

func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusRefunded
}

type Payment struct {
	ID            int64     `json:"id" db:"id"`
	OrderID       int64     `json:"order_id" db:"order_id"`
	UserID        int64     `json:"user_id" db:"user_id"`
	Amount        int64     `json:"amount" db:"amount"`
	Currency      string    `json:"currency" db:"currency"`
	Method        string    `json:"method" db:"method"`
	Provider      string    `json:"provider" db:"provider"`
	TransactionID string    `json:"transaction_id" db:"transaction_id"`
	Status        Status    `json:"status" db:"status"`
	PaymentURL    string    `json:"payment_url,omitempty" db:"payment_url"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

type RefundStatus string

const (
	RefundPending   RefundStatus = "PENDING"
	RefundCompleted RefundStatus = "COMPLETED"
)

type Refund struct {
	ID                int64        `json:"id" db:"id"`
	PaymentID         int64        `json:"payment_id" db:"payment_id"`
	TransactionID     string       `json:"transaction_id" db:"transaction_id"`
	Amount            int64        `json:"amount" db:"amount"`
	Reason            string       `json:"reason" db:"reason"`
	Status            RefundStatus `json:"status" db:"status"`
	ProviderReference string       `json:"provider_reference,omitempty" db:"provider_reference"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
}

type ChargeRequest struct {
	OrderID  int64  `json:"order_id" validate:"required,gt=0"`
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
	Amount   int64  `json:"amount" validate:"gte=0"`
	Currency string `json:"currency"`
	Method   string `json:"method" validate:"required"`
}

type ChargeResult struct {
	PaymentID     int64  `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	Status        Status `json:"status"`
	PaymentURL    string `json:"payment_url,omitempty"`
}

type RefundRequest struct {
	OrderID int64  `json:"order_id" validate:"required,gt=0"`
	Amount  int64  `json:"amount" validate:"gt=0"`
	Reason  string `json:"reason"`
}

type RefundResult struct {
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
}
