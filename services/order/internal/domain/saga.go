package domain

import "time"

type SagaStatus string

const (
	SagaStatusRunning      SagaStatus = "RUNNING"
	SagaStatusCompleted    SagaStatus = "COMPLETED"
	SagaStatusCompensating SagaStatus = "COMPENSATING"
	SagaStatusCompensated  SagaStatus = "COMPENSATED"
)

type StepKind string

const (
	StepConfirmReservation StepKind = "CONFIRM_RESERVATION"
	StepPersistOrder       StepKind = "PERSIST_ORDER"
	StepDecrementQuota     StepKind = "DECREMENT_QUOTA"
)

type StepStatus string

const (
	StepStatusDone        StepStatus = "DONE"
	StepStatusCompensated StepStatus = "COMPENSATED"
)

type Saga struct {
	ID        string     `db:"id"`
	OrderID   *int64     `db:"order_id"`
	Status    SagaStatus `db:"status"`
	LastError *string    `db:"last_error"`
	Attempts  int32      `db:"attempts"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// SagaStep is a completed forward action and the data needed to undo it.
type SagaStep struct {
	SagaID   string     `db:"saga_id"`
	Seq      int32      `db:"seq"`
	Kind     StepKind   `db:"kind"`
	RefID    int64      `db:"ref_id"`
	Quantity int64      `db:"quantity"`
	Status   StepStatus `db:"status"`
}
