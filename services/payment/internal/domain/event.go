package domain

// Completion is a provider's final word on a pending payment, from the
// simulated return page or a Stripe webhook.
type Completion struct {
	TransactionID string
	Status        Status
}
