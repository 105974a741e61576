package domain

import "time"

type WebhookStatus string

const (
	WebhookStatusQueued  WebhookStatus = "queued"
	WebhookStatusSuccess WebhookStatus = "processed_success"
	WebhookStatusFailure WebhookStatus = "processed_failure"
)

// WebhookLog records one payment webhook delivery per idempotency key and
// gates the at-most-once side effects of processing it.
type WebhookLog struct {
	ID             string
	IdempotencyKey string
	Provider       string
	OrderID        *string
	Status         WebhookStatus
	ProcessedAt    *time.Time
	CreatedAt      time.Time
}

// Processed reports whether the delivery already ran to a terminal status.
func (l WebhookLog) Processed() bool {
	return l.Status == WebhookStatusSuccess || l.Status == WebhookStatusFailure
}
