package notify

import "context"

// Message is the payload handed to the notification service. Field names
// match the wire contract of the notification consumer.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notifier delivers a single message over some transport. Delivery is
// at-most-once-attempted; the workflow never depends on the outcome.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
