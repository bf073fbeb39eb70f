package service

import "context"

// EmailMessage is a plain text email.
type EmailMessage struct {
	To      string
	Subject string
	Body    string

	// OnDelivered runs after the transport accepted the message.
	OnDelivered func(ctx context.Context)
}

// Mailer delivers a message synchronously.
type Mailer interface {
	Send(ctx context.Context, msg *EmailMessage) error
}

// MailQueue hands messages to background workers. It never blocks on the transport.
type MailQueue interface {
	// Enqueue schedules a message and reports false when the queue is full or closed.
	Enqueue(msg *EmailMessage) bool
}
