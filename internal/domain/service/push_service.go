package service

import "context"

// PushMessage is one notification fanned out to device tokens.
type PushMessage struct {
	Tokens []string
	Title  string
	Body   string
	Data   map[string]string
}

// PushReport counts per-token outcomes. Invalid lists tokens the provider will never accept again.
type PushReport struct {
	Sent    int
	Failed  int
	Invalid []string
}

// PushService talks to the mobile push provider.
type PushService interface {
	Push(ctx context.Context, msg *PushMessage) (*PushReport, error)
}
