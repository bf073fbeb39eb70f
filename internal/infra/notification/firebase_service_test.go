package notification

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"tradepost/internal/domain/service"
	"tradepost/internal/testutil"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	batches [][]string
	err     error
}

func (f *fakeSender) SendEachForMulticast(_ context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, message.Tokens)

	responses := make([]*messaging.SendResponse, len(message.Tokens))
	for i := range message.Tokens {
		responses[i] = &messaging.SendResponse{Success: true}
	}

	return &messaging.BatchResponse{SuccessCount: len(message.Tokens), Responses: responses}, nil
}

func TestChunkTokens(t *testing.T) {
	tokens := make([]string, 1001)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("t%d", i)
	}

	batches := chunkTokens(tokens, maxMulticastTokens)

	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 500)
	assert.Len(t, batches[1], 500)
	assert.Equal(t, []string{"t1000"}, batches[2])
	assert.Empty(t, chunkTokens(nil, maxMulticastTokens))
}

func TestFirebaseService_Push_SplitsBatches(t *testing.T) {
	sender := &fakeSender{}
	svc := &firebaseService{client: sender, logger: testutil.NewLogger()}
	tokens := make([]string, 750)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("token-%d", i)
	}

	report, err := svc.Push(context.Background(), &service.PushMessage{Tokens: tokens, Title: "title", Body: "body"})

	require.NoError(t, err)
	assert.Equal(t, 750, report.Sent)
	assert.Zero(t, report.Failed)
	assert.Empty(t, report.Invalid)
	assert.Len(t, sender.batches, 2)
}

func TestFirebaseService_Push_NoTokens(t *testing.T) {
	sender := &fakeSender{}
	svc := &firebaseService{client: sender, logger: testutil.NewLogger()}

	report, err := svc.Push(context.Background(), &service.PushMessage{Title: "title", Body: "body"})

	require.NoError(t, err)
	assert.Equal(t, &service.PushReport{}, report)
	assert.Empty(t, sender.batches)
}

func TestFirebaseService_Push_TransportError(t *testing.T) {
	svc := &firebaseService{client: &fakeSender{err: errors.New("unavailable")}, logger: testutil.NewLogger()}

	_, err := svc.Push(context.Background(), &service.PushMessage{Tokens: []string{"a"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send multicast notification")
}
