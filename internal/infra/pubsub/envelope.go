// Package pubsub moves background jobs from the API to a JobHandler, either in
// process or through a push subscription.
package pubsub

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"tradepost/internal/domain/service"

	"github.com/pkg/errors"
)

// localSubscription names the emulated subscription in push bodies sent by the HTTP publisher.
const localSubscription = "projects/local/subscriptions/tradepost-jobs"

// PushMessage is the body a push subscription POSTs to the worker.
type PushMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// EncodeJob wraps a job the way Pub/Sub push delivery does.
func EncodeJob(job *service.Job, subscription string, publishedAt time.Time) (*PushMessage, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode job")
	}

	msg := &PushMessage{Subscription: subscription}
	msg.Message.Data = base64.StdEncoding.EncodeToString(data)
	msg.Message.Attributes = attributesFor(job)
	msg.Message.MessageID = job.JobID
	msg.Message.PublishTime = publishedAt.UTC().Format(time.RFC3339)

	return msg, nil
}

// DecodeJob unwraps the job. A job without its own id takes the message id.
func (m *PushMessage) DecodeJob() (*service.Job, error) {
	data, err := base64.StdEncoding.DecodeString(m.Message.Data)
	if err != nil {
		return nil, errors.Wrap(err, "message data is not base64")
	}

	var job service.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, errors.Wrap(err, "message data is not a job")
	}
	if job.JobID == "" {
		job.JobID = m.Message.MessageID
	}

	return &job, nil
}

// attributesFor lets subscriptions filter on the job type and carries the request id.
func attributesFor(job *service.Job) map[string]string {
	attrs := map[string]string{
		"job_id": job.JobID,
		"type":   job.Type,
	}
	if job.ItemID != "" {
		attrs["item_id"] = job.ItemID
	}
	if job.RequestID != "" {
		attrs["request_id"] = job.RequestID
	}

	return attrs
}
