// Package jobs defines the background job messages exchanged between the
// API and the worker, and the Pub/Sub publisher the API uses to enqueue
// them.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Job types carried in Message.JobType.
const (
	// JobProcessRequest asks the worker to fulfil one data rights request.
	JobProcessRequest = "process_request"

	// JobDeadlineSweep asks the worker to flag requests past their
	// statutory deadline.
	JobDeadlineSweep = "deadline_sweep"
)

// Message is the wire format for worker jobs.
type Message struct {
	JobType   string `json:"job_type"`
	RequestID string `json:"request_id,omitempty"`
}

// Publisher publishes job messages to the worker topic.
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Publisher
	logger zerolog.Logger
}

// PublisherConfig holds configuration for the publisher.
type PublisherConfig struct {
	ProjectID string
	TopicName string
	Logger    zerolog.Logger
}

// NewPublisher creates a Pub/Sub publisher for worker jobs.
func NewPublisher(ctx context.Context, cfg PublisherConfig) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &Publisher{
		client: client,
		topic:  client.Publisher(cfg.TopicName),
		logger: cfg.Logger.With().Str("component", "job_publisher").Logger(),
	}, nil
}

// Close flushes pending messages and closes the client.
func (p *Publisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}

// PublishProcessRequest enqueues a process_request job for the given
// request.
func (p *Publisher) PublishProcessRequest(ctx context.Context, requestID string) error {
	return p.publish(ctx, Message{JobType: JobProcessRequest, RequestID: requestID})
}

// PublishDeadlineSweep enqueues a deadline_sweep job.
func (p *Publisher) PublishDeadlineSweep(ctx context.Context) error {
	return p.publish(ctx, Message{JobType: JobDeadlineSweep})
}

func (p *Publisher) publish(ctx context.Context, message Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshaling job message: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publishing job message: %w", err)
	}

	p.logger.Debug().
		Str("job_type", message.JobType).
		Str("request_id", message.RequestID).
		Str("message_id", id).
		Msg("job published")
	return nil
}
