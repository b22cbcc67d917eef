// Package broker publishes streamed workflow fragments to RabbitMQ so that
// consumers outside the process can follow a run live.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/stellar-agentkit/stellarflow/stream"
	"github.com/stellar-agentkit/stellarflow/workflow"
)

// DefaultQueue is the queue used when Config.Queue is empty.
const DefaultQueue = "stellarflow.fragments"

// Config describes the RabbitMQ connection.
type Config struct {
	URL   string
	Queue string
}

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends JSON messages to a durable queue.
type Publisher struct {
	mu    sync.Mutex // amqp channels are not safe for concurrent publishing
	conn  *amqp.Connection
	ch    channel
	queue string
}

// NewPublisher dials RabbitMQ and declares the queue.
func NewPublisher(cfg Config) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("broker: AMQP URL is required")
	}
	queue := cfg.Queue
	if queue == "" {
		queue = DefaultQueue
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("broker: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("broker: open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("broker: declare queue %s: %w", queue, err)
	}
	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

// Queue returns the name of the queue messages are published to.
func (p *Publisher) Queue() string { return p.queue }

// Publish marshals v as JSON and sends it to the queue.
func (p *Publisher) Publish(ctx context.Context, v any) error {
	if p == nil || p.ch == nil {
		return errors.New("broker: publisher not initialized")
	}
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("broker: marshal: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// FragmentMessage is the JSON body published for each fragment.
type FragmentMessage struct {
	RunID string `json:"runId"`
	Step  string `json:"step"`
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// FragmentSink returns a sink that publishes every fragment. The run and
// step come from the context the workflow runner gives each step.
func FragmentSink(p *Publisher) stream.Sink {
	return stream.SinkFunc(func(ctx context.Context, f stream.Fragment) error {
		runID, step, _ := workflow.StepFromContext(ctx)
		return p.Publish(ctx, FragmentMessage{RunID: runID, Step: step, Index: f.Index, Text: f.Text})
	})
}
