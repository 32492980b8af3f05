// Package kafka publishes audit events to a Kafka topic. The topic is the
// durable audit trail; consumers materialize it into whatever store
// compliance tooling needs.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "entgate/pkg/platform/audit"
)

const DefaultTopic = "entgate.audit.events"

// payload is the JSON structure produced to Kafka. Field names are stable:
// consumers deserialize across deploys.
type payload struct {
	ID         string `json:"ID"`
	Category   string `json:"Category"`
	Timestamp  string `json:"Timestamp"`
	UserID     string `json:"UserID,omitempty"`
	Action     string `json:"Action"`
	Feature    string `json:"Feature,omitempty"`
	Decision   string `json:"Decision,omitempty"`
	Reason     string `json:"Reason,omitempty"`
	ActorEmail string `json:"ActorEmail,omitempty"`
	RequestID  string `json:"RequestID,omitempty"`
}

type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type Option func(*Publisher)

func WithTopic(topic string) Option {
	return func(p *Publisher) {
		p.topic = topic
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// New connects a producer to the given brokers. Callers own Close.
func New(brokers []string, opts ...Option) (*Publisher, error) {
	p := &Publisher{topic: DefaultTopic, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(p.topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	p.client = client
	return p, nil
}

// EnsureTopic creates the audit topic when it does not exist yet. Existing
// topics are left untouched.
func (p *Publisher) EnsureTopic(ctx context.Context, partitions int32) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopics(ctx, partitions, 1, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", p.topic, res.Err)
		}
	}
	return nil
}

// Emit produces one audit event, keyed by user so per-user ordering holds.
// Produce is awaited: a cancelled context must not report success.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	body := payload{
		ID:         uuid.NewString(),
		Category:   string(event.Category),
		Timestamp:  event.Timestamp.Format(time.RFC3339Nano),
		Action:     event.Action,
		Feature:    event.Feature,
		Decision:   event.Decision,
		Reason:     event.Reason,
		ActorEmail: event.ActorEmail,
		RequestID:  event.RequestID,
	}
	var key []byte
	if !event.UserID.IsNil() {
		body.UserID = event.UserID.String()
		key = []byte(body.UserID)
	}

	value, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{Topic: p.topic, Key: key, Value: value}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Close()
}
