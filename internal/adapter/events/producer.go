// Package events publishes completed evaluations to a Kafka/Redpanda topic
// for downstream consumers such as the reports dashboard.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/gradeworks/answer-evaluator/internal/domain"
)

type produceFn func(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))

// Producer wraps a Kafka producer and implements domain.EventPublisher.
// Publishing is fire-and-forget; a broker outage never fails an evaluation.
type Producer struct {
	client  *kgo.Client
	topic   string
	produce produceFn
}

// NewProducer constructs a Producer against the given brokers and topic.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=events.new: no seed brokers provided")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1_000_000),
	)
	if err != nil {
		return nil, fmt.Errorf("op=events.new: %w", err)
	}
	return &Producer{client: client, topic: topic, produce: client.Produce}, nil
}

type evaluationCompleted struct {
	ID            string    `json:"id"`
	FileID        string    `json:"file_id"`
	StudentName   string    `json:"student_name"`
	QuestionID    string    `json:"question_id"`
	QuestionTitle string    `json:"question_title"`
	Score         int       `json:"score"`
	MaxPoints     int       `json:"max_points"`
	Confidence    int       `json:"confidence"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// EvaluationCompleted publishes a completed evaluation record. Errors are
// logged, not returned.
func (p *Producer) EvaluationCompleted(ctx domain.Context, e domain.Evaluation) {
	payload := evaluationCompleted{
		ID:            e.ID,
		FileID:        e.FileID,
		StudentName:   e.StudentName,
		QuestionID:    e.QuestionID,
		QuestionTitle: e.QuestionTitle,
		Score:         e.Score,
		MaxPoints:     e.MaxPoints,
		Confidence:    e.Confidence,
		Status:        string(e.Status),
		CreatedAt:     e.CreatedAt,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("evaluation event marshal failed", slog.Any("error", err))
		return
	}
	rec := &kgo.Record{Topic: p.topic, Key: []byte(e.ID), Value: b}
	// The request context is cancelled as soon as the HTTP response is
	// written; the publish must outlive it.
	ctx = context.WithoutCancel(ctx)
	p.produce(ctx, rec, func(_ *kgo.Record, err error) {
		if err != nil {
			slog.Warn("evaluation event publish failed",
				slog.String("evaluation_id", e.ID), slog.Any("error", err))
		}
	})
}

// Close flushes and shuts down the underlying client.
func (p *Producer) Close() {
	p.client.Close()
}
