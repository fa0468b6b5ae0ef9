package repository

import (
	"context"

	"FinValue/internal/domain/models"
	"FinValue/internal/domain/repository"
	pkgkafka "FinValue/pkg/kafka"
)

type messageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}, headers ...pkgkafka.Header) error
	Close() error
}

// KafkaReportPublisher implements ReportPublisher for Kafka. Messages are
// keyed by ticker so reports for one company stay ordered.
type KafkaReportPublisher struct {
	producer messageProducer
	topic    string
}

// NewKafkaReportPublisher creates Kafka publisher.
func NewKafkaReportPublisher(producer messageProducer, topic string) repository.ReportPublisher {
	return &KafkaReportPublisher{producer: producer, topic: topic}
}

func (p *KafkaReportPublisher) PublishReport(ctx context.Context, r *models.ValuationReport) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Ticker), models.NewReportResponse(r),
		pkgkafka.Header{Key: "report-id", Value: r.ID},
		pkgkafka.Header{Key: "content-type", Value: "application/json"},
	)
}

func (p *KafkaReportPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopReportPublisher drops reports. Used when Kafka is disabled.
type NoopReportPublisher struct{}

func (NoopReportPublisher) PublishReport(context.Context, *models.ValuationReport) error { return nil }
func (NoopReportPublisher) Close() error                                              { return nil }
