package repository

import (
	"context"
	"testing"
	"time"

	"FinValue/internal/domain/models"
	pkgkafka "FinValue/pkg/kafka"
)

type recordingProducer struct {
	topic   string
	key     []byte
	value   interface{}
	headers []pkgkafka.Header
}

func (p *recordingProducer) Publish(_ context.Context, topic string, key []byte, value interface{}, headers ...pkgkafka.Header) error {
	p.topic, p.key, p.value, p.headers = topic, key, value, headers
	return nil
}

func (p *recordingProducer) Close() error { return nil }

func TestKafkaReportPublisherKeysByTicker(t *testing.T) {
	rp := &recordingProducer{}
	pub := NewKafkaReportPublisher(rp, "valuation.reports")

	r := &models.ValuationReport{ID: "id-1", Ticker: "AAPL", GeneratedAt: time.Now()}
	if err := pub.PublishReport(context.Background(), r); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if rp.topic != "valuation.reports" || string(rp.key) != "AAPL" {
		t.Fatalf("unexpected topic/key %q %q", rp.topic, rp.key)
	}
	resp, ok := rp.value.(*models.ReportResponse)
	if !ok || resp.ID != "id-1" {
		t.Fatalf("expected report response payload, got %T", rp.value)
	}
	if len(rp.headers) == 0 || rp.headers[0].Value != "id-1" {
		t.Fatalf("expected report-id header, got %+v", rp.headers)
	}
}
