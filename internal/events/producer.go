// Package events publishes scan and signal events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"MarketScanner/internal/model"
)

// Event types.
const (
	EventSignalDetected = "SIGNAL_DETECTED"
	EventScanCompleted  = "SCAN_COMPLETED"
)

// Event is the JSON payload of every message.
type Event struct {
	EventType string              `json:"event_type"`
	Symbol    string              `json:"symbol,omitempty"`
	Watchlist string              `json:"watchlist,omitempty"`
	BarDate   string              `json:"bar_date,omitempty"`
	Price     float64             `json:"price,omitempty"`
	Signals   []model.SignalEvent `json:"signals,omitempty"`
	Results   []model.ScanResult  `json:"results,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// Publisher is implemented by Producer and Noop.
type Publisher interface {
	PublishSignals(ctx context.Context, symbol string, bar model.PriceBar, signals []model.SignalEvent) error
	PublishScanCompleted(ctx context.Context, watchlist string, results []model.ScanResult) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles publishing events to Kafka.
type Producer struct {
	writer messageWriter
	now    func() time.Time
}

// NewProducer creates a new Kafka producer.
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer, now: time.Now}
}

// PublishSignals publishes one SIGNAL_DETECTED event keyed by symbol. The
// no-signal sentinel is never published.
func (p *Producer) PublishSignals(ctx context.Context, symbol string, bar model.PriceBar, signals []model.SignalEvent) error {
	fired := make([]model.SignalEvent, 0, len(signals))
	for _, s := range signals {
		if s.Kind != model.SignalNone {
			fired = append(fired, s)
		}
	}
	if len(fired) == 0 {
		return nil
	}
	return p.publish(ctx, symbol, Event{
		EventType: EventSignalDetected,
		Symbol:    symbol,
		BarDate:   bar.Date.Format("2006-01-02"),
		Price:     bar.Close,
		Signals:   fired,
		Timestamp: p.now(),
	})
}

// PublishScanCompleted publishes the ranked results keyed by watchlist name.
func (p *Producer) PublishScanCompleted(ctx context.Context, watchlist string, results []model.ScanResult) error {
	return p.publish(ctx, watchlist, Event{
		EventType: EventScanCompleted,
		Watchlist: watchlist,
		Results:   results,
		Timestamp: p.now(),
	})
}

func (p *Producer) publish(ctx context.Context, key string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// Close closes the Kafka producer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Noop discards events when Kafka is not configured.
type Noop struct{}

func (Noop) PublishSignals(context.Context, string, model.PriceBar, []model.SignalEvent) error {
	return nil
}
func (Noop) PublishScanCompleted(context.Context, string, []model.ScanResult) error { return nil }
func (Noop) Close() error                                                          { return nil }
