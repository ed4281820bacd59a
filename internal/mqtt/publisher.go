package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ClaudineiMS/gdash/internal/config"
	"github.com/ClaudineiMS/gdash/internal/modules/weather/types"
)

// Publisher sends readings to the ingestion topic.
type Publisher struct {
	*conn

	publishFunc func(topic string, payload []byte) error
}

func NewPublisher(cfg config.MQTTConfig, logger *slog.Logger) *Publisher {
	p := &Publisher{conn: newConn(cfg, logger, nil)}
	p.publishFunc = func(topic string, payload []byte) error {
		return p.publish(topic, payload, false)
	}
	return p
}

// PublishReading encodes in as JSON and publishes it with QoS 1.
func (p *Publisher) PublishReading(in types.ReadingInput) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}
	if err := p.publishFunc(p.cfg.Topic, data); err != nil {
		p.logger.Error("failed to publish reading", "topic", p.cfg.Topic, "error", err)
		return err
	}
	p.logger.Debug("published reading", "topic", p.cfg.Topic, "city", in.City, "timestamp_utc", in.TimestampUTC)
	return nil
}

// Disconnect closes the connection. Safe to call more than once.
func (p *Publisher) Disconnect() {
	p.disconnect()
	p.logger.Info("mqtt disconnected")
}
