package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ClaudineiMS/gdash/internal/config"
	"github.com/ClaudineiMS/gdash/internal/modules/weather/types"
)

// Handler persists one normalized reading.
type Handler func(ctx context.Context, in types.ReadingInput) error

const (
	subscribeQoS   = byte(1)
	handlerTimeout = 10 * time.Second
	retryBackoff   = 500 * time.Millisecond
)

// Subscriber consumes ReadingInput payloads from the configured topic.
type Subscriber struct {
	*conn

	handler Handler

	now         func() time.Time
	sleep       func(time.Duration)
	publishFunc func(topic string, payload []byte) error
}

func NewSubscriber(cfg config.MQTTConfig, logger *slog.Logger) *Subscriber {
	s := &Subscriber{
		now:   time.Now,
		sleep: time.Sleep,
	}
	// Subscribing from the connect handler also restores the subscription
	// after an automatic reconnect with a clean session.
	s.conn = newConn(cfg, logger, func(client mqtt.Client) {
		if err := s.subscribe(client); err != nil {
			s.logger.Error("mqtt subscribe failed", "topic", cfg.Topic, "error", err)
		}
	})
	s.publishFunc = func(topic string, payload []byte) error {
		return s.publish(topic, payload, false)
	}
	return s
}

// SetMessageHandler sets the handler for valid readings. Set it before
// Connect; the broker may deliver queued messages right after CONNACK.
func (s *Subscriber) SetMessageHandler(handler Handler) {
	s.handler = handler
}

func (s *Subscriber) subscribe(client mqtt.Client) error {
	topic := s.cfg.Topic
	token := client.Subscribe(topic, subscribeQoS, func(_ mqtt.Client, msg mqtt.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	s.logger.Info("subscribed to mqtt topic", "topic", topic, "qos", subscribeQoS)
	return nil
}

// prepare fills a missing or unparseable timestamp with now, clamps
// percentages and validates what is left.
func (s *Subscriber) prepare(payload []byte) (types.ReadingInput, error) {
	var in types.ReadingInput
	if err := json.Unmarshal(payload, &in); err != nil {
		return types.ReadingInput{}, fmt.Errorf("decode payload: %w", err)
	}
	if _, ok := types.ParseTimestamp(in.TimestampUTC); !ok {
		in.TimestampUTC = types.FormatTimestamp(s.now())
	}
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return types.ReadingInput{}, err
	}
	return in, nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	in, err := s.prepare(payload)
	if err != nil {
		s.logger.Warn("rejected weather message", "topic", topic, "error", err, "payload", string(payload))
		s.deadLetter(payload, err)
		return
	}

	if s.handler == nil {
		s.logger.Warn("no message handler set; dropping reading", "city", in.City)
		return
	}

	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			s.sleep(time.Duration(attempt) * retryBackoff)
		}
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		lastErr = s.handler(ctx, in)
		cancel()
		if lastErr == nil {
			s.logger.Debug("processed weather message", "city", in.City, "timestamp_utc", in.TimestampUTC, "attempts", attempt+1)
			return
		}
		s.logger.Warn("message handler failed", "city", in.City, "attempt", attempt+1, "error", lastErr)
	}

	s.logger.Error("giving up on weather message", "city", in.City, "attempts", s.cfg.MaxRetries+1, "error", lastErr)
	s.deadLetter(payload, lastErr)
}

// deadLetter forwards the original payload when a dead-letter topic is set.
func (s *Subscriber) deadLetter(payload []byte, reason error) {
	if s.cfg.DeadLetterTopic == "" {
		return
	}
	if err := s.publishFunc(s.cfg.DeadLetterTopic, payload); err != nil {
		s.logger.Error("dead-letter publish failed", "topic", s.cfg.DeadLetterTopic, "reason", reason, "error", err)
		return
	}
	s.logger.Info("message dead-lettered", "topic", s.cfg.DeadLetterTopic, "reason", reason)
}

// Disconnect unsubscribes and closes the connection. Safe to call more than once.
func (s *Subscriber) Disconnect() {
	if s.client != nil && s.IsConnected() {
		token := s.client.Unsubscribe(s.cfg.Topic)
		token.WaitTimeout(2 * time.Second)
	}
	s.disconnect()
	s.logger.Info("mqtt subscriber disconnected")
}
