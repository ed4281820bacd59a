package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ClaudineiMS/gdash/internal/modules/weather/repository"
	"github.com/ClaudineiMS/gdash/internal/modules/weather/types"
	"github.com/ClaudineiMS/gdash/internal/mqtt"
)

// MessageSubscriber is the part of mqtt.Subscriber the service needs.
type MessageSubscriber interface {
	SetMessageHandler(handler mqtt.Handler)
}

type Service struct {
	repository repository.WeatherRepository
	logger     *slog.Logger
}

func NewService(repository repository.WeatherRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repository: repository, logger: logger}
}

// Register attaches Ingest as the subscriber's message handler.
func (s *Service) Register(subscriber MessageSubscriber) {
	subscriber.SetMessageHandler(s.Ingest)
}

// Ingest stores a reading that arrived over MQTT.
func (s *Service) Ingest(ctx context.Context, in types.ReadingInput) error {
	s.logger.Debug("ingesting reading", "city", in.City, "timestamp_utc", in.TimestampUTC)

	reading, err := s.repository.Create(ctx, in)
	if err != nil {
		s.logger.Error("failed to store reading", "city", in.City, "error", err)
		return fmt.Errorf("store reading: %w", err)
	}

	s.logger.Debug("stored reading", "id", reading.ID, "city", reading.City)
	return nil
}
