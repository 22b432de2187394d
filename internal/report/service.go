package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coastwatch/coastal-hazard-alerts/internal/alerting"
	"github.com/coastwatch/coastal-hazard-alerts/internal/classifier"
	"github.com/coastwatch/coastal-hazard-alerts/internal/config"
	"github.com/coastwatch/coastal-hazard-alerts/internal/models"
	"github.com/coastwatch/coastal-hazard-alerts/internal/repository"
	"github.com/coastwatch/coastal-hazard-alerts/internal/stream"
)

// Upload is a citizen-submitted hazard report.
type Upload struct {
	ImageData   []byte
	Latitude    float64
	Longitude   float64
	Description string
	PhoneNumber string
}

// ValidationError reports a rejected upload; the API surfaces it as a 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ReporterNotifier sends a direct message to the citizen who filed a report.
// Satisfied by *alerting.SMSSender.
type ReporterNotifier interface {
	SendTo(ctx context.Context, to, body string) error
}

// Service orchestrates a report end to end: classify the image, geocode the
// coordinates, map confidence to a level, dispatch, persist, broadcast.
// Every step runs synchronously on the request goroutine.
type Service struct {
	registry    *classifier.Registry
	dispatcher  *alerting.Dispatcher
	repo        repository.AlertRepository
	broadcaster *stream.Broadcaster
	geocoder    Geocoder
	thresholds  config.Thresholds
	notifier    ReporterNotifier

	mu           sync.Mutex
	systemStatus models.AlertLevel
}

func NewService(registry *classifier.Registry, dispatcher *alerting.Dispatcher, repo repository.AlertRepository, broadcaster *stream.Broadcaster, geocoder Geocoder, thresholds config.Thresholds) *Service {
	if geocoder == nil {
		geocoder = NoopGeocoder{}
	}
	return &Service{
		registry:    registry,
		dispatcher:  dispatcher,
		repo:        repo,
		broadcaster: broadcaster,
		geocoder:    geocoder,
		thresholds:  thresholds,
	}
}

// SetReporterNotifier enables the direct SMS back to the reporter for
// ORANGE and RED alerts.
func (s *Service) SetReporterNotifier(n ReporterNotifier) {
	s.notifier = n
}

// ProcessUpload handles one report. Duplicate submissions create duplicate
// alerts; there is no idempotency key.
func (s *Service) ProcessUpload(ctx context.Context, up Upload) (*models.Alert, error) {
	if len(up.ImageData) == 0 {
		return nil, &ValidationError{Msg: "no image provided"}
	}
	if up.Latitude < -90 || up.Latitude > 90 || up.Longitude < -180 || up.Longitude > 180 {
		return nil, &ValidationError{Msg: "invalid GPS coordinates"}
	}

	detection, err := s.registry.DetectImage(up.ImageData)
	if err != nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("unreadable image: %v", err)}
	}

	hazard := detection.HazardType
	confidence := detection.Confidence
	level := s.thresholds.LevelFor(confidence)
	if level == models.AlertLevelGreen {
		hazard = models.HazardNone
	}

	locationName := s.geocoder.ReverseGeocode(ctx, up.Latitude, up.Longitude)

	alert := &models.Alert{
		ID:         uuid.NewString(),
		HazardType: hazard,
		Level:      level,
		Location: models.Location{
			Latitude:  up.Latitude,
			Longitude: up.Longitude,
			Name:      locationName,
		},
		Confidence:  confidence,
		Description: up.Description,
		Timestamp:   time.Now(),
	}

	alert.ChannelResults = s.dispatcher.Send(ctx, level, hazard, locationName, up.Description, confidence, up.ImageData)

	if err := s.repo.Add(ctx, alert); err != nil {
		return nil, fmt.Errorf("error storing alert: %w", err)
	}

	s.raiseSystemStatus(level)

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(alert)
	}

	if s.notifier != nil && up.PhoneNumber != "" && level >= models.AlertLevelOrange {
		msg := fmt.Sprintf("ALERT: %s detected at %s. %s.", hazard.Title(), locationName, level.Action())
		if err := s.notifier.SendTo(ctx, up.PhoneNumber, msg); err != nil {
			slog.Warn("reporter notification failed", "error", err)
		}
	}

	slog.Info("report processed", "id", alert.ID, "hazard", hazard, "level", level, "confidence", confidence)
	return alert, nil
}

func (s *Service) raiseSystemStatus(level models.AlertLevel) {
	s.mu.Lock()
	if level > s.systemStatus {
		s.systemStatus = level
	}
	s.mu.Unlock()
}

// SystemStatus is the highest level seen since startup (or the last reset).
func (s *Service) SystemStatus() models.AlertLevel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.systemStatus
}

func (s *Service) ResetSystemStatus() {
	s.mu.Lock()
	s.systemStatus = models.AlertLevelGreen
	s.mu.Unlock()
	slog.Info("system status reset")
}
