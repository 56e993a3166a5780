package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/voyantic/farecast/internal/models"
)

// ErrInvalidAlert is returned when an alert request fails validation.
var ErrInvalidAlert = errors.New("invalid alert")

// AlertStore is the slice of the alert repository this service consumes.
type AlertStore interface {
	Create(ctx context.Context, alert models.PriceAlert) error
	Get(ctx context.Context, id string) (*models.PriceAlert, error)
	ListByEmail(ctx context.Context, email string) ([]models.PriceAlert, error)
	ListActive(ctx context.Context) ([]models.PriceAlert, error)
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	MarkTriggered(ctx context.Context, id string, at time.Time) error
}

// OfferLookup is the slice of the flight-data service the alert checker
// consumes.
type OfferLookup interface {
	CheapestOffer(ctx context.Context, origin, destination, departureDate string) (*models.FlightOffer, error)
}

// AlertService manages price watches and evaluates them against live fares.
type AlertService struct {
	store    AlertStore
	offers   OfferLookup
	notifier Notifier
	logger   *logrus.Logger
	now      func() time.Time
}

func NewAlertService(store AlertStore, offers OfferLookup, notifier Notifier, logger *logrus.Logger) *AlertService {
	return &AlertService{
		store:    store,
		offers:   offers,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateAlert validates and stores a new price watch, assigning its ID.
func (s *AlertService) CreateAlert(ctx context.Context, alert models.PriceAlert) (*models.PriceAlert, error) {
	if alert.UserEmail == "" {
		return nil, fmt.Errorf("user_email is required: %w", ErrInvalidAlert)
	}
	if alert.Origin == "" || alert.Destination == "" {
		return nil, fmt.Errorf("origin and destination are required: %w", ErrInvalidAlert)
	}
	if !alert.TargetPrice.IsPositive() {
		return nil, fmt.Errorf("target_price must be positive: %w", ErrInvalidAlert)
	}
	if alert.CabinClass == "" {
		alert.CabinClass = "ECONOMY"
	}

	alert.ID = uuid.New().String()
	alert.Active = true
	alert.CreatedAt = s.now().UTC()
	alert.TriggeredAt = nil

	if err := s.store.Create(ctx, alert); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"alert": alert.ID,
		"route": alert.Origin + "-" + alert.Destination,
	}).Info("Alert created")
	return &alert, nil
}

func (s *AlertService) GetAlert(ctx context.Context, id string) (*models.PriceAlert, error) {
	return s.store.Get(ctx, id)
}

func (s *AlertService) ListAlerts(ctx context.Context, email string) ([]models.PriceAlert, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", ErrInvalidAlert)
	}
	return s.store.ListByEmail(ctx, email)
}

func (s *AlertService) DeactivateAlert(ctx context.Context, id string) error {
	return s.store.Deactivate(ctx, id)
}

func (s *AlertService) DeleteAlert(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// CheckAlert evaluates one alert against the cheapest live fare. A fare at or
// below the target triggers the alert: it is marked triggered, deactivated,
// and the notifier is told. Returns whether the alert fired.
func (s *AlertService) CheckAlert(ctx context.Context, alert models.PriceAlert) (bool, error) {
	offer, err := s.offers.CheapestOffer(ctx, alert.Origin, alert.Destination, alert.DepartureDate)
	if err != nil {
		return false, fmt.Errorf("failed to fetch fare for alert %s: %w", alert.ID, err)
	}
	if offer.Price.GreaterThan(alert.TargetPrice) {
		return false, nil
	}

	if err := s.store.MarkTriggered(ctx, alert.ID, s.now().UTC()); err != nil {
		return false, err
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyAlert(ctx, alert, *offer); err != nil {
			// Trigger already recorded; notification failure is not fatal.
			s.logger.WithError(err).WithField("alert", alert.ID).Error("Failed to deliver alert notification")
		}
	}
	s.logger.WithFields(logrus.Fields{
		"alert":  alert.ID,
		"target": alert.TargetPrice.StringFixed(2),
		"fare":   offer.Price.StringFixed(2),
	}).Info("Alert triggered")
	return true, nil
}

// CheckAllActive runs one evaluation pass over every active alert and returns
// how many fired. One broken alert never stops the pass.
func (s *AlertService) CheckAllActive(ctx context.Context) (int, error) {
	alerts, err := s.store.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active alerts: %w", err)
	}

	triggered := 0
	for _, alert := range alerts {
		if ctx.Err() != nil {
			return triggered, ctx.Err()
		}
		fired, err := s.CheckAlert(ctx, alert)
		if err != nil {
			s.logger.WithError(err).WithField("alert", alert.ID).Warn("Alert check failed")
			continue
		}
		if fired {
			triggered++
		}
	}
	return triggered, nil
}

// Run evaluates alerts on a fixed interval until the context is cancelled.
// Intended to run in its own goroutine from main.
func (s *AlertService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.WithField("interval", interval.String()).Info("Alert checker started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Alert checker stopped")
			return
		case <-ticker.C:
			triggered, err := s.CheckAllActive(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logger.WithError(err).Error("Alert pass failed")
				continue
			}
			if triggered > 0 {
				s.logger.WithField("triggered", triggered).Info("Alert pass complete")
			}
		}
	}
}
