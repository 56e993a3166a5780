package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/voyantic/farecast/internal/amadeus"
	"github.com/voyantic/farecast/internal/cache"
	"github.com/voyantic/farecast/internal/models"
)

// FlightAPI is the slice of the provider client the flight-data service
// consumes.
type FlightAPI interface {
	SearchFlights(ctx context.Context, origin, destination, departureDate string, maxResults int) ([]models.FlightOffer, error)
	CheapestDate(ctx context.Context, origin, destination, departureDate string) (*amadeus.DatePrice, error)
	PriceAnalysis(ctx context.Context, origin, destination, departureDate string) (*amadeus.PriceMetrics, error)
	SearchAirports(ctx context.Context, keyword string, limit int) ([]amadeus.Airport, error)
}

// OfferCache is the slice of the live-price cache this service consumes.
type OfferCache interface {
	Get(ctx context.Context, origin, destination, departureDate string) ([]models.FlightOffer, error)
	Set(ctx context.Context, origin, destination, departureDate string, offers []models.FlightOffer) error
}

// RouteInsights pairs the provider's historical distribution with the
// cheapest bookable date near the requested one.
type RouteInsights struct {
	Origin        string                `json:"origin"`
	Destination   string                `json:"destination"`
	DepartureDate string                `json:"departure_date"`
	PriceMetrics  *amadeus.PriceMetrics `json:"price_metrics,omitempty"`
	CheapestDate  *amadeus.DatePrice    `json:"cheapest_date,omitempty"`
}

// FlightDataService fronts the provider API with a short-TTL cache so bursts
// of identical searches do not burn the rate limit.
type FlightDataService struct {
	api    FlightAPI
	cache  OfferCache
	logger *logrus.Logger
}

func NewFlightDataService(api FlightAPI, offerCache OfferCache, logger *logrus.Logger) *FlightDataService {
	return &FlightDataService{api: api, cache: offerCache, logger: logger}
}

// LivePrices returns current offers for a route and date. A non-empty cabin
// filters the results; filtering happens after the cache so one fetch serves
// every cabin.
func (s *FlightDataService) LivePrices(ctx context.Context, origin, destination, departureDate, cabin string) ([]models.FlightOffer, error) {
	offers, err := s.cachedOffers(ctx, origin, destination, departureDate)
	if err != nil {
		return nil, err
	}
	if cabin == "" {
		return offers, nil
	}

	filtered := make([]models.FlightOffer, 0, len(offers))
	for _, offer := range offers {
		if offer.CabinClass == cabin {
			filtered = append(filtered, offer)
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("cabin %s: %w", cabin, amadeus.ErrNoOffers)
	}
	return filtered, nil
}

func (s *FlightDataService) cachedOffers(ctx context.Context, origin, destination, departureDate string) ([]models.FlightOffer, error) {
	if s.cache != nil {
		if offers, err := s.cache.Get(ctx, origin, destination, departureDate); err == nil {
			return offers, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WithError(err).Warn("Offer cache read failed, fetching live")
		}
	}

	offers, err := s.api.SearchFlights(ctx, origin, destination, departureDate, 20)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, origin, destination, departureDate, offers); err != nil {
			s.logger.WithError(err).Warn("Failed to cache offers")
		}
	}
	return offers, nil
}

// Insights gathers provider analytics for a route. Each sub-lookup degrades
// independently: a failed metrics call still returns the cheapest date, and
// vice versa. Only both failing is an error.
func (s *FlightDataService) Insights(ctx context.Context, origin, destination, departureDate string) (*RouteInsights, error) {
	insights := &RouteInsights{
		Origin:        origin,
		Destination:   destination,
		DepartureDate: departureDate,
	}

	metrics, metricsErr := s.api.PriceAnalysis(ctx, origin, destination, departureDate)
	if metricsErr != nil {
		s.logger.WithError(metricsErr).WithField("route", origin+"-"+destination).Warn("Price analysis unavailable")
	} else {
		insights.PriceMetrics = metrics
	}

	cheapest, cheapestErr := s.api.CheapestDate(ctx, origin, destination, departureDate)
	if cheapestErr != nil {
		s.logger.WithError(cheapestErr).WithField("route", origin+"-"+destination).Warn("Cheapest date unavailable")
	} else {
		insights.CheapestDate = cheapest
	}

	if metricsErr != nil && cheapestErr != nil {
		return nil, fmt.Errorf("no insights available for %s-%s: %w", origin, destination, cheapestErr)
	}
	return insights, nil
}

// SearchAirports proxies airport autocomplete to the provider.
func (s *FlightDataService) SearchAirports(ctx context.Context, keyword string, limit int) ([]amadeus.Airport, error) {
	return s.api.SearchAirports(ctx, keyword, limit)
}

// CheapestOffer returns the lowest-priced live offer for a route and date.
func (s *FlightDataService) CheapestOffer(ctx context.Context, origin, destination, departureDate string) (*models.FlightOffer, error) {
	offers, err := s.cachedOffers(ctx, origin, destination, departureDate)
	if err != nil {
		return nil, err
	}

	best := offers[0]
	for _, offer := range offers[1:] {
		if offer.Price.LessThan(best.Price) {
			best = offer
		}
	}
	return &best, nil
}

// BestBookingTime combines the provider's cheapest-date lookup with live
// offers to say whether booking now beats shifting the trip.
type BestBookingTime struct {
	Origin         string             `json:"origin"`
	Destination    string             `json:"destination"`
	RequestedDate  string             `json:"requested_date"`
	CurrentBest    models.FlightOffer `json:"current_best"`
	CheapestDate   *amadeus.DatePrice `json:"cheapest_date,omitempty"`
	ShiftRecommend bool               `json:"shift_recommended"`
}

func (s *FlightDataService) BestBookingTime(ctx context.Context, origin, destination, departureDate string) (*BestBookingTime, error) {
	best, err := s.CheapestOffer(ctx, origin, destination, departureDate)
	if err != nil {
		return nil, err
	}

	result := &BestBookingTime{
		Origin:        origin,
		Destination:   destination,
		RequestedDate: departureDate,
		CurrentBest:   *best,
	}

	cheapest, err := s.api.CheapestDate(ctx, origin, destination, departureDate)
	if err != nil {
		s.logger.WithError(err).Debug("Cheapest date lookup failed for booking-time check")
		return result, nil
	}
	result.CheapestDate = cheapest
	result.ShiftRecommend = cheapest.DepartureDate != departureDate && cheapest.Price.LessThan(best.Price)
	return result, nil
}
