package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/voyantic/farecast/internal/config"
	"github.com/voyantic/farecast/internal/models"
)

// ErrNoOffers is returned when the provider has no bookable fares for the
// requested route and date.
var ErrNoOffers = errors.New("no offers available")

const (
	tokenPath        = "/v1/security/oauth2/token"
	offersPath       = "/v2/shopping/flight-offers"
	flightDatesPath  = "/v1/shopping/flight-dates"
	priceMetricsPath = "/v1/analytics/itinerary-price-metrics"
	locationsPath    = "/v1/reference-data/locations"

	// Refresh the token slightly before the provider expires it so
	// in-flight requests never race the cutoff.
	tokenExpirySlack = 60 * time.Second
)

// Client talks to the flight-data provider's REST API. Access tokens are
// fetched lazily via the client-credentials grant and cached until shortly
// before expiry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string
	logger     *logrus.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(cfg config.AmadeusConfig, logger *logrus.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if cfg.Timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		logger:     logger,
	}
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.apiKey)
	form.Set("client_secret", c.apiSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("token request returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("token response missing access token")
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenExpirySlack)
	return c.accessToken, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider returned status %d for %s: %s", resp.StatusCode, path, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// SearchFlights returns live offers for a route on a departure date, cheapest
// first as the provider orders them.
func (c *Client) SearchFlights(ctx context.Context, origin, destination, departureDate string, maxResults int) ([]models.FlightOffer, error) {
	if maxResults <= 0 {
		maxResults = 20
	}

	query := url.Values{}
	query.Set("originLocationCode", origin)
	query.Set("destinationLocationCode", destination)
	query.Set("departureDate", departureDate)
	query.Set("adults", "1")
	query.Set("max", strconv.Itoa(maxResults))

	var parsed offersResponse
	if err := c.get(ctx, offersPath, query, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) == 0 {
		return nil, ErrNoOffers
	}

	fetchedAt := time.Now().UTC()
	offers := make([]models.FlightOffer, 0, len(parsed.Data))
	for _, raw := range parsed.Data {
		offer, err := parseOffer(raw, origin, destination, departureDate)
		if err != nil {
			c.logger.WithError(err).WithField("offer_id", raw.ID).Warn("Skipping unparseable flight offer")
			continue
		}
		offer.Source = "amadeus"
		offer.FetchedAt = fetchedAt
		offers = append(offers, offer)
	}
	if len(offers) == 0 {
		return nil, ErrNoOffers
	}
	return offers, nil
}

func parseOffer(raw flightOffer, origin, destination, departureDate string) (models.FlightOffer, error) {
	price, err := decimal.NewFromString(raw.Price.Total)
	if err != nil {
		return models.FlightOffer{}, fmt.Errorf("invalid offer price %q: %w", raw.Price.Total, err)
	}

	offer := models.FlightOffer{
		ID:            raw.ID,
		Origin:        origin,
		Destination:   destination,
		DepartureDate: departureDate,
		Price:         price,
		Currency:      raw.Price.Currency,
	}
	if len(raw.Itineraries) > 0 {
		segments := raw.Itineraries[0].Segments
		if len(segments) > 0 {
			offer.Airline = segments[0].CarrierCode
			offer.CabinClass = segments[0].Cabin
			offer.Stops = len(segments) - 1
		}
	}
	if offer.CabinClass == "" {
		offer.CabinClass = "ECONOMY"
	}
	return offer, nil
}

// CheapestDate finds the lowest-priced departure date the provider offers
// around the requested one.
func (c *Client) CheapestDate(ctx context.Context, origin, destination, departureDate string) (*DatePrice, error) {
	query := url.Values{}
	query.Set("origin", origin)
	query.Set("destination", destination)
	if departureDate != "" {
		query.Set("departureDate", departureDate)
	}

	var parsed flightDatesResponse
	if err := c.get(ctx, flightDatesPath, query, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) == 0 {
		return nil, ErrNoOffers
	}

	var best *DatePrice
	for _, entry := range parsed.Data {
		price, err := decimal.NewFromString(entry.Price.Total)
		if err != nil {
			continue
		}
		if best == nil || price.LessThan(best.Price) {
			best = &DatePrice{
				DepartureDate: entry.DepartureDate,
				ReturnDate:    entry.ReturnDate,
				Price:         price,
				Currency:      entry.Price.Currency,
			}
		}
	}
	if best == nil {
		return nil, ErrNoOffers
	}
	return best, nil
}

// PriceAnalysis returns the provider's historical quartile metrics for a
// route and date.
func (c *Client) PriceAnalysis(ctx context.Context, origin, destination, departureDate string) (*PriceMetrics, error) {
	query := url.Values{}
	query.Set("originIataCode", origin)
	query.Set("destinationIataCode", destination)
	query.Set("departureDate", departureDate)

	var parsed priceMetricsResponse
	if err := c.get(ctx, priceMetricsPath, query, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) == 0 {
		return nil, ErrNoOffers
	}

	entry := parsed.Data[0]
	metrics := &PriceMetrics{Currency: entry.CurrencyCode}
	for _, m := range entry.PriceMetrics {
		amount, err := decimal.NewFromString(m.Amount)
		if err != nil {
			continue
		}
		switch strings.ToUpper(m.QuartileRank) {
		case "MINIMUM":
			metrics.Minimum = amount
		case "MEDIUM":
			metrics.Median = amount
		case "MAXIMUM":
			metrics.Maximum = amount
		}
	}
	return metrics, nil
}

// SearchAirports looks up airports matching a free-text keyword.
func (c *Client) SearchAirports(ctx context.Context, keyword string, limit int) ([]Airport, error) {
	if limit <= 0 {
		limit = 10
	}

	query := url.Values{}
	query.Set("subType", "AIRPORT")
	query.Set("keyword", keyword)
	query.Set("page[limit]", strconv.Itoa(limit))

	var parsed locationsResponse
	if err := c.get(ctx, locationsPath, query, &parsed); err != nil {
		return nil, err
	}

	airports := make([]Airport, 0, len(parsed.Data))
	for _, loc := range parsed.Data {
		airports = append(airports, Airport{
			IataCode: loc.IataCode,
			Name:     loc.Name,
			City:     loc.Address.CityName,
			Country:  loc.Address.CountryName,
		})
	}
	return airports, nil
}

// HistoricalPrices samples offer prices across a span of departure dates and
// averages them per date. The provider has no bulk history endpoint, so this
// issues one search per sampled date.
func (c *Client) HistoricalPrices(ctx context.Context, origin, destination string, start, end time.Time, samples int) ([]models.PriceObservation, error) {
	if samples <= 0 {
		samples = 10
	}
	if !end.After(start) {
		return nil, fmt.Errorf("invalid date range %s..%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	span := end.Sub(start)
	step := span / time.Duration(samples)
	if step < 24*time.Hour {
		step = 24 * time.Hour
	}

	observations := make([]models.PriceObservation, 0, samples)
	for date := start; !date.After(end); date = date.Add(step) {
		offers, err := c.SearchFlights(ctx, origin, destination, date.Format("2006-01-02"), 10)
		if errors.Is(err, ErrNoOffers) {
			continue
		}
		if err != nil {
			return nil, err
		}

		total := decimal.Zero
		for _, offer := range offers {
			total = total.Add(offer.Price)
		}
		observations = append(observations, models.PriceObservation{
			ObservedAt:      date,
			Origin:          origin,
			Destination:     destination,
			Airline:         offers[0].Airline,
			CabinClass:      offers[0].CabinClass,
			Price:           total.Div(decimal.NewFromInt(int64(len(offers)))),
			DaysToDeparture: int(time.Until(date).Hours() / 24),
		})
	}

	sort.Slice(observations, func(i, j int) bool {
		return observations[i].ObservedAt.Before(observations[j].ObservedAt)
	})
	return observations, nil
}
