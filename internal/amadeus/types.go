package amadeus

import "github.com/shopspring/decimal"

// Wire types for the provider API. Monetary amounts arrive as strings and
// are parsed into decimals at the boundary.

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type offersResponse struct {
	Data []flightOffer `json:"data"`
}

type flightOffer struct {
	ID                    string      `json:"id"`
	NumberOfBookableSeats int         `json:"numberOfBookableSeats"`
	Price                 offerPrice  `json:"price"`
	Itineraries           []itinerary `json:"itineraries"`
}

type offerPrice struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

type itinerary struct {
	Duration string        `json:"duration"`
	Segments []offerLeg    `json:"segments"`
}

type offerLeg struct {
	CarrierCode string       `json:"carrierCode"`
	Number      string       `json:"number"`
	Cabin       string       `json:"cabin"`
	Departure   legEndpoint  `json:"departure"`
	Arrival     legEndpoint  `json:"arrival"`
}

type legEndpoint struct {
	IataCode string `json:"iataCode"`
	At       string `json:"at"`
}

type flightDatesResponse struct {
	Data []flightDate `json:"data"`
}

type flightDate struct {
	DepartureDate string     `json:"departureDate"`
	ReturnDate    string     `json:"returnDate"`
	Price         offerPrice `json:"price"`
}

// DatePrice is the cheapest bookable date near a target departure.
type DatePrice struct {
	DepartureDate string          `json:"departure_date"`
	ReturnDate    string          `json:"return_date,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
}

type priceMetricsResponse struct {
	Data []priceMetricsEntry `json:"data"`
}

type priceMetricsEntry struct {
	CurrencyCode string `json:"currencyCode"`
	PriceMetrics []struct {
		Amount       string `json:"amount"`
		QuartileRank string `json:"quartileRanking"`
	} `json:"priceMetrics"`
}

// PriceMetrics summarizes the provider's historical price distribution for a
// route and date.
type PriceMetrics struct {
	Minimum  decimal.Decimal `json:"minimum"`
	Median   decimal.Decimal `json:"median"`
	Maximum  decimal.Decimal `json:"maximum"`
	Currency string          `json:"currency"`
}

type locationsResponse struct {
	Data []location `json:"data"`
}

type location struct {
	IataCode string `json:"iataCode"`
	Name     string `json:"name"`
	Address  struct {
		CityName    string `json:"cityName"`
		CountryName string `json:"countryName"`
	} `json:"address"`
}

// Airport is a search hit for airport autocomplete.
type Airport struct {
	IataCode string `json:"iata_code"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Country  string `json:"country"`
}
