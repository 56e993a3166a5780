package database

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voyantic/farecast/internal/models"
)

// PriceHistoryRepository reads and writes historical fare observations. The
// forecast engine itself never touches the database; this repository is the
// boundary that feeds it.
type PriceHistoryRepository struct {
	pool PgxPool
}

func NewPriceHistoryRepository(pool PgxPool) *PriceHistoryRepository {
	return &PriceHistoryRepository{pool: pool}
}

// RouteHistory returns all observations for a route since the cutoff,
// oldest first. An empty airline matches all carriers.
func (r *PriceHistoryRepository) RouteHistory(ctx context.Context, origin, destination, airline string, since time.Time) ([]models.PriceObservation, error) {
	query := `
		SELECT observed_at, origin, destination, airline, cabin_class,
		       price, days_to_departure, occupancy_rate
		FROM price_observations
		WHERE origin = $1 AND destination = $2 AND observed_at >= $3`
	args := []any{origin, destination, since}
	if airline != "" {
		query += " AND airline = $4"
		args = append(args, airline)
	}
	query += " ORDER BY observed_at"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query route history: %w", err)
	}
	defer rows.Close()

	var observations []models.PriceObservation
	for rows.Next() {
		var obs models.PriceObservation
		if err := rows.Scan(
			&obs.ObservedAt, &obs.Origin, &obs.Destination, &obs.Airline,
			&obs.CabinClass, &obs.Price, &obs.DaysToDeparture, &obs.OccupancyRate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}

// LatestPrice returns the most recent observed fare on a route.
func (r *PriceHistoryRepository) LatestPrice(ctx context.Context, origin, destination string) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT price FROM price_observations
		WHERE origin = $1 AND destination = $2
		ORDER BY observed_at DESC LIMIT 1`, origin, destination).Scan(&price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query latest price: %w", err)
	}
	return price, nil
}

// InsertObservation stores one fare sample.
func (r *PriceHistoryRepository) InsertObservation(ctx context.Context, obs models.PriceObservation) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO price_observations
			(observed_at, origin, destination, airline, cabin_class, price, days_to_departure, occupancy_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		obs.ObservedAt, obs.Origin, obs.Destination, obs.Airline,
		obs.CabinClass, obs.Price, obs.DaysToDeparture, obs.OccupancyRate,
	)
	if err != nil {
		return fmt.Errorf("failed to insert observation: %w", err)
	}
	return nil
}
