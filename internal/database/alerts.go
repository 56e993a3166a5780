package database

import (
	"context"
	"fmt"
	"time"

	"github.com/voyantic/farecast/internal/models"
)

// AlertRepository persists user price alerts.
type AlertRepository struct {
	pool PgxPool
}

func NewAlertRepository(pool PgxPool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

const alertColumns = `id, user_email, origin, destination, target_price, departure_date, cabin_class, active, created_at, triggered_at`

func (r *AlertRepository) Create(ctx context.Context, alert models.PriceAlert) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO price_alerts
			(id, user_email, origin, destination, target_price, departure_date, cabin_class, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		alert.ID, alert.UserEmail, alert.Origin, alert.Destination,
		alert.TargetPrice, alert.DepartureDate, alert.CabinClass, alert.Active, alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

func (r *AlertRepository) Get(ctx context.Context, id string) (*models.PriceAlert, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+alertColumns+` FROM price_alerts WHERE id = $1`, id)
	return scanAlert(row)
}

func (r *AlertRepository) ListByEmail(ctx context.Context, email string) ([]models.PriceAlert, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+alertColumns+` FROM price_alerts WHERE user_email = $1 ORDER BY created_at`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

func (r *AlertRepository) ListActive(ctx context.Context) ([]models.PriceAlert, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+alertColumns+` FROM price_alerts WHERE active ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active alerts: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

func (r *AlertRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE price_alerts SET active = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("alert %s not found", id)
	}
	return nil
}

func (r *AlertRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM price_alerts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("alert %s not found", id)
	}
	return nil
}

// MarkTriggered deactivates the alert and stamps the trigger time.
func (r *AlertRepository) MarkTriggered(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE price_alerts SET active = false, triggered_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark alert triggered: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*models.PriceAlert, error) {
	var alert models.PriceAlert
	if err := row.Scan(
		&alert.ID, &alert.UserEmail, &alert.Origin, &alert.Destination,
		&alert.TargetPrice, &alert.DepartureDate, &alert.CabinClass,
		&alert.Active, &alert.CreatedAt, &alert.TriggeredAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan alert: %w", err)
	}
	return &alert, nil
}

func scanAlerts(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]models.PriceAlert, error) {
	var alerts []models.PriceAlert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *alert)
	}
	return alerts, rows.Err()
}
