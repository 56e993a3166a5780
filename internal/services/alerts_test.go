package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyantic/farecast/internal/models"
)

type fakeAlertStore struct {
	alerts    map[string]models.PriceAlert
	triggered []string
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{alerts: map[string]models.PriceAlert{}}
}

func (f *fakeAlertStore) Create(_ context.Context, alert models.PriceAlert) error {
	f.alerts[alert.ID] = alert
	return nil
}

func (f *fakeAlertStore) Get(_ context.Context, id string) (*models.PriceAlert, error) {
	alert, ok := f.alerts[id]
	if !ok {
		return nil, errors.New("alert not found")
	}
	return &alert, nil
}

func (f *fakeAlertStore) ListByEmail(_ context.Context, email string) ([]models.PriceAlert, error) {
	var out []models.PriceAlert
	for _, alert := range f.alerts {
		if alert.UserEmail == email {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (f *fakeAlertStore) ListActive(_ context.Context) ([]models.PriceAlert, error) {
	var out []models.PriceAlert
	for _, alert := range f.alerts {
		if alert.Active {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (f *fakeAlertStore) Deactivate(_ context.Context, id string) error {
	alert, ok := f.alerts[id]
	if !ok {
		return errors.New("alert not found")
	}
	alert.Active = false
	f.alerts[id] = alert
	return nil
}

func (f *fakeAlertStore) Delete(_ context.Context, id string) error {
	delete(f.alerts, id)
	return nil
}

func (f *fakeAlertStore) MarkTriggered(_ context.Context, id string, at time.Time) error {
	alert, ok := f.alerts[id]
	if !ok {
		return errors.New("alert not found")
	}
	alert.Active = false
	alert.TriggeredAt = &at
	f.alerts[id] = alert
	f.triggered = append(f.triggered, id)
	return nil
}

type fakeOfferLookup struct {
	price decimal.Decimal
	err   error
}

func (f *fakeOfferLookup) CheapestOffer(_ context.Context, origin, destination, departureDate string) (*models.FlightOffer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.FlightOffer{
		ID:            "offer-1",
		Origin:        origin,
		Destination:   destination,
		DepartureDate: departureDate,
		Airline:       "DL",
		Price:         f.price,
		Currency:      "USD",
	}, nil
}

type fakeNotifier struct {
	notified []string
	err      error
}

func (f *fakeNotifier) NotifyAlert(_ context.Context, alert models.PriceAlert, _ models.FlightOffer) error {
	if f.err != nil {
		return f.err
	}
	f.notified = append(f.notified, alert.ID)
	return nil
}

func validAlertRequest() models.PriceAlert {
	return models.PriceAlert{
		UserEmail:     "traveler@example.com",
		Origin:        "JFK",
		Destination:   "LAX",
		TargetPrice:   decimal.NewFromInt(250),
		DepartureDate: "2024-07-01",
	}
}

func TestCreateAlertAssignsIdentity(t *testing.T) {
	store := newFakeAlertStore()
	svc := NewAlertService(store, &fakeOfferLookup{}, nil, testServiceLogger())

	created, err := svc.CreateAlert(context.Background(), validAlertRequest())
	require.NoError(t, err)

	_, err = uuid.Parse(created.ID)
	assert.NoError(t, err)
	assert.True(t, created.Active)
	assert.Equal(t, "ECONOMY", created.CabinClass)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestCreateAlertValidation(t *testing.T) {
	svc := NewAlertService(newFakeAlertStore(), &fakeOfferLookup{}, nil, testServiceLogger())

	missingEmail := validAlertRequest()
	missingEmail.UserEmail = ""
	_, err := svc.CreateAlert(context.Background(), missingEmail)
	assert.ErrorIs(t, err, ErrInvalidAlert)

	badPrice := validAlertRequest()
	badPrice.TargetPrice = decimal.Zero
	_, err = svc.CreateAlert(context.Background(), badPrice)
	assert.ErrorIs(t, err, ErrInvalidAlert)
}

func TestCheckAlertTriggersAtOrBelowTarget(t *testing.T) {
	store := newFakeAlertStore()
	notifier := &fakeNotifier{}
	svc := NewAlertService(store, &fakeOfferLookup{price: decimal.NewFromInt(250)}, notifier, testServiceLogger())

	created, err := svc.CreateAlert(context.Background(), validAlertRequest())
	require.NoError(t, err)

	fired, err := svc.CheckAlert(context.Background(), *created)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Contains(t, store.triggered, created.ID)
	assert.Contains(t, notifier.notified, created.ID)

	stored, err := store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
	require.NotNil(t, stored.TriggeredAt)
}

func TestCheckAlertHoldsAboveTarget(t *testing.T) {
	store := newFakeAlertStore()
	svc := NewAlertService(store, &fakeOfferLookup{price: decimal.NewFromInt(300)}, nil, testServiceLogger())

	created, err := svc.CreateAlert(context.Background(), validAlertRequest())
	require.NoError(t, err)

	fired, err := svc.CheckAlert(context.Background(), *created)
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Empty(t, store.triggered)
}

func TestCheckAlertNotificationFailureIsNotFatal(t *testing.T) {
	store := newFakeAlertStore()
	notifier := &fakeNotifier{err: errors.New("telegram down")}
	svc := NewAlertService(store, &fakeOfferLookup{price: decimal.NewFromInt(200)}, notifier, testServiceLogger())

	created, err := svc.CreateAlert(context.Background(), validAlertRequest())
	require.NoError(t, err)

	fired, err := svc.CheckAlert(context.Background(), *created)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Contains(t, store.triggered, created.ID)
}

func TestCheckAllActiveCountsTriggers(t *testing.T) {
	store := newFakeAlertStore()
	svc := NewAlertService(store, &fakeOfferLookup{price: decimal.NewFromInt(240)}, nil, testServiceLogger())

	cheap := validAlertRequest()
	_, err := svc.CreateAlert(context.Background(), cheap)
	require.NoError(t, err)

	expensive := validAlertRequest()
	expensive.TargetPrice = decimal.NewFromInt(100)
	_, err = svc.CreateAlert(context.Background(), expensive)
	require.NoError(t, err)

	triggered, err := svc.CheckAllActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, triggered)
}

func TestCheckAllActiveSurvivesLookupFailure(t *testing.T) {
	store := newFakeAlertStore()
	svc := NewAlertService(store, &fakeOfferLookup{err: errors.New("provider down")}, nil, testServiceLogger())

	_, err := svc.CreateAlert(context.Background(), validAlertRequest())
	require.NoError(t, err)

	triggered, err := svc.CheckAllActive(context.Background())
	require.NoError(t, err)
	assert.Zero(t, triggered)
}
