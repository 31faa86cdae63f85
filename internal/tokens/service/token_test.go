package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	reservationerrors "tablebook/internal/reservations/errors"
	reservationrepo "tablebook/internal/reservations/repository"
	tableerrors "tablebook/internal/tables/errors"
	tablerepo "tablebook/internal/tables/repository"
	tokenerrors "tablebook/internal/tokens/errors"
	"tablebook/pkg/clock"
	"tablebook/pkg/config"
	mongotx "tablebook/pkg/db/mongo"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/logger"
	"tablebook/pkg/model"
	"tablebook/pkg/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTokenRepository struct {
	tokens  map[string]*model.ReservationToken
	findErr error
}

func newMockTokenRepository() *mockTokenRepository {
	return &mockTokenRepository{tokens: map[string]*model.ReservationToken{}}
}

func (m *mockTokenRepository) Create(ctx context.Context, token *model.ReservationToken) error {
	token.ID = fmt.Sprintf("tok-%d", len(m.tokens)+1)
	m.tokens[token.Token] = token
	return nil
}

func (m *mockTokenRepository) FindByToken(ctx context.Context, token string) (*model.ReservationToken, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	t, ok := m.tokens[token]
	if !ok || !t.IsActive {
		return nil, tokenerrors.ErrNotFound
	}
	return t, nil
}

func (m *mockTokenRepository) DeleteByReservation(ctx context.Context, reservationID string) (int64, error) {
	var n int64
	for k, t := range m.tokens {
		if t.ReservationID == reservationID {
			delete(m.tokens, k)
			n++
		}
	}
	return n, nil
}

type mockReservationRepository struct {
	reservations    map[string]*model.Reservation
	updateStatusErr error
	notes           []string
}

func (m *mockReservationRepository) Create(ctx context.Context, r *model.Reservation) error {
	m.reservations[r.ID] = r
	return nil
}

func (m *mockReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	r, ok := m.reservations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", reservationerrors.ErrNotFound, id)
	}
	copied := *r
	return &copied, nil
}

func (m *mockReservationRepository) Find(ctx context.Context, filter reservationrepo.ReservationFilter) ([]*model.Reservation, error) {
	return nil, nil
}

func (m *mockReservationRepository) UpdateStatus(ctx context.Context, id string, from, to model.ReservationStatus, note string) error {
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	r, ok := m.reservations[id]
	if !ok || r.Status != from {
		return fmt.Errorf("%w: %s", reservationerrors.ErrStatusChanged, id)
	}
	r.Status = to
	m.notes = append(m.notes, note)
	return nil
}

func (m *mockReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

type mockTableRepository struct {
	tables map[string]*model.Table
}

func (m *mockTableRepository) FindAll(ctx context.Context, filter tablerepo.TableFilter) ([]*model.Table, error) {
	return nil, nil
}

func (m *mockTableRepository) FindByID(ctx context.Context, id string) (*model.Table, error) {
	return nil, nil
}

func (m *mockTableRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Table, error) {
	var out []*model.Table
	for _, id := range ids {
		t, ok := m.tables[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", tableerrors.ErrNotFound, id)
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTableRepository) UpdateStatus(ctx context.Context, id string, update model.TableStatusUpdate) error {
	return nil
}

func (m *mockTableRepository) Delete(ctx context.Context, id string) error {
	return nil
}

type mockNotifier struct {
	events []notify.Event
	err    error
}

func (m *mockNotifier) Notify(ctx context.Context, event notify.Event) error {
	m.events = append(m.events, event)
	return m.err
}

func (m *mockNotifier) Close() error { return nil }

var now = time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc          *tokenService
	tokens       *mockTokenRepository
	reservations *mockReservationRepository
	notifier     *mockNotifier
	clock        *clock.Fixed
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tokens:       newMockTokenRepository(),
		reservations: &mockReservationRepository{reservations: map[string]*model.Reservation{}},
		notifier:     &mockNotifier{},
		clock:        clock.NewFixed(now),
	}
	f.svc = &tokenService{
		repo:            f.tokens,
		reservationRepo: f.reservations,
		tableRepo: &mockTableRepository{tables: map[string]*model.Table{
			"t1": {ID: "t1", Number: "4", Zone: model.ZoneTerrace, Capacity: 4},
		}},
		notifier: f.notifier,
		clock:    f.clock,
		cfg: &config.Config{
			Log: logger.New(logger.Config{
				Level:   "info",
				Format:  logger.JSON,
				Service: "test",
			}),
			TokenTTL:      30 * 24 * time.Hour,
			NotifyTimeout: time.Second,
		},
	}
	return f
}

func (f *fixture) addReservation(id string, status model.ReservationStatus, at time.Time) *model.Reservation {
	r := &model.Reservation{
		ID:            id,
		CustomerName:  "Ada Lovelace",
		CustomerEmail: "ada@example.com",
		CustomerPhone: "+393331234567",
		PartySize:     4,
		Date:          at.Format(model.DateLayout),
		Time:          at,
		Status:        status,
		TableIDs:      []string{"t1"},
		PreOrderItems: []model.PreOrderItem{
			{MenuItemID: "m1", Name: "Spritz", Quantity: 3, UnitPrice: 6.5},
			{MenuItemID: "m2", Name: "Olives", Quantity: 1, UnitPrice: 4.1},
		},
	}
	f.reservations.reservations[id] = r
	return r
}

func (f *fixture) issue(t *testing.T, r *model.Reservation) string {
	t.Helper()
	token, err := f.svc.Issue(context.Background(), r, f.clock.Now())
	require.NoError(t, err)
	return token.Token
}

func TestIssue_ExpiryIsEarlierOfTTLAndBookingTime(t *testing.T) {
	f := newFixture(t)

	soon := f.addReservation("r1", model.ReservationConfirmed, now.Add(5*24*time.Hour))
	token, err := f.svc.Issue(context.Background(), soon, now)
	require.NoError(t, err)
	assert.Equal(t, soon.Time, token.Expires, "a booking before the TTL caps the expiry")

	far := f.addReservation("r2", model.ReservationConfirmed, now.Add(90*24*time.Hour))
	token, err = f.svc.Issue(context.Background(), far, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*24*time.Hour), token.Expires)
}

func TestIssue_ExpiryNeverPassesBookingTime(t *testing.T) {
	f := newFixture(t)

	for hours := 1; hours <= 24*60; hours += 7 {
		r := f.addReservation(fmt.Sprintf("r%d", hours), model.ReservationConfirmed, now.Add(time.Duration(hours)*time.Hour))
		token, err := f.svc.Issue(context.Background(), r, now)
		require.NoError(t, err)
		assert.False(t, token.Expires.After(r.Time), "token for %dh booking expires after it", hours)
		assert.False(t, token.Expires.After(now.Add(f.svc.cfg.TokenTTL)))
	}
}

func TestIssue_SupersedesEarlierTokens(t *testing.T) {
	f := newFixture(t)
	r := f.addReservation("r1", model.ReservationConfirmed, now.Add(48*time.Hour))

	first := f.issue(t, r)
	second := f.issue(t, r)

	assert.NotEqual(t, first, second)
	assert.Len(t, f.tokens.tokens, 1)

	result, err := f.svc.Validate(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, ErrorTypeNotFound, result.ErrorType)
}

func TestValidate_Outcomes(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(f *fixture) string
		wantType  string
		wantValid bool
	}{
		{
			name:     "unknown token",
			setup:    func(f *fixture) string { return "nope" },
			wantType: ErrorTypeNotFound,
		},
		{
			name: "inactive token",
			setup: func(f *fixture) string {
				f.tokens.tokens["dead"] = &model.ReservationToken{Token: "dead", ReservationID: "r1", Expires: now.Add(time.Hour)}
				return "dead"
			},
			wantType: ErrorTypeNotFound,
		},
		{
			name: "expired token",
			setup: func(f *fixture) string {
				f.addReservation("r1", model.ReservationConfirmed, now.Add(48*time.Hour))
				f.tokens.tokens["old"] = &model.ReservationToken{Token: "old", ReservationID: "r1", Expires: now.Add(-time.Minute), IsActive: true}
				return "old"
			},
			wantType: ErrorTypeExpired,
		},
		{
			name: "expiry is checked before reservation state",
			setup: func(f *fixture) string {
				f.addReservation("r1", model.ReservationCancelled, now.Add(time.Hour))
				f.tokens.tokens["old"] = &model.ReservationToken{Token: "old", ReservationID: "r1", Expires: now.Add(-time.Minute), IsActive: true}
				return "old"
			},
			wantType: ErrorTypeExpired,
		},
		{
			name: "cancelled reservation",
			setup: func(f *fixture) string {
				return f.issueFor(model.ReservationCancelled, now.Add(48*time.Hour))
			},
			wantType: ErrorTypeInvalid,
		},
		{
			name: "completed reservation",
			setup: func(f *fixture) string {
				return f.issueFor(model.ReservationCompleted, now.Add(48*time.Hour))
			},
			wantType: ErrorTypeInvalid,
		},
		{
			name: "reservation missing",
			setup: func(f *fixture) string {
				f.tokens.tokens["orphan"] = &model.ReservationToken{Token: "orphan", ReservationID: "gone", Expires: now.Add(time.Hour), IsActive: true}
				return "orphan"
			},
			wantType: ErrorTypeInvalid,
		},
		{
			name: "inside the two hour cutoff",
			setup: func(f *fixture) string {
				return f.issueFor(model.ReservationConfirmed, now.Add(119*time.Minute))
			},
			wantType: ErrorTypeTooClose,
		},
		{
			name: "exactly two hours ahead",
			setup: func(f *fixture) string {
				return f.issueFor(model.ReservationConfirmed, now.Add(2*time.Hour))
			},
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			value := tt.setup(f)

			result, err := f.svc.Validate(context.Background(), value)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid)
			assert.Equal(t, tt.wantType, result.ErrorType)
			if !tt.wantValid {
				assert.Nil(t, result.Reservation)
				assert.NotEmpty(t, result.Message)
			}
		})
	}
}

func (f *fixture) issueFor(status model.ReservationStatus, at time.Time) string {
	r := f.addReservation("r1", status, at)
	token, err := f.svc.Issue(context.Background(), r, now)
	if err != nil {
		panic(err)
	}
	return token.Token
}

func TestValidate_ValidSnapshot(t *testing.T) {
	f := newFixture(t)
	value := f.issue(t, f.addReservation("r1", model.ReservationConfirmed, now.Add(48*time.Hour)))

	result, err := f.svc.Validate(context.Background(), value)
	require.NoError(t, err)
	require.True(t, result.Valid)

	require.NotNil(t, result.Reservation)
	assert.Equal(t, "r1", result.Reservation.ID)
	require.Len(t, result.Reservation.Tables, 1)
	assert.Equal(t, "4", result.Reservation.Tables[0].Number)
	assert.Equal(t, 19.5, result.Reservation.PreOrderItems[0].Total)
	assert.Equal(t, 23.6, result.Reservation.PreOrderTotal)

	require.NotNil(t, result.Customer)
	assert.Equal(t, "ada@example.com", result.Customer.Email)

	assert.Equal(t, model.ReservationConfirmed, f.reservations.reservations["r1"].Status, "validation has no side effects")
	assert.Len(t, f.tokens.tokens, 1)
}

func TestValidate_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Validate(context.Background(), "   ")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestValidate_StoreFailureIsNetworkError(t *testing.T) {
	f := newFixture(t)
	f.tokens.findErr = errors.New("server selection timeout")

	result, err := f.svc.Validate(context.Background(), "abc")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ErrorTypeNetwork, result.ErrorType)
	assert.NotEmpty(t, result.Message)
	assert.Nil(t, result.Reservation)
}

func TestCancel_Success(t *testing.T) {
	f := newFixture(t)
	value := f.issue(t, f.addReservation("r1", model.ReservationConfirmed, now.Add(48*time.Hour)))

	require.NoError(t, f.svc.Cancel(context.Background(), value, "  plans changed "))

	assert.Equal(t, model.ReservationCancelled, f.reservations.reservations["r1"].Status)
	assert.Equal(t, []string{"Cancelled by customer: plans changed"}, f.reservations.notes)
	assert.Empty(t, f.tokens.tokens, "tokens are revoked with the cancellation")

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, notify.EventReservationCancelled, f.notifier.events[0].Type)
	assert.Equal(t, "plans changed", f.notifier.events[0].Reason)

	err := f.svc.Cancel(context.Background(), value, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound), "a used link cannot cancel twice")
}

func TestCancel_NotificationFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("broker unreachable")
	value := f.issue(t, f.addReservation("r1", model.ReservationPending, now.Add(48*time.Hour)))

	require.NoError(t, f.svc.Cancel(context.Background(), value, ""))
	assert.Equal(t, model.ReservationCancelled, f.reservations.reservations["r1"].Status)
	assert.Equal(t, []string{"Cancelled by customer"}, f.reservations.notes)
}

func TestCancel_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(f *fixture) string
		wantCode string
	}{
		{"unknown token", func(f *fixture) string { return "nope" }, apperrors.CodeNotFound},
		{"expired", func(f *fixture) string {
			f.addReservation("r1", model.ReservationConfirmed, now.Add(48*time.Hour))
			f.tokens.tokens["old"] = &model.ReservationToken{Token: "old", ReservationID: "r1", Expires: now.Add(-time.Second), IsActive: true}
			return "old"
		}, apperrors.CodeExpired},
		{"already cancelled", func(f *fixture) string {
			return f.issueFor(model.ReservationCancelled, now.Add(48*time.Hour))
		}, apperrors.CodeConflict},
		{"too close", func(f *fixture) string {
			return f.issueFor(model.ReservationConfirmed, now.Add(30*time.Minute))
		}, apperrors.CodeTooClose},
		{"seated party", func(f *fixture) string {
			return f.issueFor(model.ReservationSeated, now.Add(48*time.Hour))
		}, apperrors.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			err := f.svc.Cancel(context.Background(), tt.setup(f), "")
			assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
			assert.Empty(t, f.notifier.events)
		})
	}
}

func TestCancel_ConcurrentStatusChange(t *testing.T) {
	f := newFixture(t)
	value := f.issue(t, f.addReservation("r1", model.ReservationConfirmed, now.Add(48*time.Hour)))
	f.reservations.updateStatusErr = fmt.Errorf("%w: r1", reservationerrors.ErrStatusChanged)

	err := f.svc.Cancel(context.Background(), value, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	assert.Empty(t, f.notifier.events)
	assert.Len(t, f.tokens.tokens, 1)
}

func TestReissue(t *testing.T) {
	f := newFixture(t)
	r := f.addReservation("r1", model.ReservationConfirmed, now.Add(48*time.Hour))
	first := f.issue(t, r)

	token, err := f.svc.Reissue(context.Background(), "r1")
	require.NoError(t, err)
	assert.NotEqual(t, first, token.Token)
	assert.Len(t, f.tokens.tokens, 1)

	_, err = f.svc.Reissue(context.Background(), "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	f.addReservation("r2", model.ReservationCompleted, now.Add(-time.Hour))
	_, err = f.svc.Reissue(context.Background(), "r2")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}
