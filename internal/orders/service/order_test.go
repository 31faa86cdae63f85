package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	ordererrors "tablebook/internal/orders/errors"
	"tablebook/internal/orders/validator"
	"tablebook/pkg/clock"
	"tablebook/pkg/config"
	mongotx "tablebook/pkg/db/mongo"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/logger"
	"tablebook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tableID   = "650000000000000000000001"
	itemPasta = "660000000000000000000001"
	itemWine  = "660000000000000000000002"
	itemSoup  = "660000000000000000000003"
)

// store is an in-memory unit of work shared by the order, item and menu
// fakes. A failed transaction restores everything it touched.
type store struct {
	orders map[string]*model.Order
	items  []model.OrderItem
	menu   map[string]*model.MenuItem
	seq    int

	failItemInsertAt int
	failSetTotal     error
	rollbackErr      error
}

func newStore() *store {
	return &store{
		orders: map[string]*model.Order{},
		menu: map[string]*model.MenuItem{
			itemPasta: {ID: itemPasta, Name: "Pasta", Price: 12.5, Stock: 10},
			itemWine:  {ID: itemWine, Name: "Wine", Price: 7.25, Stock: 1},
			itemSoup:  {ID: itemSoup, Name: "Soup", Price: 6, Stock: 0},
		},
	}
}

func (s *store) nextID() string {
	s.seq++
	return fmt.Sprintf("67000000000000000000%04d", s.seq)
}

type memOrderRepository struct{ s *store }

func (m memOrderRepository) Create(ctx context.Context, order *model.Order) error {
	order.ID = m.s.nextID()
	copied := *order
	m.s.orders[order.ID] = &copied
	return nil
}

func (m memOrderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	o, ok := m.s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ordererrors.ErrNotFound, id)
	}
	copied := *o
	return &copied, nil
}

func (m memOrderRepository) SetTotal(ctx context.Context, id string, total float64) error {
	if m.s.failSetTotal != nil {
		return m.s.failSetTotal
	}
	m.s.orders[id].TotalAmount = total
	return nil
}

func (m memOrderRepository) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) error {
	o, ok := m.s.orders[id]
	if !ok {
		return fmt.Errorf("%w: %s", ordererrors.ErrNotFound, id)
	}
	if o.Status != from {
		return fmt.Errorf("%w: %s", ordererrors.ErrStatusChanged, id)
	}
	o.Status = to
	return nil
}

func (m memOrderRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	orders := make(map[string]*model.Order, len(m.s.orders))
	for k, v := range m.s.orders {
		copied := *v
		orders[k] = &copied
	}
	items := append([]model.OrderItem(nil), m.s.items...)
	menu := make(map[string]*model.MenuItem, len(m.s.menu))
	for k, v := range m.s.menu {
		copied := *v
		menu[k] = &copied
	}

	if err := fn(ctx); err != nil {
		m.s.orders, m.s.items, m.s.menu = orders, items, menu
		if m.s.rollbackErr != nil {
			return &mongotx.RollbackError{Cause: err, RollbackErr: m.s.rollbackErr}
		}
		return err
	}
	return nil
}

type memOrderItemRepository struct{ s *store }

func (m memOrderItemRepository) Create(ctx context.Context, item *model.OrderItem) error {
	if m.s.failItemInsertAt > 0 && len(m.s.items)+1 == m.s.failItemInsertAt {
		return errors.New("write conflict")
	}
	item.ID = m.s.nextID()
	m.s.items = append(m.s.items, *item)
	return nil
}

func (m memOrderItemRepository) FindByOrder(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	out := []model.OrderItem{}
	for _, item := range m.s.items {
		if item.OrderID == orderID {
			out = append(out, item)
		}
	}
	return out, nil
}

type memMenuItemRepository struct{ s *store }

func (m memMenuItemRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*model.MenuItem, error) {
	out := map[string]*model.MenuItem{}
	for _, id := range ids {
		if item, ok := m.s.menu[id]; ok {
			copied := *item
			out[id] = &copied
		}
	}
	return out, nil
}

func (m memMenuItemRepository) DecrementStock(ctx context.Context, id string, quantity int) error {
	item, ok := m.s.menu[id]
	if !ok || item.Stock < quantity {
		return fmt.Errorf("%w: %s", ordererrors.ErrInsufficientStock, id)
	}
	item.Stock -= quantity
	return nil
}

func newService(s *store) OrderService {
	log := logger.New(logger.Config{
		Level:   "info",
		Format:  logger.JSON,
		Service: "test",
	})
	return NewOrderService(
		memOrderRepository{s},
		memOrderItemRepository{s},
		memMenuItemRepository{s},
		validator.NewOrderValidator(log),
		clock.NewFixed(time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC)),
		&config.Config{Log: log, Location: time.UTC},
	)
}

func orderRequest(lines ...model.OrderLineRequest) *model.CreateOrderRequest {
	return &model.CreateOrderRequest{
		TableID:      tableID,
		RestaurantID: "main",
		OrderSource:  "waiter",
		Items:        lines,
	}
}

func line(id string, qty int) model.OrderLineRequest {
	return model.OrderLineRequest{MenuItemID: id, Quantity: qty}
}

func TestCreate_Success(t *testing.T) {
	s := newStore()
	svc := newService(s)

	result, err := svc.Create(context.Background(), orderRequest(line(itemPasta, 2), line(itemWine, 1)))
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Empty(t, result.StockErrors)

	order := result.Order
	assert.Equal(t, model.OrderPending, order.Status)
	assert.Regexp(t, regexp.MustCompile(`^ORD-20261015-[0-9A-F]{8}$`), order.OrderNumber)
	assert.Equal(t, 32.25, order.TotalAmount)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Pasta", order.Items[0].Name)
	assert.Equal(t, 25.0, order.Items[0].TotalPrice)

	assert.Equal(t, 8, s.menu[itemPasta].Stock)
	assert.Equal(t, 0, s.menu[itemWine].Stock)
	assert.Equal(t, 32.25, s.orders[order.ID].TotalAmount)
}

func TestCreate_InsufficientStockPersistsNothing(t *testing.T) {
	s := newStore()
	svc := newService(s)

	result, err := svc.Create(context.Background(), orderRequest(line(itemWine, 2)))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Nil(t, result.Order)
	assert.Equal(t, []model.StockViolation{
		{MenuItemID: itemWine, Name: "Wine", Requested: 2, Available: 1},
	}, result.StockErrors)

	assert.Empty(t, s.orders, "no order row survives")
	assert.Empty(t, s.items)
	assert.Equal(t, 1, s.menu[itemWine].Stock)
}

func TestCreate_ReportsEveryShortLineAggregated(t *testing.T) {
	s := newStore()
	svc := newService(s)

	result, err := svc.Create(context.Background(), orderRequest(
		line(itemSoup, 1),
		line(itemPasta, 6),
		line(itemPasta, 6),
		line("660000000000000000000099", 1),
	))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, []model.StockViolation{
		{MenuItemID: itemSoup, Name: "Soup", Requested: 1, Available: 0},
		{MenuItemID: itemPasta, Name: "Pasta", Requested: 12, Available: 10},
		{MenuItemID: "660000000000000000000099", Requested: 1},
	}, result.StockErrors)
	assert.Equal(t, 10, s.menu[itemPasta].Stock)
}

func TestCreate_LateFailureUndoesEarlierWrites(t *testing.T) {
	s := newStore()
	s.failItemInsertAt = 2
	svc := newService(s)

	_, err := svc.Create(context.Background(), orderRequest(line(itemPasta, 2), line(itemWine, 1)))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))

	assert.Empty(t, s.orders)
	assert.Empty(t, s.items)
	assert.Equal(t, 10, s.menu[itemPasta].Stock, "the first line's decrement is undone")
}

func TestCreate_TotalFailureUndoesEverything(t *testing.T) {
	s := newStore()
	s.failSetTotal = errors.New("primary stepped down")
	svc := newService(s)

	_, err := svc.Create(context.Background(), orderRequest(line(itemPasta, 1)))
	require.Error(t, err)
	assert.Empty(t, s.orders)
	assert.Empty(t, s.items)
	assert.Equal(t, 10, s.menu[itemPasta].Stock)
}

func TestCreate_DoubleFault(t *testing.T) {
	s := newStore()
	s.failSetTotal = errors.New("primary stepped down")
	s.rollbackErr = errors.New("connection reset")
	svc := newService(s)

	_, err := svc.Create(context.Background(), orderRequest(line(itemPasta, 1)))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
	_, isRollback := mongotx.AsRollbackError(err)
	assert.True(t, isRollback)
}

func TestCreate_ValidationFailure(t *testing.T) {
	s := newStore()
	svc := newService(s)

	_, err := svc.Create(context.Background(), orderRequest())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.Empty(t, s.orders)
}

func TestGetByID_IncludesItems(t *testing.T) {
	s := newStore()
	svc := newService(s)

	created, err := svc.Create(context.Background(), orderRequest(line(itemPasta, 1)))
	require.NoError(t, err)

	order, err := svc.GetByID(context.Background(), created.Order.ID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, itemPasta, order.Items[0].MenuItemID)

	_, err = svc.GetByID(context.Background(), "670000000000000000009999")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestUpdateStatus_FollowsTransitions(t *testing.T) {
	s := newStore()
	svc := newService(s)

	created, err := svc.Create(context.Background(), orderRequest(line(itemPasta, 1)))
	require.NoError(t, err)
	id := created.Order.ID

	for _, next := range []model.OrderStatus{model.OrderConfirmed, model.OrderPreparing, model.OrderReady, model.OrderServed} {
		order, err := svc.UpdateStatus(context.Background(), id, &model.OrderStatusRequest{Status: next})
		require.NoError(t, err)
		assert.Equal(t, next, order.Status)
	}

	_, err = svc.UpdateStatus(context.Background(), id, &model.OrderStatusRequest{Status: model.OrderCancelled})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict), "served orders are terminal")
}

func TestUpdateStatus_RejectsSkippingSteps(t *testing.T) {
	s := newStore()
	svc := newService(s)

	created, err := svc.Create(context.Background(), orderRequest(line(itemPasta, 1)))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), created.Order.ID, &model.OrderStatusRequest{Status: model.OrderServed})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}
