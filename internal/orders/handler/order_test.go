package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tablebook/internal/orders/service"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/logger"
	"tablebook/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOrderService struct {
	createFunc       func(ctx context.Context, req *model.CreateOrderRequest) (*service.CreateResult, error)
	getByIDFunc      func(ctx context.Context, id string) (*model.Order, error)
	updateStatusFunc func(ctx context.Context, id string, req *model.OrderStatusRequest) (*model.Order, error)
}

func (m *mockOrderService) Create(ctx context.Context, req *model.CreateOrderRequest) (*service.CreateResult, error) {
	return m.createFunc(ctx, req)
}

func (m *mockOrderService) GetByID(ctx context.Context, id string) (*model.Order, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, id string, req *model.OrderStatusRequest) (*model.Order, error) {
	return m.updateStatusFunc(ctx, id, req)
}

func newRouter(svc service.OrderService) *httprouter.Router {
	router := httprouter.New()
	NewOrderHandler(svc, logger.Nop()).RegisterRoutes(router)
	return router
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const orderBody = `{"tableId":"t1","restaurantId":"main","order_source":"waiter","items":[{"menuItemId":"itemA","quantity":2}]}`

func TestCreate_StockShortfallIs409(t *testing.T) {
	router := newRouter(&mockOrderService{
		createFunc: func(ctx context.Context, req *model.CreateOrderRequest) (*service.CreateResult, error) {
			return &service.CreateResult{
				Success:     false,
				StockErrors: []model.StockViolation{{MenuItemID: "itemA", Name: "Item A", Requested: 2, Available: 1}},
			}, nil
		},
	})

	rec := do(router, http.MethodPost, "/api/v1/orders", orderBody)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"success":false,"stockErrors":[{"menuItemId":"itemA","name":"Item A","requested":2,"available":1}]}`, rec.Body.String())
}

func TestCreate_Success(t *testing.T) {
	var got *model.CreateOrderRequest
	router := newRouter(&mockOrderService{
		createFunc: func(ctx context.Context, req *model.CreateOrderRequest) (*service.CreateResult, error) {
			got = req
			return &service.CreateResult{Success: true, Order: &model.Order{ID: "o1", OrderNumber: "ORD-20261015-ABCDEF12"}}, nil
		},
	})

	rec := do(router, http.MethodPost, "/api/v1/orders", orderBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Contains(t, rec.Body.String(), `"orderNumber":"ORD-20261015-ABCDEF12"`)
	require.NotNil(t, got)
	assert.Equal(t, "waiter", got.OrderSource)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestGetByID_NotFound(t *testing.T) {
	router := newRouter(&mockOrderService{
		getByIDFunc: func(ctx context.Context, id string) (*model.Order, error) {
			return nil, apperrors.NotFoundWithID("Order", id)
		},
	})

	rec := do(router, http.MethodGet, "/api/v1/orders/id/o9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStatus(t *testing.T) {
	router := newRouter(&mockOrderService{
		updateStatusFunc: func(ctx context.Context, id string, req *model.OrderStatusRequest) (*model.Order, error) {
			if req.Status == model.OrderServed {
				return nil, apperrors.Conflict("Order cannot move from PENDING to SERVED")
			}
			return &model.Order{ID: id, Status: req.Status}, nil
		},
	})

	rec := do(router, http.MethodPatch, "/api/v1/orders/id/o1/status", `{"status":"CONFIRMED"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"CONFIRMED"`)

	rec = do(router, http.MethodPatch, "/api/v1/orders/id/o1/status", `{"status":"SERVED"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
