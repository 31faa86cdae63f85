package model

import (
	"slices"
	"time"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderPreparing OrderStatus = "PREPARING"
	OrderReady     OrderStatus = "READY"
	OrderServed    OrderStatus = "SERVED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// orderTransitions lists every permitted edge; anything else is rejected.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderReady, OrderCancelled},
	OrderReady:     {OrderServed, OrderCancelled},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return slices.Contains(orderTransitions[s], next)
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderServed || s == OrderCancelled
}

type Order struct {
	ID           string      `json:"id,omitempty" bson:"_id,omitempty"`
	OrderNumber  string      `json:"orderNumber" bson:"order_number"`
	TableID      string      `json:"tableId" bson:"table_id"`
	RestaurantID string      `json:"restaurantId" bson:"restaurant_id"`
	OrderSource  string      `json:"orderSource" bson:"order_source"`
	Status       OrderStatus `json:"status" bson:"status"`
	TotalAmount  float64     `json:"totalAmount" bson:"total_amount"`
	Items        []OrderItem `json:"items,omitempty" bson:"-"`
	CreatedAt    time.Time   `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" bson:"updated_at"`
}

type OrderItem struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty"`
	OrderID    string    `json:"orderId" bson:"order_id"`
	MenuItemID string    `json:"menuItemId" bson:"menu_item_id"`
	Name       string    `json:"name" bson:"name"`
	Quantity   int       `json:"quantity" bson:"quantity"`
	UnitPrice  float64   `json:"unitPrice" bson:"unit_price"`
	TotalPrice float64   `json:"totalPrice" bson:"total_price"`
	Notes      string    `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at"`
}

type CreateOrderRequest struct {
	TableID      string             `json:"tableId" validate:"required,mongodb"`
	RestaurantID string             `json:"restaurantId" validate:"required,max=64"`
	Items        []OrderLineRequest `json:"items" validate:"required,min=1,max=50,dive"`
	OrderSource  string             `json:"order_source" validate:"required,oneof=waiter table_qr counter online"`
}

type OrderLineRequest struct {
	MenuItemID string `json:"menuItemId" validate:"required,mongodb"`
	Quantity   int    `json:"quantity" validate:"min=1,max=100"`
	Notes      string `json:"notes,omitempty" validate:"omitempty,max=300"`
}

// StockViolation is one line that cannot be served from current stock.
type StockViolation struct {
	MenuItemID string `json:"menuItemId"`
	Name       string `json:"name"`
	Requested  int    `json:"requested"`
	Available  int    `json:"available"`
}

type OrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=PENDING CONFIRMED PREPARING READY SERVED CANCELLED"`
}
