package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	ordererrors "tablebook/internal/orders/errors"
	"tablebook/internal/orders/repository"
	"tablebook/internal/orders/validator"
	"tablebook/pkg/clock"
	"tablebook/pkg/config"
	mongotx "tablebook/pkg/db/mongo"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/model"
	"tablebook/pkg/sanitizer"

	"github.com/google/uuid"
)

// CreateResult is the outcome of placing an order. A stock shortfall is a
// normal outcome, reported through StockErrors rather than an error.
type CreateResult struct {
	Success     bool                   `json:"success"`
	Order       *model.Order           `json:"order,omitempty"`
	StockErrors []model.StockViolation `json:"stockErrors,omitempty"`
}

type OrderService interface {
	Create(ctx context.Context, req *model.CreateOrderRequest) (*CreateResult, error)
	GetByID(ctx context.Context, id string) (*model.Order, error)
	UpdateStatus(ctx context.Context, id string, req *model.OrderStatusRequest) (*model.Order, error)
}

type orderService struct {
	repo      repository.OrderRepository
	itemRepo  repository.OrderItemRepository
	menuRepo  repository.MenuItemRepository
	validator *validator.OrderValidator
	clock     clock.Clock
	cfg       *config.Config
}

func NewOrderService(
	repo repository.OrderRepository,
	itemRepo repository.OrderItemRepository,
	menuRepo repository.MenuItemRepository,
	validator *validator.OrderValidator,
	clk clock.Clock,
	cfg *config.Config,
) OrderService {
	return &orderService{
		repo:      repo,
		itemRepo:  itemRepo,
		menuRepo:  menuRepo,
		validator: validator,
		clock:     clk,
		cfg:       cfg,
	}
}

// stockShortfall aborts the order transaction and carries every line that
// could not be served.
type stockShortfall struct {
	violations []model.StockViolation
}

func (e *stockShortfall) Error() string {
	return fmt.Sprintf("%d menu items are short of stock", len(e.violations))
}

func (s *orderService) Create(ctx context.Context, req *model.CreateOrderRequest) (*CreateResult, error) {
	now := s.clock.Now()

	s.sanitize(req)
	if err := s.validator.ValidateCreate(req); err != nil {
		s.cfg.Log.Warn("Order validation failed", "table_id", req.TableID, "error", err)
		return nil, apperrors.Validation("Order validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	order := &model.Order{
		OrderNumber:  orderNumber(now.In(s.cfg.Loc()).Format("20060102")),
		TableID:      req.TableID,
		RestaurantID: req.RestaurantID,
		OrderSource:  req.OrderSource,
		Status:       model.OrderPending,
	}

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, order); err != nil {
			return err
		}

		menu, err := s.menuRepo.FindByIDs(txCtx, distinctMenuItems(req.Items))
		if err != nil {
			return err
		}
		if violations := stockViolations(req.Items, menu); len(violations) > 0 {
			return &stockShortfall{violations: violations}
		}

		items := make([]model.OrderItem, 0, len(req.Items))
		total := 0.0
		for _, line := range req.Items {
			menuItem := menu[line.MenuItemID]
			item := model.OrderItem{
				OrderID:    order.ID,
				MenuItemID: line.MenuItemID,
				Name:       menuItem.Name,
				Quantity:   line.Quantity,
				UnitPrice:  menuItem.Price,
				TotalPrice: model.RoundMoney(menuItem.Price * float64(line.Quantity)),
				Notes:      line.Notes,
			}
			if err := s.itemRepo.Create(txCtx, &item); err != nil {
				return err
			}
			if err := s.menuRepo.DecrementStock(txCtx, line.MenuItemID, line.Quantity); err != nil {
				return err
			}
			items = append(items, item)
			total += item.TotalPrice
		}

		order.TotalAmount = model.RoundMoney(total)
		order.Items = items
		return s.repo.SetTotal(txCtx, order.ID, order.TotalAmount)
	})
	if err != nil {
		var shortfall *stockShortfall
		if errors.As(err, &shortfall) {
			s.cfg.Log.Warn("Order rejected for insufficient stock",
				"table_id", req.TableID,
				"items", len(shortfall.violations),
			)
			return &CreateResult{Success: false, StockErrors: shortfall.violations}, nil
		}
		return nil, s.mapCreateError(err, req)
	}

	s.cfg.Log.Info("Order created successfully",
		"id", order.ID,
		"order_number", order.OrderNumber,
		"table_id", order.TableID,
		"items", len(order.Items),
		"total", order.TotalAmount,
	)
	return &CreateResult{Success: true, Order: order}, nil
}

func (s *orderService) mapCreateError(err error, req *model.CreateOrderRequest) error {
	if rbErr, ok := mongotx.AsRollbackError(err); ok {
		s.cfg.Log.Error("Double fault creating order",
			"table_id", req.TableID,
			"error", rbErr.Cause,
			"rollback_error", rbErr.RollbackErr,
		)
		return apperrors.Internal("Failed to create order", err)
	}

	switch {
	case errors.Is(err, ordererrors.ErrInsufficientStock):
		s.cfg.Log.Warn("Stock changed while placing order", "table_id", req.TableID, "error", err)
		return apperrors.Conflict("Stock changed while the order was being placed, please retry")
	case errors.Is(err, ordererrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid menu item ID format")
	}

	s.cfg.Log.Error("Failed to create order", "table_id", req.TableID, "error", err)
	return apperrors.Internal("Failed to create order", err)
}

func distinctMenuItems(lines []model.OrderLineRequest) []string {
	ids := make([]string, len(lines))
	for i, line := range lines {
		ids[i] = line.MenuItemID
	}
	return sanitizer.NormalizeIDs(ids)
}

// stockViolations sums the quantity requested per menu item and reports every
// item that is unknown or short, in the order first requested.
func stockViolations(lines []model.OrderLineRequest, menu map[string]*model.MenuItem) []model.StockViolation {
	requested := make(map[string]int, len(lines))
	for _, line := range lines {
		requested[line.MenuItemID] += line.Quantity
	}

	var violations []model.StockViolation
	for _, id := range distinctMenuItems(lines) {
		item, ok := menu[id]
		switch {
		case !ok:
			violations = append(violations, model.StockViolation{MenuItemID: id, Requested: requested[id]})
		case item.Stock < requested[id]:
			violations = append(violations, model.StockViolation{
				MenuItemID: id,
				Name:       item.Name,
				Requested:  requested[id],
				Available:  item.Stock,
			})
		}
	}
	return violations
}

// orderNumber is ORD-<day>-<8 hex chars>.
func orderNumber(day string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", day, suffix)
}

func (s *orderService) GetByID(ctx context.Context, id string) (*model.Order, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Order ID cannot be empty")
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id)
	}

	items, err := s.itemRepo.FindByOrder(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id)
	}
	order.Items = items
	return order, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, id string, req *model.OrderStatusRequest) (*model.Order, error) {
	if err := s.validator.ValidateStatus(req); err != nil {
		return nil, apperrors.Validation("Order status validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(req.Status) {
		return nil, apperrors.Conflict(fmt.Sprintf("Order cannot move from %s to %s", order.Status, req.Status))
	}

	if err := s.repo.UpdateStatus(ctx, id, order.Status, req.Status); err != nil {
		if errors.Is(err, ordererrors.ErrStatusChanged) {
			return nil, apperrors.Conflict("Order was modified concurrently, please reload it")
		}
		return nil, s.mapError(err, id)
	}

	s.cfg.Log.Info("Order status updated",
		"id", id,
		"order_number", order.OrderNumber,
		"from", order.Status,
		"to", req.Status,
	)
	order.Status = req.Status
	return order, nil
}

func (s *orderService) sanitize(req *model.CreateOrderRequest) {
	req.TableID = strings.TrimSpace(req.TableID)
	req.RestaurantID = strings.TrimSpace(req.RestaurantID)
	req.OrderSource = strings.ToLower(strings.TrimSpace(req.OrderSource))
	for i := range req.Items {
		req.Items[i].MenuItemID = strings.TrimSpace(req.Items[i].MenuItemID)
		req.Items[i].Notes = sanitizer.NormalizeNotes(req.Items[i].Notes)
	}
}

func (s *orderService) mapError(err error, id string) error {
	switch {
	case errors.Is(err, ordererrors.ErrNotFound):
		return apperrors.NotFoundWithID("Order", id)
	case errors.Is(err, ordererrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid order ID format")
	}
	s.cfg.Log.Error("Order repository failure", "id", id, "error", err)
	return apperrors.Internal("Failed to retrieve order", err)
}
