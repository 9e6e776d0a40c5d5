package service

import (
	"context"
	"strings"

	"github.com/buildcrew/fieldreport-api/internal/domain/entity"
	"github.com/buildcrew/fieldreport-api/internal/domain/enum"
	"github.com/buildcrew/fieldreport-api/internal/domain/repository"
	"github.com/buildcrew/fieldreport-api/pkg/apperror"
	"github.com/buildcrew/fieldreport-api/pkg/pagination"
	"github.com/google/uuid"
)

// OrderService handles construction order business logic. The report
// editor's order picker reads from here.
type OrderService struct {
	orderRepo repository.OrderRepository
}

// NewOrderService creates a new order service
func NewOrderService(orderRepo repository.OrderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

// CreateOrderInput contains data for creating an order
type CreateOrderInput struct {
	Code         string
	CustomerName string
	SiteAddress  string
	Notes        string
}

// CreateOrder registers a new construction order
func (s *OrderService) CreateOrder(ctx context.Context, input *CreateOrderInput) (*entity.Order, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, apperror.NewBadRequestError("Order code is required")
	}

	existing, err := s.orderRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, apperror.ErrInternalServer
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Order code already exists")
	}

	order := &entity.Order{
		Code:         code,
		CustomerName: input.CustomerName,
		SiteAddress:  input.SiteAddress,
		Status:       enum.OrderStatusActive,
		Notes:        input.Notes,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, apperror.ErrInternalServer
	}
	return order, nil
}

// GetOrder fetches a single order
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrInternalServer
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return order, nil
}

// ListOrders returns orders matching the filter
func (s *OrderService) ListOrders(ctx context.Context, params *repository.OrderFilterParams) (*pagination.PaginatedResult[entity.Order], error) {
	orders, total, err := s.orderRepo.List(ctx, params)
	if err != nil {
		return nil, apperror.ErrInternalServer
	}
	return pagination.NewPaginatedResult(orders, pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)), nil
}

// UpdateOrderStatus transitions an order's status
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status enum.OrderStatus) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrInternalServer
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}

	order.Status = status
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, apperror.ErrInternalServer
	}
	return order, nil
}
