package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/mapper"
	"github.com/fakturo/billing-api/internal/repository"
)

type ProductService struct {
	productRepo *repository.ProductRepository
	logger      *zap.Logger
}

func NewProductService(productRepo *repository.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// Create creates a new catalog product
func (s *ProductService) Create(ctx context.Context, req *domain.CreateProductRequest) (*domain.ProductDTO, error) {
	itemType := req.ItemType
	if itemType == "" {
		itemType = domain.ItemTypeProduct
	}
	if !itemType.IsValid() {
		return nil, fmt.Errorf("%w: unknown item type %q", ErrInvalidInput, itemType)
	}
	if req.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("%w: unit price cannot be negative", ErrInvalidInput)
	}
	unit := req.Unit
	if unit == "" {
		unit = "unit"
	}

	product := &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		ItemType:    itemType,
		UnitPrice:   req.UnitPrice.Round(2),
		Unit:        unit,
		IsActive:    true,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductDTO, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

// Update updates an existing product
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateProductRequest) (*domain.ProductDTO, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if req.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("%w: unit price cannot be negative", ErrInvalidInput)
	}

	product.Name = req.Name
	product.Description = req.Description
	if req.ItemType != "" {
		if !req.ItemType.IsValid() {
			return nil, fmt.Errorf("%w: unknown item type %q", ErrInvalidInput, req.ItemType)
		}
		product.ItemType = req.ItemType
	}
	product.UnitPrice = req.UnitPrice.Round(2)
	if req.Unit != "" {
		product.Unit = req.Unit
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

// Delete removes a product from the catalog. Document lines keep their
// copied description and price; only the product reference dangles.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.productRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to get product: %w", err)
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// List returns a paginated list of products
func (s *ProductService) List(ctx context.Context, page, pageSize int, activeOnly bool, search string) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPagination(page, pageSize)

	products, total, err := s.productRepo.List(ctx, page, pageSize, activeOnly, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	dtos := make([]domain.ProductDTO, len(products))
	for i := range products {
		dtos[i] = mapper.ToProductDTO(&products[i])
	}

	return paginated(dtos, total, page, pageSize), nil
}

// UnitPriceOf returns the current unit price of a product, used to pre-fill
// new document lines
func (s *ProductService) UnitPriceOf(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrProductNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to get product: %w", err)
	}
	return product.UnitPrice, nil
}
