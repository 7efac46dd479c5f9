package catalog

import (
	"context"
	"fmt"

	"github.com/salesdesk/backend/internal/domain/catalog"
	"github.com/salesdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductService handles product catalog operations. Name uniqueness is
// checked up front for a friendly error; the store's unique constraint
// remains the authority under concurrent creates and surfaces as the same
// duplicate kind.
type ProductService struct {
	products catalog.ProductRepository
	logger   *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(products catalog.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		products: products,
		logger:   logger,
	}
}

// CreateProduct creates a new product
func (s *ProductService) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	existing, err := s.products.FindByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDuplicate(fmt.Sprintf("Product with name '%s' already exists", req.Name))
	}

	product, err := catalog.NewProduct(req.Name, *req.Price, *req.Stock)
	if err != nil {
		return nil, err
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.Uint("product_id", product.ID),
		zap.String("name", product.Name))

	resp := ToProductResponse(product)
	return &resp, nil
}

// GetProduct retrieves a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id uint) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, shared.NewNotFound(fmt.Sprintf("Product %d not found", id))
	}

	resp := ToProductResponse(product)
	return &resp, nil
}

// ListProducts retrieves a page of products
func (s *ProductService) ListProducts(ctx context.Context, page shared.Page) (*shared.Paginated[ProductResponse], error) {
	result, err := s.products.FindPage(ctx, page)
	if err != nil {
		return nil, err
	}

	return shared.NewPaginated(
		ToProductResponses(result.Items),
		result.Total,
		shared.Page{Skip: result.Skip, Take: result.Take},
	), nil
}

// UpdateProduct applies a partial update to a product
func (s *ProductService) UpdateProduct(ctx context.Context, id uint, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, shared.NewNotFound(fmt.Sprintf("Product %d not found", id))
	}

	if req.Name != nil && *req.Name != product.Name {
		existing, err := s.products.FindByName(ctx, *req.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != product.ID {
			return nil, shared.NewDuplicate(fmt.Sprintf("Product with name '%s' already exists", *req.Name))
		}
		if err := product.Rename(*req.Name); err != nil {
			return nil, err
		}
	}

	if req.Price != nil {
		if err := product.SetPrice(*req.Price); err != nil {
			return nil, err
		}
	}

	if req.Stock != nil {
		if err := product.SetStock(*req.Stock); err != nil {
			return nil, err
		}
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product updated", zap.Uint("product_id", product.ID))

	resp := ToProductResponse(product)
	return &resp, nil
}

// DeleteProduct removes a product. Products referenced by sale lines cannot
// be deleted; the store's foreign key reports that case.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if product == nil {
		return shared.NewNotFound(fmt.Sprintf("Product %d not found", id))
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Product deleted",
		zap.Uint("product_id", id),
		zap.String("name", product.Name))
	return nil
}
