package service

import (
	"context"

	"github.com/turtacn/authgate/internal/application/dto"
	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/domain/repository"
	"github.com/turtacn/authgate/pkg/logger"
	"github.com/turtacn/authgate/pkg/utils"
)

// CatalogAppService defines product operations. Authorization is enforced by
// the transport before these are called.
type CatalogAppService interface {
	CreateProduct(ctx context.Context, req *dto.ProductRequest) (*dto.ProductResponse, error)
	GetProduct(ctx context.Context, id int64) (*dto.ProductResponse, error)
	ListProducts(ctx context.Context) ([]*dto.ProductResponse, error)
	UpdateProduct(ctx context.Context, id int64, req *dto.ProductRequest) (*dto.ProductResponse, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type catalogAppServiceImpl struct {
	products repository.ProductRepository
	logger   logger.Logger
}

// NewCatalogAppService creates a new instance of CatalogAppService
func NewCatalogAppService(products repository.ProductRepository, log logger.Logger) CatalogAppService {
	return &catalogAppServiceImpl{products: products, logger: log.WithComponent("CatalogAppService")}
}

func (s *catalogAppServiceImpl) CreateProduct(ctx context.Context, req *dto.ProductRequest) (*dto.ProductResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		State:       req.State,
		OwnerID:     models.PrincipalID(req.OwnerID),
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Product created", logger.Fields{"product_id": product.ID, "owner_id": product.OwnerID})
	return dto.NewProductResponse(product), nil
}

func (s *catalogAppServiceImpl) GetProduct(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewProductResponse(product), nil
}

func (s *catalogAppServiceImpl) ListProducts(ctx context.Context) ([]*dto.ProductResponse, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, dto.NewProductResponse(p))
	}
	return out, nil
}

func (s *catalogAppServiceImpl) UpdateProduct(ctx context.Context, id int64, req *dto.ProductRequest) (*dto.ProductResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	update := repository.ProductUpdate{
		Name:        &req.Name,
		Description: &req.Description,
		Price:       &req.Price,
		State:       &req.State,
	}
	if err := s.products.Update(ctx, id, update); err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, id)
}

func (s *catalogAppServiceImpl) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "Product deleted", logger.Fields{"product_id": id})
	return nil
}
