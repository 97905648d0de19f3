package repository

import (
	"context"

	"github.com/turtacn/authgate/internal/domain/models"
)

// ProductUpdate lists the mutable fields of a product; nil fields are left untouched.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	State       *string
}

// ProductRepository 定义商品仓储接口
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	Update(ctx context.Context, id int64, update ProductUpdate) error
	Delete(ctx context.Context, id int64) error
}
