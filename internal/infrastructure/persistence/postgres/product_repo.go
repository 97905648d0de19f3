package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/domain/repository"
	"github.com/turtacn/authgate/pkg/errors"
	"github.com/turtacn/authgate/pkg/logger"
)

// ProductRepoImpl implements ProductRepository over gorm.
type ProductRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

var _ repository.ProductRepository = (*ProductRepoImpl)(nil)

// NewProductRepository creates a new product repository instance.
func NewProductRepository(db *gorm.DB, log logger.Logger) *ProductRepoImpl {
	return &ProductRepoImpl{
		db:     db,
		logger: log.WithComponent("ProductRepository"),
	}
}

func (r *ProductRepoImpl) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		r.logger.Error(ctx, "Failed to create product", err, logger.Fields{"owner_id": product.OwnerID})
		return errors.ErrInternal.WithCause(err)
	}
	return nil
}

func (r *ProductRepoImpl) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.ErrInternal.WithCause(err)
	}
	return &product, nil
}

func (r *ProductRepoImpl) List(ctx context.Context) ([]*models.Product, error) {
	var products []*models.Product
	if err := r.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, errors.ErrInternal.WithCause(err)
	}
	return products, nil
}

func (r *ProductRepoImpl) Update(ctx context.Context, id int64, update repository.ProductUpdate) error {
	fields := map[string]interface{}{}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.Description != nil {
		fields["description"] = *update.Description
	}
	if update.Price != nil {
		fields["price"] = *update.Price
	}
	if update.State != nil {
		fields["state"] = *update.State
	}
	if len(fields) == 0 {
		_, err := r.FindByID(ctx, id)
		return err
	}

	result := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return errors.ErrInternal.WithCause(result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (r *ProductRepoImpl) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if result.Error != nil {
		return errors.ErrInternal.WithCause(result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}
