package dto

import (
	"time"

	"github.com/turtacn/authgate/internal/domain/models"
)

// ProductRequest 商品创建/更新请求 DTO
type ProductRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=128"`
	Description string  `json:"description" validate:"max=1024"`
	Price       float64 `json:"price" validate:"gte=0"`
	State       string  `json:"state" validate:"required,max=32"`
	OwnerID     int64   `json:"owner_id" validate:"required,gt=0"`
}

// ProductResponse 商品响应 DTO
type ProductResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	State       string    `json:"state"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProductResponse converts a product model.
func NewProductResponse(p *models.Product) *ProductResponse {
	return &ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		State:       p.State,
		OwnerID:     int64(p.OwnerID),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
