package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/authgate/internal/application/dto"
	"github.com/turtacn/authgate/internal/application/service"
	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/interfaces/http/middleware"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/logger"
)

// ProductHandler serves /products.
type ProductHandler struct {
	catalog service.CatalogAppService
	authz   *middleware.Authz
	log     logger.Logger
}

// NewProductHandler creates a new ProductHandler. authz is used by
// CreateProduct, whose owner is only known once the body is decoded.
func NewProductHandler(catalog service.CatalogAppService, authz *middleware.Authz, log logger.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, authz: authz, log: log.WithComponent("ProductHandler")}
}

// CreateProduct creates a product owned by the caller. A product cannot be
// created on behalf of another principal, admins included.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	access := models.AccessRequest{
		AllowedRoles: []constants.Role{constants.RoleUser, constants.RoleAdmin},
	}
	var req dto.ProductRequest
	if err := bindJSON(c, &req); err != nil {
		h.authz.Reject(c, access, err)
		return
	}
	access.Owner = &models.OwnerRule{OwnerID: models.PrincipalID(req.OwnerID)}
	if !h.authz.Authorize(c, access) {
		return
	}
	product, err := h.catalog.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusCreated, product)
}

// GetProduct is public.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := pathID(c, "product_id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, product)
}

// ListProducts is public.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, products)
}

// UpdateProduct is admin only.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := pathID(c, "product_id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req dto.ProductRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	product, err := h.catalog.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, product)
}

// DeleteProduct is admin only.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := pathID(c, "product_id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	noContent(c)
}
