package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	cataloghttpmapper "github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/adapters/http/mapper"
	catalogdomain "github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/ports"
	apierrors "github.com/Apurer/go-escrow-marketplace/internal/shared/errors"
)

// CatalogAPI wires HTTP transport with the catalog bounded context.
type CatalogAPI struct {
	service catalogports.Service
}

// NewCatalogAPI creates a CatalogAPI backed by the provided service.
func NewCatalogAPI(service catalogports.Service) CatalogAPI {
	return CatalogAPI{service: service}
}

// Post /v1/products
// Publish a new listing
func (api *CatalogAPI) AddProduct(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var payload cataloghttpmapper.NewProductRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	payload.SellerID = actor
	product, err := cataloghttpmapper.ToDomainProduct(payload)
	if err != nil {
		respondCatalogServiceError(c, err)
		return
	}
	saved, err := api.service.AddProduct(c.Request.Context(), product)
	if err != nil {
		respondCatalogServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cataloghttpmapper.FromDomainProduct(saved))
}

// Get /v1/products/:productId
// Find listing by ID
func (api *CatalogAPI) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	product, err := api.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondCatalogServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromDomainProduct(product))
}

// Get /v1/products
// Page through listings
func (api *CatalogAPI) ListProducts(c *gin.Context) {
	offset, limit := parsePageParams(c)
	products, err := api.service.ListProducts(c.Request.Context(), offset, limit)
	if err != nil {
		respondCatalogServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloghttpmapper.FromDomainProducts(products))
}

func respondCatalogServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, catalogdomain.ErrNotFound):
		respondProblem(c, apierrors.ErrNotFound.WithDetail(err.Error()))
	case errors.Is(err, catalogdomain.ErrInvalidProduct):
		respondProblem(c, apierrors.ErrValidation.WithDetail(err.Error()))
	default:
		respondProblem(c, apierrors.ErrInternal.WithDetail(err.Error()))
	}
}
