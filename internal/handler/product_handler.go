package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"storefront/internal/errors"
	"storefront/internal/service"
)

// ProductHandler serves the public shop and product administration.
type ProductHandler struct {
	catalog  service.CatalogService
	cacheTTL time.Duration
}

// NewProductHandler creates a new product handler. cacheTTL drives the
// Cache-Control header of public reads.
func NewProductHandler(catalog service.CatalogService, cacheTTL time.Duration) *ProductHandler {
	return &ProductHandler{catalog: catalog, cacheTTL: cacheTTL}
}

func (h *ProductHandler) productQuery(c echo.Context) (service.ProductQuery, error) {
	limit, offset, search, err := pageQuery(c)
	if err != nil {
		return service.ProductQuery{}, err
	}
	return service.ProductQuery{
		Limit:    limit,
		Offset:   offset,
		Search:   search,
		Category: c.QueryParam("category"),
	}, nil
}

func (h *ProductHandler) setCacheControl(c echo.Context) {
	c.Response().Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.cacheTTL.Seconds())))
}

// ListShopProducts godoc
// @Summary List active products
// @Tags shop
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Param search query string false "Name, description or slug"
// @Param category query string false "Category"
// @Success 200 {object} service.ProductPage
// @Router /shop/products [get]
func (h *ProductHandler) ListShopProducts(c echo.Context) error {
	query, err := h.productQuery(c)
	if err != nil {
		return err
	}
	page, err := h.catalog.ListShopProducts(c.Request().Context(), query)
	if err != nil {
		return fail(err)
	}
	h.setCacheControl(c)
	return ok(c, http.StatusOK, productPage(page))
}

// GetShopProduct godoc
// @Summary Get an active product by slug
// @Tags shop
// @Produce json
// @Param slug path string true "Product slug"
// @Success 200 {object} model.Product
// @Failure 404 {object} errors.ErrorResponse
// @Router /shop/products/{slug} [get]
func (h *ProductHandler) GetShopProduct(c echo.Context) error {
	product, err := h.catalog.GetShopProduct(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return fail(err)
	}
	h.setCacheControl(c)
	return ok(c, http.StatusOK, echo.Map{"product": product})
}

// ListProducts godoc
// @Summary List all products, including inactive ones
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Param search query string false "Name, description or slug"
// @Param category query string false "Category"
// @Success 200 {object} service.ProductPage
// @Router /products [get]
func (h *ProductHandler) ListProducts(c echo.Context) error {
	query, err := h.productQuery(c)
	if err != nil {
		return err
	}
	page, err := h.catalog.ListProducts(c.Request().Context(), query)
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, productPage(page))
}

// GetProduct godoc
// @Summary Get a product by id
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} model.Product
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [get]
func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := parseUintParam(c, "id", "INVALID_PRODUCT_ID")
	if err != nil {
		return err
	}
	product, err := h.catalog.GetProduct(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{"product": product})
}

// CreateProduct godoc
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ProductInput true "Product"
// @Success 201 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /products [post]
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var input service.ProductInput
	if err := c.Bind(&input); err != nil {
		return errors.BadRequest("invalid request body", "INVALID_REQUEST")
	}
	product, err := h.catalog.CreateProduct(c.Request().Context(), input)
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusCreated, echo.Map{"product": product})
}

// UpdateProduct godoc
// @Summary Update a product
// @Description Only the fields present in the body change.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param request body service.ProductInput true "Fields to change"
// @Success 200 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [patch]
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := parseUintParam(c, "id", "INVALID_PRODUCT_ID")
	if err != nil {
		return err
	}
	var input service.ProductInput
	if err := c.Bind(&input); err != nil {
		return errors.BadRequest("invalid request body", "INVALID_REQUEST")
	}
	product, err := h.catalog.UpdateProduct(c.Request().Context(), id, input)
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{"product": product})
}

// DeleteProduct godoc
// @Summary Delete a product
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := parseUintParam(c, "id", "INVALID_PRODUCT_ID")
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteProduct(c.Request().Context(), id); err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{"message": "product deleted"})
}

func productPage(page *service.ProductPage) echo.Map {
	return echo.Map{
		"products": page.Products,
		"total":    page.Total,
		"limit":    page.Limit,
		"offset":   page.Offset,
		"hasMore":  page.HasMore,
	}
}
