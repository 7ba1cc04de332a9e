package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"

	"storefront/internal/cache"
	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/repository"
)

// ShopCachePrefix prefixes every cached storefront read. Any change to a
// product or its stock drops the whole prefix.
const ShopCachePrefix = "shop:products:"

// ProductQuery narrows a product listing.
type ProductQuery struct {
	Limit    int
	Offset   int
	Search   string
	Category string
}

// ProductPage is one page of products.
type ProductPage struct {
	Products []model.Product `json:"products"`
	PageInfo
}

// ProductInput carries product fields. Nil fields are left unchanged on update.
type ProductInput struct {
	Name        *string          `json:"name"`
	Slug        *string          `json:"slug"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Active      *bool            `json:"active"`
	Images      *[]string        `json:"images"`
}

// CatalogService serves the public shop and product administration.
type CatalogService interface {
	ListShopProducts(ctx context.Context, query ProductQuery) (*ProductPage, error)
	GetShopProduct(ctx context.Context, slug string) (*model.Product, error)

	ListProducts(ctx context.Context, query ProductQuery) (*ProductPage, error)
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uint, input ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
}

type catalogService struct {
	repo     repository.ProductRepository
	cache    *cache.Client
	cacheTTL time.Duration
}

// NewCatalogService creates a catalog service whose shop reads are cached for ttl.
func NewCatalogService(repo repository.ProductRepository, cache *cache.Client, ttl time.Duration) CatalogService {
	return &catalogService{repo: repo, cache: cache, cacheTTL: ttl}
}

func (s *catalogService) listCacheKey(filter repository.ProductFilter) string {
	params := url.Values{
		"limit":    {strconv.Itoa(filter.Limit)},
		"offset":   {strconv.Itoa(filter.Offset)},
		"category": {filter.Category},
		"search":   {strings.ToLower(filter.Search)},
	}
	return ShopCachePrefix + "list:" + params.Encode()
}

// ListShopProducts lists active products only.
func (s *catalogService) ListShopProducts(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	filter := productFilter(query)
	filter.ActiveOnly = true

	key := s.listCacheKey(filter)
	var cached ProductPage
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	page, err := s.list(ctx, filter)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetJSON(ctx, key, page, s.cacheTTL)
	return page, nil
}

// GetShopProduct returns an active product by slug. Inactive products are
// reported as missing.
func (s *catalogService) GetShopProduct(ctx context.Context, slugValue string) (*model.Product, error) {
	key := ShopCachePrefix + "slug:" + slugValue
	var cached model.Product
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	product, err := s.repo.FindBySlug(ctx, slugValue)
	if err != nil {
		return nil, notFound(err, apperrors.ErrProductNotFound)
	}
	if !product.Active {
		return nil, apperrors.ErrProductNotFound
	}
	_ = s.cache.SetJSON(ctx, key, product, s.cacheTTL)
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	return s.list(ctx, productFilter(query))
}

func (s *catalogService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrProductNotFound)
	}
	return product, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, apperrors.ErrInvalidProduct
	}
	product := &model.Product{Active: true, Images: []string{}}
	if err := applyProductInput(product, input); err != nil {
		return nil, err
	}
	if product.Slug == "" {
		product.Slug = slug.Make(product.Name)
	}
	if err := s.ensureSlugFree(ctx, product.Slug, 0); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.invalidate(ctx)
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uint, input ProductInput) (*model.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrProductNotFound)
	}

	previousSlug := product.Slug
	if err := applyProductInput(product, input); err != nil {
		return nil, err
	}
	if product.Slug != previousSlug {
		if err := s.ensureSlugFree(ctx, product.Slug, product.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}
	s.invalidate(ctx)
	return product, nil
}

// DeleteProduct soft-deletes the product so past order lines keep resolving.
func (s *catalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, apperrors.ErrProductNotFound)
	}
	s.invalidate(ctx)
	return nil
}

func (s *catalogService) list(ctx context.Context, filter repository.ProductFilter) (*ProductPage, error) {
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return &ProductPage{Products: products, PageInfo: pageInfo(filter.Page, total)}, nil
}

func (s *catalogService) ensureSlugFree(ctx context.Context, value string, exceptID uint) error {
	taken, err := s.repo.SlugExists(ctx, value, exceptID)
	if err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if taken {
		return apperrors.ErrSlugTaken
	}
	return nil
}

func (s *catalogService) invalidate(ctx context.Context) {
	_ = s.cache.DeletePrefix(ctx, ShopCachePrefix)
}

func productFilter(query ProductQuery) repository.ProductFilter {
	return repository.ProductFilter{
		Page:     repository.Page{Limit: query.Limit, Offset: query.Offset}.Normalize(),
		Search:   strings.TrimSpace(query.Search),
		Category: strings.TrimSpace(query.Category),
	}
}

func applyProductInput(p *model.Product, in ProductInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return apperrors.ErrInvalidProduct
		}
		p.Name = name
	}
	if in.Slug != nil {
		value := strings.TrimSpace(*in.Slug)
		if value != "" && !slug.IsSlug(value) {
			return apperrors.ErrInvalidSlug
		}
		p.Slug = value
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return apperrors.ErrInvalidAmount
		}
		p.Price = in.Price.Round(2)
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return apperrors.ErrInvalidProduct
		}
		p.Stock = *in.Stock
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	if in.Images != nil {
		images := make([]string, 0, len(*in.Images))
		for _, key := range *in.Images {
			if key = strings.TrimSpace(key); key != "" {
				images = append(images, key)
			}
		}
		p.Images = images
	}
	if p.Slug == "" && p.ID != 0 {
		p.Slug = slug.Make(p.Name)
	}
	return nil
}
