package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logger"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/service"
)

// SeedProductData is one product entry of a seed file.
type SeedProductData struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
	Active      *bool  `json:"active"`
}

var defaultProducts = []SeedProductData{
	{Name: "Masala Chai 250g", Description: "Loose leaf black tea with spices.", Category: "tea", Price: "349.00", Stock: 40},
	{Name: "Darjeeling First Flush 100g", Description: "Light, floral spring harvest.", Category: "tea", Price: "599.00", Stock: 25},
	{Name: "Brass Tea Strainer", Description: "Fine mesh strainer.", Category: "accessories", Price: "199.00", Stock: 60},
	{Name: "Clay Kulhad Set of 6", Description: "Hand-thrown clay cups.", Category: "accessories", Price: "449.00", Stock: 15},
}

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.IsProduction())
	log.Info("starting seed script")

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN, log)
	if err != nil {
		log.WithError(err).Fatal("connect to database")
	}
	if err := db.Migrate(gormDB); err != nil {
		log.WithError(err).Fatal("run migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if email := os.Getenv("ADMIN_EMAIL"); email != "" {
		created, err := seedAdmin(ctx, repository.NewUserRepository(gormDB), repository.NewAccountRepository(gormDB),
			email, os.Getenv("ADMIN_PASSWORD"))
		if err != nil {
			log.WithError(err).Fatal("seed admin")
		}
		log.WithField("email", email).WithField("created", created).Info("admin ensured")
	}

	products := defaultProducts
	if url := os.Getenv("SEED_PRODUCTS_URL"); url != "" {
		log.WithField("url", url).Info("fetching products")
		products, err = fetchProducts(ctx, url)
		if err != nil {
			log.WithError(err).Fatal("fetch products")
		}
	}

	seeded, updated, skipped, err := seedProducts(ctx, repository.NewProductRepository(gormDB), products)
	if err != nil {
		log.WithError(err).Fatal("seed products")
	}
	log.WithField("created", seeded).
		WithField("updated", updated).
		WithField("skipped", skipped).
		Info("seed completed")
}

// seedAdmin creates an admin with a credential account, or promotes an
// existing user with that email. It reports whether a user was created.
func seedAdmin(ctx context.Context, users repository.UserRepository, accounts repository.AccountRepository, email, password string) (bool, error) {
	existing, err := users.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != model.RoleAdmin {
			if err := users.UpdateRole(ctx, existing.ID, model.RoleAdmin); err != nil {
				return false, fmt.Errorf("promote %s: %w", email, err)
			}
		}
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("look up %s: %w", email, err)
	}
	if len(password) < 8 {
		return false, errors.New("ADMIN_PASSWORD must be at least 8 characters")
	}

	hash, err := service.HashPassword(password)
	if err != nil {
		return false, err
	}
	user := &model.User{ID: uuid.New(), Name: "Administrator", Email: email, EmailVerified: true, Role: model.RoleAdmin}
	account := &model.Account{ProviderID: model.ProviderCredential, PasswordHash: hash}
	if err := accounts.CreateUserWithCredential(ctx, user, account); err != nil {
		return false, fmt.Errorf("create %s: %w", email, err)
	}
	return true, nil
}

// fetchProducts downloads a JSON array of SeedProductData.
func fetchProducts(ctx context.Context, url string) ([]SeedProductData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("products source returned status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var products []SeedProductData
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return products, nil
}

// seedProducts creates products by slug or refreshes price and stock of existing ones.
func seedProducts(ctx context.Context, repo repository.ProductRepository, items []SeedProductData) (seeded, updated, skipped int, err error) {
	for _, item := range items {
		price, perr := decimal.NewFromString(item.Price)
		if item.Name == "" || perr != nil || price.IsNegative() || item.Stock < 0 {
			skipped++
			continue
		}
		active := item.Active == nil || *item.Active
		productSlug := slug.Make(item.Name)

		existing, ferr := repo.FindBySlug(ctx, productSlug)
		if ferr != nil && !errors.Is(ferr, gorm.ErrRecordNotFound) {
			return seeded, updated, skipped, fmt.Errorf("error checking product %s: %w", productSlug, ferr)
		}

		if existing != nil {
			existing.Price = price
			existing.Stock = item.Stock
			existing.Active = active
			if err := repo.Update(ctx, existing); err != nil {
				return seeded, updated, skipped, fmt.Errorf("error updating product %s: %w", productSlug, err)
			}
			updated++
			continue
		}

		product := &model.Product{
			Slug:        productSlug,
			Name:        item.Name,
			Description: item.Description,
			Category:    item.Category,
			Price:       price,
			Stock:       item.Stock,
			Active:      active,
			Images:      []string{},
		}
		if err := repo.Create(ctx, product); err != nil {
			return seeded, updated, skipped, fmt.Errorf("error creating product %s: %w", productSlug, err)
		}
		seeded++
	}
	return seeded, updated, skipped, nil
}
