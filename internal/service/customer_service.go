package service

import (
	"context"
	"fmt"

	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/repository"
)

// CustomerQuery narrows a customer listing.
type CustomerQuery struct {
	Limit  int
	Offset int
	Search string
}

// CustomerPage is one page of customers.
type CustomerPage struct {
	Customers []model.Customer `json:"customers"`
	PageInfo
}

// CustomerService exposes customer administration.
type CustomerService interface {
	ListCustomers(ctx context.Context, query CustomerQuery) (*CustomerPage, error)
	GetCustomer(ctx context.Context, id uint) (*model.Customer, error)
	// DeleteCustomer removes the customer together with every order it placed.
	DeleteCustomer(ctx context.Context, id uint) error
}

type customerService struct {
	repo repository.CustomerRepository
}

// NewCustomerService creates a new customer service.
func NewCustomerService(repo repository.CustomerRepository) CustomerService {
	return &customerService{repo: repo}
}

func (s *customerService) ListCustomers(ctx context.Context, query CustomerQuery) (*CustomerPage, error) {
	filter := repository.CustomerFilter{
		Page:   repository.Page{Limit: query.Limit, Offset: query.Offset}.Normalize(),
		Search: query.Search,
	}
	customers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	if customers == nil {
		customers = []model.Customer{}
	}
	return &CustomerPage{Customers: customers, PageInfo: pageInfo(filter.Page, total)}, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id uint) (*model.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrCustomerNotFound)
	}
	return customer, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, id uint) error {
	if err := s.repo.DeleteCascade(ctx, id); err != nil {
		return notFound(err, apperrors.ErrCustomerNotFound)
	}
	return nil
}
