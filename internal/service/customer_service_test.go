package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/repository"
)

func TestCustomerService_ListCustomers(t *testing.T) {
	repo := new(MockCustomerRepository)
	repo.On("List", mock.Anything, repository.CustomerFilter{Page: repository.Page{Limit: 20}}).
		Return([]model.Customer{{ID: 1}}, int64(1), nil)
	svc := NewCustomerService(repo)

	page, err := svc.ListCustomers(context.Background(), CustomerQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Customers, 1)
	assert.Equal(t, 20, page.Limit)
	assert.False(t, page.HasMore)
}

func TestCustomerService_DeleteCustomer(t *testing.T) {
	repo := new(MockCustomerRepository)
	repo.On("DeleteCascade", mock.Anything, uint(3)).Return(nil)
	repo.On("DeleteCascade", mock.Anything, uint(4)).Return(gorm.ErrRecordNotFound)
	svc := NewCustomerService(repo)

	require.NoError(t, svc.DeleteCustomer(context.Background(), 3))
	assert.ErrorIs(t, svc.DeleteCustomer(context.Background(), 4), apperrors.ErrCustomerNotFound)
}
