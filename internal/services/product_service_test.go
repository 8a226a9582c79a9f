package services_test

import (
	"testing"

	"tokocart/internal/models"
	"tokocart/internal/repositories"
	"tokocart/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductService(t *testing.T) {
	svc := services.NewProductService(repositories.NewMockProductRepository())

	product := &models.Product{Name: "Sports Kit", Price: 15.75}
	require.NoError(t, svc.CreateProduct(product))
	assert.NotEmpty(t, product.ID)

	got, err := svc.GetProductByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sports Kit", got.Name)

	all, err := svc.GetAllProducts()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = svc.GetProductByID("nope")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
