package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tokocart/internal/models"
	"tokocart/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, repositories.AutoMigrate(db))
	return db
}

func sampleCarts() []models.Cart {
	added := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	edited := time.Date(2026, 2, 1, 9, 15, 0, 0, time.UTC)
	first := models.Cart{
		ID:        "cart-a",
		Name:      "Uniforms",
		CreatedAt: added,
		CreatedBy: "alice",
		Items: []models.CartItem{
			{ProductID: "p1", ProductName: "Shirt", Price: 5, Quantity: 2, AddedAt: added, AddedBy: "alice"},
			{ProductID: "p2", ProductName: "Cap", Price: 3, Quantity: 1, AddedAt: added, AddedBy: "carol", EditedBy: "bob", EditedAt: &edited},
		},
		LastModifiedAt: edited,
		LastModifiedBy: "bob",
		NeedsReprint:   true,
	}
	first.RecalculateTotal()
	second := models.Cart{ID: "cart-b", Name: "Shoes", CreatedAt: added, CreatedBy: "alice", LastModifiedAt: added, LastModifiedBy: "alice"}
	return []models.Cart{first, second}
}

func TestGORMCartRepository_RoundTripPreservesAuditFields(t *testing.T) {
	repo := repositories.NewGORMCartRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, "order-1", sampleCarts()))
	got, err := repo.GetByOrder(ctx, "order-1")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "cart-a", got[0].ID)
	assert.Equal(t, "cart-b", got[1].ID)
	assert.Equal(t, "order-1", got[0].OrderID)
	assert.InDelta(t, 13, got[0].Total, 1e-9)
	assert.True(t, got[0].NeedsReprint)
	assert.Equal(t, "bob", got[0].LastModifiedBy)

	require.Len(t, got[0].Items, 2)
	assert.Equal(t, "alice", got[0].Items[0].AddedBy)
	assert.Nil(t, got[0].Items[0].EditedAt)
	assert.Equal(t, "carol", got[0].Items[1].AddedBy)
	assert.Equal(t, "bob", got[0].Items[1].EditedBy)
	require.NotNil(t, got[0].Items[1].EditedAt)
	assert.True(t, got[0].Items[1].EditedAt.Equal(time.Date(2026, 2, 1, 9, 15, 0, 0, time.UTC)))
}

func TestGORMCartRepository_ReplaceAllIsWholeCollection(t *testing.T) {
	repo := repositories.NewGORMCartRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, "order-1", sampleCarts()))
	otherCart := sampleCarts()[1]
	otherCart.ID = "cart-z"
	require.NoError(t, repo.ReplaceAll(ctx, "order-2", []models.Cart{otherCart}))

	merged := sampleCarts()[:1]
	merged[0].Name = "Uniforms merged"
	require.NoError(t, repo.ReplaceAll(ctx, "order-1", merged))

	got, err := repo.GetByOrder(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Uniforms merged", got[0].Name)

	other, err := repo.GetByOrder(ctx, "order-2")
	require.NoError(t, err)
	require.Len(t, other, 1, "other orders are untouched")
	assert.Equal(t, "cart-z", other[0].ID)
}

func TestGORMCartRepository_ReplaceWithEmptySet(t *testing.T) {
	repo := repositories.NewGORMCartRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, "order-1", sampleCarts()))
	require.NoError(t, repo.ReplaceAll(ctx, "order-1", nil))

	got, err := repo.GetByOrder(ctx, "order-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGORMCartRepository_FailedReplaceLeavesPreviousSet(t *testing.T) {
	repo := repositories.NewGORMCartRepository(openTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.ReplaceAll(ctx, "order-1", sampleCarts()))

	dup := sampleCarts()
	dup[1].ID = dup[0].ID
	err := repo.ReplaceAll(ctx, "order-1", dup)
	require.Error(t, err)

	got, err := repo.GetByOrder(ctx, "order-1")
	require.NoError(t, err)
	assert.Len(t, got, 2, "the transaction rolls back the delete")
}

func TestGORMCartRepository_HonorsCancelledContext(t *testing.T) {
	repo := repositories.NewGORMCartRepository(openTestDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.ReplaceAll(ctx, "order-1", sampleCarts())
	assert.Error(t, err)
}

func TestMockCartRepository_ReturnsCopies(t *testing.T) {
	repo := repositories.NewMockCartRepository()
	ctx := context.Background()
	require.NoError(t, repo.ReplaceAll(ctx, "order-1", sampleCarts()))

	got, err := repo.GetByOrder(ctx, "order-1")
	require.NoError(t, err)
	got[0].Items[0].Quantity = 100

	again, err := repo.GetByOrder(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, 2, again[0].Items[0].Quantity)
	assert.Equal(t, 1, again[1].Position)
}
