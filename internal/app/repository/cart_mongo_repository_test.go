package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupMongoCart(t *testing.T) *MongoCartRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("mongo container tests skipped in -short mode")
	}
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	database, err := ConnectMongoDB(ctx, uri, "storefront_test")
	require.NoError(t, err)

	repo := NewMongoCartRepository(database)
	require.NoError(t, repo.EnsureIndexes(ctx))
	return repo
}

func TestMongoCartRepository_Lifecycle(t *testing.T) {
	repo := setupMongoCart(t)
	ctx := context.Background()

	item, err := repo.Upsert(ctx, 1, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)

	item, err = repo.Upsert(ctx, 1, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)

	item, err = repo.SetQuantity(ctx, 1, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)

	_, err = repo.SetQuantity(ctx, 1, 99, 1)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	require.NoError(t, repo.Delete(ctx, 1, 10))
	assert.ErrorIs(t, repo.Delete(ctx, 1, 10), ErrCartItemNotFound)
}

func TestMongoCartRepository_OverLimitRejected(t *testing.T) {
	repo := setupMongoCart(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, 1, 10, model.MaxLineItemQuantity)
	require.NoError(t, err)

	_, err = repo.Upsert(ctx, 1, 10, 5)
	assert.ErrorIs(t, err, ErrQuantityLimitExceeded)

	item, err := repo.FindByUserAndProduct(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, model.MaxLineItemQuantity, item.Quantity)
}

func TestMongoCartRepository_ConcurrentUpsertsMerge(t *testing.T) {
	repo := setupMongoCart(t)
	ctx := context.Background()

	const workers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := repo.Upsert(ctx, 7, 42, 1)
			assert.NoError(t, err)
		}()
	}
	close(start)
	wg.Wait()

	items, err := repo.FindByUserID(ctx, 7)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, workers, items[0].Quantity)

	require.NoError(t, repo.DeleteByUserID(ctx, 7))
	items, err = repo.FindByUserID(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMongoCartRepository_ConcurrentUpsertsNearLimit(t *testing.T) {
	repo := setupMongoCart(t)
	ctx := context.Background()

	for round := 0; round < 10; round++ {
		productID := uint(100 + round)
		_, err := repo.Upsert(ctx, 7, productID, 900)
		require.NoError(t, err)

		start := make(chan struct{})
		var wg sync.WaitGroup
		var bigErr, smallErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_, bigErr = repo.Upsert(ctx, 7, productID, 200)
		}()
		go func() {
			defer wg.Done()
			<-start
			_, smallErr = repo.Upsert(ctx, 7, productID, 50)
		}()
		close(start)
		wg.Wait()

		assert.ErrorIs(t, bigErr, ErrQuantityLimitExceeded)
		assert.NoError(t, smallErr)

		item, err := repo.FindByUserAndProduct(ctx, 7, productID)
		require.NoError(t, err)
		assert.Equal(t, 950, item.Quantity)
	}
}

func TestMongoCartRepository_OverLimitFirstInsert(t *testing.T) {
	repo := setupMongoCart(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, 1, 10, model.MaxLineItemQuantity+1)
	assert.ErrorIs(t, err, ErrQuantityLimitExceeded)

	_, err = repo.FindByUserAndProduct(ctx, 1, 10)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}
