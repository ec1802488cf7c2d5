package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFavoriteServiceTest(t *testing.T) (FavoriteService, CartService, *testDeps) {
	deps := setupDeps(t)
	cartService := NewCartService(deps.cartRepo, deps.productRepo, nil, "usd")
	return NewFavoriteService(deps.favoriteRepo, deps.productRepo, cartService), cartService, deps
}

func TestFavoriteService_AddAndList(t *testing.T) {
	svc, _, deps := setupFavoriteServiceTest(t)
	ctx := context.Background()
	user := deps.user(t, "fav@example.com")
	ring := deps.product(t, "ring", "499.99")

	favorite, err := svc.AddFavorite(ctx, user.ID, ring.ID)
	require.NoError(t, err)
	assert.Equal(t, "ring", favorite.Name)
	assert.True(t, favorite.Price.Equal(ring.Price))

	_, err = svc.AddFavorite(ctx, user.ID, ring.ID)
	assert.ErrorIs(t, err, ErrFavoriteAlreadyExists)

	_, err = svc.AddFavorite(ctx, user.ID, 9999)
	assert.True(t, IsNotFound(err))

	favorites, err := svc.ListFavorites(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, favorites, 1)
}

func TestFavoriteService_RemoveFavorite(t *testing.T) {
	svc, _, deps := setupFavoriteServiceTest(t)
	ctx := context.Background()
	user := deps.user(t, "fav@example.com")
	ring := deps.product(t, "ring", "5.00")

	_, err := svc.AddFavorite(ctx, user.ID, ring.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveFavorite(ctx, user.ID, ring.ID))
	assert.True(t, IsNotFound(svc.RemoveFavorite(ctx, user.ID, ring.ID)))
}

func TestFavoriteService_MoveToCart(t *testing.T) {
	svc, cartService, deps := setupFavoriteServiceTest(t)
	ctx := context.Background()
	user := deps.user(t, "fav@example.com")
	ring := deps.product(t, "ring", "5.00")

	_, err := cartService.AddToCart(ctx, user.ID, ring.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddFavorite(ctx, user.ID, ring.ID)
	require.NoError(t, err)

	cart, err := svc.MoveToCart(ctx, user.ID, ring.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	favorites, err := svc.ListFavorites(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, favorites)

	_, err = svc.MoveToCart(ctx, user.ID, ring.ID)
	assert.True(t, IsNotFound(err))
}

func TestFavoriteService_MoveToCart_KeepsFavoriteWhenAddFails(t *testing.T) {
	svc, cartService, deps := setupFavoriteServiceTest(t)
	ctx := context.Background()
	user := deps.user(t, "fav@example.com")
	ring := deps.product(t, "ring", "5.00")

	_, err := cartService.AddToCart(ctx, user.ID, ring.ID, 1000)
	require.NoError(t, err)
	_, err = svc.AddFavorite(ctx, user.ID, ring.ID)
	require.NoError(t, err)

	_, err = svc.MoveToCart(ctx, user.ID, ring.ID)
	require.Error(t, err)

	favorites, err := svc.ListFavorites(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, favorites, 1)
}
