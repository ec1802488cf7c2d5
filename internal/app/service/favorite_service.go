package service

import (
	"context"
	"errors"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type FavoriteService interface {
	AddFavorite(ctx context.Context, userID, productID uint) (*model.Favorite, error)
	ListFavorites(ctx context.Context, userID uint) ([]model.Favorite, error)
	RemoveFavorite(ctx context.Context, userID, productID uint) error
	MoveToCart(ctx context.Context, userID, productID uint) (*model.Cart, error)
}

type favoriteService struct {
	favoriteRepo repository.FavoriteRepository
	productRepo  repository.ProductRepository
	cartService  CartService
}

func NewFavoriteService(
	favoriteRepo repository.FavoriteRepository,
	productRepo repository.ProductRepository,
	cartService CartService,
) FavoriteService {
	return &favoriteService{
		favoriteRepo: favoriteRepo,
		productRepo:  productRepo,
		cartService:  cartService,
	}
}

func (s *favoriteService) AddFavorite(ctx context.Context, userID, productID uint) (*model.Favorite, error) {
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "product", ID: productID}
		}
		return nil, err
	}

	favorite := &model.Favorite{
		UserID:    userID,
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		ImageURL:  product.ImageURL,
	}
	inserted, err := s.favoriteRepo.Insert(ctx, favorite)
	if err != nil {
		return nil, err
	}
	if !inserted {
		logger.Warn("Favorite already exists", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, ErrFavoriteAlreadyExists
	}

	logger.Info("Favorite added", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})
	return favorite, nil
}

func (s *favoriteService) ListFavorites(ctx context.Context, userID uint) ([]model.Favorite, error) {
	return s.favoriteRepo.FindByUserID(ctx, userID)
}

func (s *favoriteService) RemoveFavorite(ctx context.Context, userID, productID uint) error {
	if err := s.favoriteRepo.Delete(ctx, userID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Resource: "favorite", ID: productID}
		}
		return err
	}

	logger.Info("Favorite removed", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})
	return nil
}

// MoveToCart adds one unit to the cart and then drops the favorite. The add
// goes first so a failure never loses the product from both lists.
func (s *favoriteService) MoveToCart(ctx context.Context, userID, productID uint) (*model.Cart, error) {
	if _, err := s.favoriteRepo.FindByUserAndProduct(ctx, userID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "favorite", ID: productID}
		}
		return nil, err
	}

	if _, err := s.cartService.AddToCart(ctx, userID, productID, 1); err != nil {
		return nil, err
	}

	if err := s.favoriteRepo.Delete(ctx, userID, productID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to remove favorite after moving to cart", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, err
	}

	logger.Info("Favorite moved to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})
	return s.cartService.GetCart(ctx, userID)
}
