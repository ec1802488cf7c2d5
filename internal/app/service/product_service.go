package service

import (
	"errors"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/money"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type ProductListOptions struct {
	Search   string
	Page     int
	PageSize int
}

type ProductPage struct {
	Products []model.Product `json:"products"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

type ProductService interface {
	ListProducts(opts ProductListOptions) (*ProductPage, error)
	GetProductByID(id uint) (*model.Product, error)
	CreateProduct(product *model.Product) error
	// UpsertByName creates the product or updates the one with the same name.
	UpsertByName(product *model.Product) (created bool, err error)
}

type productService struct {
	productRepo repository.ProductRepository
	currency    string
}

func NewProductService(productRepo repository.ProductRepository, currency string) ProductService {
	return &productService{
		productRepo: productRepo,
		currency:    currency,
	}
}

func (s *productService) ListProducts(opts ProductListOptions) (*ProductPage, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 {
		opts.PageSize = DefaultPageSize
	}
	if opts.PageSize > MaxPageSize {
		opts.PageSize = MaxPageSize
	}

	logger.Debug("Listing products", map[string]interface{}{
		"search":    opts.Search,
		"page":      opts.Page,
		"page_size": opts.PageSize,
	})

	products, total, err := s.productRepo.FindWithFilter(repository.ProductFilter{
		Search: strings.TrimSpace(opts.Search),
		Limit:  opts.PageSize,
		Offset: (opts.Page - 1) * opts.PageSize,
	})
	if err != nil {
		logger.Error("Failed to list products", err)
		return nil, err
	}

	return &ProductPage{
		Products: products,
		Total:    total,
		Page:     opts.Page,
		PageSize: opts.PageSize,
	}, nil
}

func (s *productService) GetProductByID(id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "product", ID: id}
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) CreateProduct(product *model.Product) error {
	if err := s.validate(product); err != nil {
		return err
	}
	if err := s.productRepo.Create(product); err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"name": product.Name,
		})
		return err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return nil
}

func (s *productService) UpsertByName(product *model.Product) (bool, error) {
	if err := s.validate(product); err != nil {
		return false, err
	}

	existing, err := s.productRepo.FindByName(product.Name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if existing == nil {
		return true, s.CreateProduct(product)
	}

	existing.Price = product.Price
	existing.Description = product.Description
	existing.ImageURL = product.ImageURL
	if err := s.productRepo.Update(existing); err != nil {
		return false, err
	}
	*product = *existing
	return false, nil
}

func (s *productService) validate(product *model.Product) error {
	product.Name = strings.TrimSpace(product.Name)
	if product.Name == "" {
		return newValidationError("name", "is required")
	}
	return money.ValidatePrice(product.Price, s.currency)
}
