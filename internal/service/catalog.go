package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/util"
)

type CatalogService struct {
	Repo CatalogStore
}

type ProductPage struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Size     int              `json:"size"`
	Products []models.Product `json:"products"`
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	p, err := s.Repo.GetProductBySlug(ctx, slug)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("product %q: %w", slug, ErrNotFound)
	}
	return p, err
}

func (s *CatalogService) ListProducts(ctx context.Context, page, size int) (*ProductPage, error) {
	offset, limit := util.Calculate(page, size)
	total, products, err := s.Repo.ListProducts(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return &ProductPage{Total: total, Page: offset/limit + 1, Size: limit, Products: products}, nil
}
