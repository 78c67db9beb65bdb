package service

import (
	"context"
	"sort"
	"strconv"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
	"golang.org/x/sync/singleflight"
)

type CatalogService struct {
	repo repository.ProductRepository
	sfg  singleflight.Group
}

func NewCatalogService(repo repository.ProductRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// List returns every product ordered by id, numeric ids by value.
func (s *CatalogService) List(ctx context.Context) ([]*domain.Product, error) {
	v, err, _ := s.sfg.Do("list", func() (interface{}, error) {
		return s.repo.ListProducts(ctx)
	})
	if err != nil {
		return nil, err
	}

	products := v.([]*domain.Product)
	out := make([]*domain.Product, len(products))
	for i, p := range products {
		cp := *p
		out[i] = &cp
	}
	sort.SliceStable(out, func(i, j int) bool { return idLess(out[i].ID, out[j].ID) })
	return out, nil
}

// idLess orders numeric ids numerically ("2" before "10") and everything
// else lexically.
func idLess(a, b string) bool {
	x, errA := strconv.Atoi(a)
	y, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return x < y
	}
	return a < b
}

// Get returns repository.ErrProductNotFound when id is unknown.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	v, err, _ := s.sfg.Do("product:"+id, func() (interface{}, error) {
		return s.repo.GetProduct(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	cp := *v.(*domain.Product)
	return &cp, nil
}
