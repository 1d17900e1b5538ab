// Package items implements the tracked-item calls shown in the protected
// part of the app. Listings go through the shared query cache so the items
// view doesn't refetch on every visit; mutations invalidate it.
package items

import (
	"context"
	"fmt"
	"time"

	"github.com/NicolasHaas/itemtrack/pkg/api"
	"github.com/NicolasHaas/itemtrack/pkg/query"
)

const listCacheKey = "items/list"

// Item is a tracked item as returned by the server.
type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateRequest carries a new-item submission.
type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Quantity    int    `json:"quantity"`
}

// Service performs the /items round trips.
type Service struct {
	api   *api.Client
	cache *query.Cache
}

// NewService creates an items service using the shared API client and query
// cache.
func NewService(client *api.Client, cache *query.Cache) *Service {
	return &Service{api: client, cache: cache}
}

// List returns the tracked items, served from the query cache when a
// previous fetch is still held.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	if cached, ok := s.cache.Get(listCacheKey); ok {
		if items, ok := cached.([]Item); ok {
			return items, nil
		}
	}

	var items []Item
	if err := s.api.Get(ctx, "/items", &items); err != nil {
		return nil, err
	}
	s.cache.Set(listCacheKey, items)
	return items, nil
}

// Create adds a new tracked item and invalidates the cached listing.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Item, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("items: name is required")
	}
	var item Item
	if err := s.api.Post(ctx, "/items", req, &item); err != nil {
		return nil, err
	}
	s.cache.Invalidate(listCacheKey)
	return &item, nil
}

// Delete removes a tracked item and invalidates the cached listing.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, "/items/"+id); err != nil {
		return err
	}
	s.cache.Invalidate(listCacheKey)
	return nil
}
