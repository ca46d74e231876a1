// Package store persists catalogue items.
package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"market/internal/items/models"
	id "market/pkg/domain"
	"market/pkg/platform/sentinel"
)

// InMemoryItemStore keeps items in a map. Slugs are unique.
type InMemoryItemStore struct {
	mu     sync.RWMutex
	items  map[id.ItemID]*models.Item
	bySlug map[string]id.ItemID
}

func NewMemory() *InMemoryItemStore {
	return &InMemoryItemStore{
		items:  make(map[id.ItemID]*models.Item),
		bySlug: make(map[string]id.ItemID),
	}
}

func (s *InMemoryItemStore) Create(_ context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.bySlug[item.Slug]; taken {
		return fmt.Errorf("item slug %q: %w", item.Slug, sentinel.ErrConflict)
	}
	s.items[item.ID] = clone(item)
	s.bySlug[item.Slug] = item.ID
	return nil
}

func (s *InMemoryItemStore) FindByID(_ context.Context, itemID id.ItemID) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemID]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", itemID, sentinel.ErrNotFound)
	}
	return clone(item), nil
}

func (s *InMemoryItemStore) Update(_ context.Context, itemID id.ItemID, patch models.Patch, at time.Time) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", itemID, sentinel.ErrNotFound)
	}
	patch.Apply(item)
	item.UpdatedAt = at
	return clone(item), nil
}

func (s *InMemoryItemStore) Delete(_ context.Context, itemID id.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return fmt.Errorf("item %s: %w", itemID, sentinel.ErrNotFound)
	}
	delete(s.bySlug, item.Slug)
	delete(s.items, itemID)
	return nil
}

// DeleteByOwner removes every item created by accountID.
func (s *InMemoryItemStore) DeleteByOwner(_ context.Context, accountID id.AccountID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for itemID, item := range s.items {
		if item.CreatedBy == accountID {
			delete(s.bySlug, item.Slug)
			delete(s.items, itemID)
			n++
		}
	}
	return n, nil
}

func (s *InMemoryItemStore) List(_ context.Context, filter models.Filter) ([]*models.Item, error) {
	matched := s.match(filter)
	sortItems(matched, filter.Sort)

	return window(matched, filter.Offset, filter.Limit), nil
}

// window returns the page at offset; out-of-range offsets give an empty page.
func window[T any](all []T, offset, limit int) []T {
	if offset < 0 || offset >= len(all) {
		return []T{}
	}
	end := len(all)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return all[offset:end]
}

func (s *InMemoryItemStore) Count(_ context.Context, filter models.Filter) (int, error) {
	return len(s.match(filter)), nil
}

func (s *InMemoryItemStore) match(filter models.Filter) []*models.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	out := make([]*models.Item, 0, len(s.items))
	for _, item := range s.items {
		if !item.Published {
			continue
		}
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if filter.MinPrice != nil && item.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && item.Price > *filter.MaxPrice {
			continue
		}
		if search != "" && !matchesSearch(item, search) {
			continue
		}
		out = append(out, clone(item))
	}
	return out
}

func matchesSearch(item *models.Item, needle string) bool {
	if strings.Contains(strings.ToLower(item.Title), needle) ||
		strings.Contains(strings.ToLower(item.Description), needle) {
		return true
	}
	return slices.ContainsFunc(item.Tags, func(tag string) bool {
		return strings.Contains(strings.ToLower(tag), needle)
	})
}

func sortItems(items []*models.Item, order models.SortOrder) {
	less := func(a, b *models.Item) bool { return a.CreatedAt.After(b.CreatedAt) }
	switch order {
	case models.SortOldest:
		less = func(a, b *models.Item) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case models.SortPriceAsc:
		less = func(a, b *models.Item) bool { return a.Price < b.Price }
	case models.SortPriceDesc:
		less = func(a, b *models.Item) bool { return a.Price > b.Price }
	}
	sort.SliceStable(items, func(i, j int) bool {
		if less(items[i], items[j]) {
			return true
		}
		if less(items[j], items[i]) {
			return false
		}
		return items[i].ID.String() < items[j].ID.String()
	})
}

func clone(item *models.Item) *models.Item {
	c := *item
	c.Tags = slices.Clone(item.Tags)
	return &c
}
