// Package models holds the catalogue item types and their request/response
// shapes.
package models

import (
	"time"

	id "market/pkg/domain"
)

type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryFood        Category = "food"
	CategoryBooks       Category = "books"
	CategorySports      Category = "sports"
	CategoryOther       Category = "other"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryElectronics, CategoryClothing, CategoryFood, CategoryBooks, CategorySports, CategoryOther:
		return true
	}
	return false
}

type Item struct {
	ID          id.ItemID
	Title       string
	Description string
	Price       float64
	Category    Category
	Stock       int
	Tags        []string
	Published   bool
	Slug        string
	CreatedBy   id.AccountID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Patch lists the fields an update may change. Ownership and slug are not
// among them.
type Patch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Category    *Category `json:"category"`
	Stock       *int      `json:"stock"`
	Tags        *[]string `json:"tags"`
	Published   *bool     `json:"isPublished"`
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil &&
		p.Category == nil && p.Stock == nil && p.Tags == nil && p.Published == nil
}

// Apply copies the set fields of p onto item.
func (p Patch) Apply(item *Item) {
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Stock != nil {
		item.Stock = *p.Stock
	}
	if p.Tags != nil {
		item.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Published != nil {
		item.Published = *p.Published
	}
}

// SortOrder is the wire name of a listing order.
type SortOrder string

const (
	SortNewest    SortOrder = "-createdAt"
	SortOldest    SortOrder = "createdAt"
	SortPriceAsc  SortOrder = "price"
	SortPriceDesc SortOrder = "-price"
)

func (s SortOrder) IsValid() bool {
	switch s {
	case SortNewest, SortOldest, SortPriceAsc, SortPriceDesc:
		return true
	}
	return false
}

// Filter selects published items for the public listing.
type Filter struct {
	Category Category
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Sort     SortOrder
	Offset   int
	Limit    int
}
