package models

import "time"

type ItemView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    Category  `json:"category"`
	Stock       int       `json:"stock"`
	Tags        []string  `json:"tags"`
	Published   bool      `json:"isPublished"`
	Slug        string    `json:"slug"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func ToView(i *Item) ItemView {
	tags := i.Tags
	if tags == nil {
		tags = []string{}
	}
	return ItemView{
		ID:          i.ID.String(),
		Title:       i.Title,
		Description: i.Description,
		Price:       i.Price,
		Category:    i.Category,
		Stock:       i.Stock,
		Tags:        tags,
		Published:   i.Published,
		Slug:        i.Slug,
		CreatedBy:   i.CreatedBy.String(),
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

type ItemResponse struct {
	Success bool     `json:"success"`
	Item    ItemView `json:"item"`
}

type ItemListResponse struct {
	Success    bool       `json:"success"`
	Count      int        `json:"count"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	TotalPages int        `json:"pages"`
	Items      []ItemView `json:"items"`
}
