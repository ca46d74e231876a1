package models

import (
	"strings"
	"unicode/utf8"

	dErrors "market/pkg/domain-errors"
	strs "market/pkg/platform/strings"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

type CreateItemRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Category    Category `json:"category"`
	Stock       int      `json:"stock"`
	Tags        []string `json:"tags"`
	Published   *bool    `json:"isPublished"`
}

func (r *CreateItemRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	if r.Category == "" {
		r.Category = CategoryOther
	}
	r.Tags = normalizeTags(r.Tags)
}

func (r *CreateItemRequest) Validate() error {
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if r.Price == nil {
		return dErrors.New(dErrors.CodeValidation, "price is required")
	}
	return validateFields(&r.Title, &r.Description, r.Price, &r.Category, &r.Stock)
}

type UpdateItemRequest struct {
	Patch
}

func (r *UpdateItemRequest) Normalize() {
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		r.Title = &t
	}
	if r.Description != nil {
		d := strings.TrimSpace(*r.Description)
		r.Description = &d
	}
	if r.Tags != nil {
		tags := normalizeTags(*r.Tags)
		r.Tags = &tags
	}
}

func (r *UpdateItemRequest) Validate() error {
	if r.Title != nil && *r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title cannot be empty")
	}
	return validateFields(r.Title, r.Description, r.Price, r.Category, r.Stock)
}

func validateFields(title, description *string, price *float64, category *Category, stock *int) error {
	if title != nil && utf8.RuneCountInString(*title) > MaxTitleLength {
		return dErrors.New(dErrors.CodeValidation, "title cannot exceed 200 characters")
	}
	if description != nil && utf8.RuneCountInString(*description) > MaxDescriptionLength {
		return dErrors.New(dErrors.CodeValidation, "description cannot exceed 2000 characters")
	}
	if price != nil && *price < 0 {
		return dErrors.New(dErrors.CodeValidation, "price cannot be negative")
	}
	if category != nil && !category.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "category must be one of electronics, clothing, food, books, sports, other")
	}
	if stock != nil && *stock < 0 {
		return dErrors.New(dErrors.CodeValidation, "stock cannot be negative")
	}
	return nil
}

// normalizeTags trims tags and drops blanks and repeats, keeping order.
func normalizeTags(tags []string) []string {
	return strs.DedupeAndTrim(tags)
}
